package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"library-backend/internal/domains/loan/model"
	"library-backend/internal/query"
	"library-backend/internal/shared/errs"
	"library-backend/internal/shared/utils"
)

// postgresRepository - raw SQL with pgxpool
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

const uniqueViolation = "23505"

// ============================================
// CHECKOUT / CHECKIN
// ============================================

func (r *postgresRepository) Checkout(ctx context.Context, isbn, cardID string, dateOut, dueDate time.Time) (*model.Loan, error) {
	loan := &model.Loan{
		ISBN:    isbn,
		CardID:  cardID,
		DateOut: dateOut,
		DueDate: dueDate,
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO book_loans (isbn, card_id, date_out, due_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING loan_id`,
		isbn, cardID, dateOut, dueDate,
	).Scan(&loan.LoanID)
	if err != nil {
		// The partial unique index on active loans catches the race
		// where two checkouts of the same copy pass the precondition
		// checks simultaneously.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, errs.Conflict("book %s is already checked out", isbn)
		}
		return nil, fmt.Errorf("insert loan: %w", err)
	}

	return loan, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, loanID int64) (*model.Loan, error) {
	var l model.Loan
	err := r.pool.QueryRow(ctx,
		`SELECT loan_id, isbn, card_id, date_out, due_date, date_in
		 FROM book_loans WHERE loan_id = $1`,
		loanID,
	).Scan(&l.LoanID, &l.ISBN, &l.CardID, &l.DateOut, &l.DueDate, &l.DateIn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("loan %d does not exist", loanID)
	}
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return &l, nil
}

func (r *postgresRepository) Checkin(ctx context.Context, loanID int64, dateIn time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE book_loans SET date_in = $2
		 WHERE loan_id = $1 AND date_in IS NULL`,
		loanID, dateIn,
	)
	if err != nil {
		return false, fmt.Errorf("checkin loan: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ============================================
// CHECKOUT PRECONDITIONS
// ============================================

func (r *postgresRepository) IsBookOnLoan(ctx context.Context, isbn string) (bool, error) {
	var onLoan bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM book_loans WHERE isbn = $1 AND date_in IS NULL)`,
		isbn,
	).Scan(&onLoan)
	if err != nil {
		return false, fmt.Errorf("check book on loan: %w", err)
	}
	return onLoan, nil
}

func (r *postgresRepository) CountActiveLoans(ctx context.Context, cardID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM book_loans WHERE card_id = $1 AND date_in IS NULL`,
		cardID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active loans: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) HasUnpaidFines(ctx context.Context, cardID string) (bool, error) {
	var owed bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM fines f
			JOIN book_loans bl ON f.loan_id = bl.loan_id
			WHERE bl.card_id = $1 AND f.paid = FALSE AND f.fine_amt > 0
		)`,
		cardID,
	).Scan(&owed)
	if err != nil {
		return false, fmt.Errorf("check unpaid fines: %w", err)
	}
	return owed, nil
}

// ============================================
// SEARCH LOANS
// ============================================

// loanFromClause joins everything the loan filters can reference.
const loanFromClause = `
	FROM book_loans bl
	JOIN books b ON bl.isbn = b.isbn
	JOIN borrowers br ON bl.card_id = br.card_id
	LEFT JOIN book_authors ba ON b.isbn = ba.isbn
	LEFT JOIN authors a ON ba.author_id = a.author_id
	LEFT JOIN fines f ON bl.loan_id = f.loan_id
`

func (r *postgresRepository) SearchLoans(ctx context.Context, q query.Query) (query.Results[model.Loan], error) {
	whereClause, args := buildLoanWhere(q)

	countQuery := fmt.Sprintf(`SELECT COUNT(DISTINCT bl.loan_id) %s WHERE %s`, loanFromClause, whereClause)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return query.Results[model.Loan]{}, fmt.Errorf("count loans: %w", err)
	}

	mainQuery := fmt.Sprintf(`
		SELECT bl.loan_id, bl.isbn, bl.card_id, bl.date_out, bl.due_date, bl.date_in
		%s
		WHERE %s
		GROUP BY bl.loan_id, bl.isbn, bl.card_id, bl.date_out, bl.due_date, bl.date_in,
		         b.title, br.bname
	`, loanFromClause, whereClause)

	mainQuery += loanOrderClause(q)

	if q.Limit != nil {
		mainQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, *q.Limit, q.Offset())
	}

	rows, err := r.pool.Query(ctx, mainQuery, args...)
	if err != nil {
		return query.Results[model.Loan]{}, fmt.Errorf("search loans: %w", err)
	}
	defer rows.Close()

	loans := []model.Loan{}
	for rows.Next() {
		var l model.Loan
		if err := rows.Scan(&l.LoanID, &l.ISBN, &l.CardID, &l.DateOut, &l.DueDate, &l.DateIn); err != nil {
			return query.Results[model.Loan]{}, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return query.Results[model.Loan]{}, fmt.Errorf("rows error: %w", err)
	}

	return query.NewResults(loans, total, q), nil
}

func (r *postgresRepository) SearchLoansWithBooks(ctx context.Context, q query.Query) (query.Results[model.LoanWithBook], error) {
	whereClause, args := buildLoanWhere(q)

	countQuery := fmt.Sprintf(`SELECT COUNT(DISTINCT bl.loan_id) %s WHERE %s`, loanFromClause, whereClause)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return query.Results[model.LoanWithBook]{}, fmt.Errorf("count loans with books: %w", err)
	}

	mainQuery := fmt.Sprintf(`
		SELECT
			bl.loan_id, bl.isbn, bl.card_id, bl.date_out, bl.due_date, bl.date_in,
			b.title,
			COALESCE(array_agg(DISTINCT a.name ORDER BY a.name)
				FILTER (WHERE a.name IS NOT NULL), '{}') AS authors,
			br.bname,
			f.fine_amt,
			f.paid
		%s
		WHERE %s
		GROUP BY bl.loan_id, bl.isbn, bl.card_id, bl.date_out, bl.due_date, bl.date_in,
		         b.title, br.bname, f.fine_amt, f.paid
	`, loanFromClause, whereClause)

	mainQuery += loanOrderClause(q)

	if q.Limit != nil {
		mainQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, *q.Limit, q.Offset())
	}

	rows, err := r.pool.Query(ctx, mainQuery, args...)
	if err != nil {
		return query.Results[model.LoanWithBook]{}, fmt.Errorf("search loans with books: %w", err)
	}
	defer rows.Close()

	results := []model.LoanWithBook{}
	for rows.Next() {
		var lwb model.LoanWithBook
		err := rows.Scan(
			&lwb.LoanID, &lwb.ISBN, &lwb.CardID, &lwb.DateOut, &lwb.DueDate, &lwb.DateIn,
			&lwb.Title, pq.Array(&lwb.Authors), &lwb.BorrowerName,
			&lwb.FineAmt, &lwb.Paid,
		)
		if err != nil {
			return query.Results[model.LoanWithBook]{}, fmt.Errorf("scan loan with book: %w", err)
		}
		results = append(results, lwb)
	}
	if err := rows.Err(); err != nil {
		return query.Results[model.LoanWithBook]{}, fmt.Errorf("rows error: %w", err)
	}

	return query.NewResults(results, total, q), nil
}

// ============================================
// FINES
// ============================================

const fineFromClause = `
	FROM fines f
	JOIN book_loans bl ON f.loan_id = bl.loan_id
	JOIN books b ON bl.isbn = b.isbn
	JOIN borrowers br ON bl.card_id = br.card_id
`

func (r *postgresRepository) SearchFines(ctx context.Context, q query.Query) (query.Results[model.FineDetail], error) {
	whereClause, args := buildFineWhere(q)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) %s WHERE %s`, fineFromClause, whereClause)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return query.Results[model.FineDetail]{}, fmt.Errorf("count fines: %w", err)
	}

	mainQuery := fmt.Sprintf(`
		SELECT f.loan_id, f.fine_amt, f.paid,
		       bl.isbn, b.title, bl.card_id, bl.due_date, bl.date_in
		%s
		WHERE %s
	`, fineFromClause, whereClause)

	mainQuery += fineOrderClause(q)

	if q.Limit != nil {
		mainQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, *q.Limit, q.Offset())
	}

	rows, err := r.pool.Query(ctx, mainQuery, args...)
	if err != nil {
		return query.Results[model.FineDetail]{}, fmt.Errorf("search fines: %w", err)
	}
	defer rows.Close()

	fines := []model.FineDetail{}
	for rows.Next() {
		var fd model.FineDetail
		err := rows.Scan(
			&fd.LoanID, &fd.FineAmt, &fd.Paid,
			&fd.ISBN, &fd.Title, &fd.CardID, &fd.DueDate, &fd.DateIn,
		)
		if err != nil {
			return query.Results[model.FineDetail]{}, fmt.Errorf("scan fine: %w", err)
		}
		fines = append(fines, fd)
	}
	if err := rows.Err(); err != nil {
		return query.Results[model.FineDetail]{}, fmt.Errorf("rows error: %w", err)
	}

	return query.NewResults(fines, total, q), nil
}

func (r *postgresRepository) GetFine(ctx context.Context, loanID int64) (model.Fine, error) {
	f := model.Fine{LoanID: loanID, FineAmt: decimal.Zero}
	err := r.pool.QueryRow(ctx,
		`SELECT fine_amt, paid FROM fines WHERE loan_id = $1`, loanID,
	).Scan(&f.FineAmt, &f.Paid)
	if errors.Is(err, pgx.ErrNoRows) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("get fine: %w", err)
	}
	return f, nil
}

func (r *postgresRepository) UserFines(ctx context.Context, cardID string, includePaid bool) (decimal.Decimal, error) {
	cond := "bl.card_id = $1"
	if !includePaid {
		cond += " AND f.paid = FALSE"
	}

	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT COALESCE(SUM(f.fine_amt), 0)
		FROM fines f
		JOIN book_loans bl ON f.loan_id = bl.loan_id
		WHERE %s
	`, cond), cardID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum user fines: %w", err)
	}
	return total, nil
}

func (r *postgresRepository) Fines(ctx context.Context, cardIDs []string, includePaid bool) ([]model.LoanWithFine, error) {
	conditions := []string{"f.fine_amt > 0"}
	var args []interface{}

	if len(cardIDs) > 0 {
		args = append(args, cardIDs)
		conditions = append(conditions, fmt.Sprintf("bl.card_id = ANY($%d)", len(args)))
	}
	if !includePaid {
		conditions = append(conditions, "f.paid = FALSE")
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT bl.loan_id, bl.isbn, bl.card_id, bl.date_out, bl.due_date, bl.date_in,
		       f.fine_amt, f.paid
		FROM fines f
		JOIN book_loans bl ON f.loan_id = bl.loan_id
		WHERE %s
		ORDER BY bl.card_id, f.fine_amt DESC
	`, utils.JoinWithAnd(conditions)), args...)
	if err != nil {
		return nil, fmt.Errorf("list fines: %w", err)
	}
	defer rows.Close()

	loans := []model.LoanWithFine{}
	for rows.Next() {
		var lf model.LoanWithFine
		err := rows.Scan(
			&lf.LoanID, &lf.ISBN, &lf.CardID, &lf.DateOut, &lf.DueDate, &lf.DateIn,
			&lf.FineAmt, &lf.Paid,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fined loan: %w", err)
		}
		loans = append(loans, lf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return loans, nil
}

func (r *postgresRepository) FinesGrouped(ctx context.Context, cardIDs []string, includePaid bool) (map[string]decimal.Decimal, error) {
	conditions := []string{"f.fine_amt > 0"}
	var args []interface{}

	if len(cardIDs) > 0 {
		args = append(args, cardIDs)
		conditions = append(conditions, fmt.Sprintf("bl.card_id = ANY($%d)", len(args)))
	}
	if !includePaid {
		conditions = append(conditions, "f.paid = FALSE")
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT bl.card_id, SUM(f.fine_amt)
		FROM fines f
		JOIN book_loans bl ON f.loan_id = bl.loan_id
		WHERE %s
		GROUP BY bl.card_id
	`, utils.JoinWithAnd(conditions)), args...)
	if err != nil {
		return nil, fmt.Errorf("group fines: %w", err)
	}
	defer rows.Close()

	totals := map[string]decimal.Decimal{}
	for rows.Next() {
		var cardID string
		var total decimal.Decimal
		if err := rows.Scan(&cardID, &total); err != nil {
			return nil, fmt.Errorf("scan fine total: %w", err)
		}
		totals[cardID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return totals, nil
}

func (r *postgresRepository) FineSummary(ctx context.Context) (*model.FineSummary, error) {
	var s model.FineSummary
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(fine_amt) FILTER (WHERE NOT paid), 0),
			COUNT(*) FILTER (WHERE NOT paid),
			COALESCE(SUM(fine_amt) FILTER (WHERE paid), 0),
			COUNT(*) FILTER (WHERE paid)
		FROM fines
	`).Scan(&s.UnpaidTotal, &s.UnpaidCount, &s.PaidTotal, &s.PaidCount)
	if err != nil {
		return nil, fmt.Errorf("fine summary: %w", err)
	}
	return &s, nil
}

func (r *postgresRepository) UpdateFines(ctx context.Context, asOf time.Time) (int, error) {
	// Two-step sweep: pick the overdue loans, compute each charge,
	// upsert. Paid fines are frozen by the ON CONFLICT guard.
	rows, err := r.pool.Query(ctx, `
		SELECT bl.loan_id, bl.due_date, bl.date_in
		FROM book_loans bl
		WHERE (bl.date_in IS NOT NULL AND bl.date_in > bl.due_date)
		   OR (bl.date_in IS NULL AND bl.due_date < $1::date)
	`, asOf)
	if err != nil {
		return 0, fmt.Errorf("select overdue loans: %w", err)
	}
	defer rows.Close()

	type overdue struct {
		loanID  int64
		dueDate time.Time
		dateIn  *time.Time
	}

	var loans []overdue
	for rows.Next() {
		var o overdue
		if err := rows.Scan(&o.loanID, &o.dueDate, &o.dateIn); err != nil {
			return 0, fmt.Errorf("scan overdue loan: %w", err)
		}
		loans = append(loans, o)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("rows error: %w", err)
	}
	if len(loans) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, o := range loans {
		amount := model.FineFor(o.dueDate, o.dateIn, asOf)
		batch.Queue(`
			INSERT INTO fines (loan_id, fine_amt, paid)
			VALUES ($1, $2, FALSE)
			ON CONFLICT (loan_id) DO UPDATE
			SET fine_amt = EXCLUDED.fine_amt
			WHERE fines.paid = FALSE
		`, o.loanID, amount)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	updated := 0
	for range loans {
		tag, err := results.Exec()
		if err != nil {
			return updated, fmt.Errorf("upsert fine: %w", err)
		}
		updated += int(tag.RowsAffected())
	}

	return updated, nil
}

func (r *postgresRepository) PayLoanFine(ctx context.Context, loanID int64) error {
	// Only a positive unpaid fine is payable; there is nothing to
	// settle on a zero charge.
	tag, err := r.pool.Exec(ctx,
		`UPDATE fines SET paid = TRUE
		 WHERE loan_id = $1 AND paid = FALSE AND fine_amt > 0`,
		loanID,
	)
	if err != nil {
		return fmt.Errorf("pay fine: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var paid bool
	err = r.pool.QueryRow(ctx,
		`SELECT paid FROM fines WHERE loan_id = $1 AND fine_amt > 0`, loanID,
	).Scan(&paid)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NotFound("no fine exists for loan %d", loanID)
	}
	if err != nil {
		return fmt.Errorf("check fine exists: %w", err)
	}
	return errs.Conflict("fine for loan %d is already paid", loanID)
}

func (r *postgresRepository) PayBorrowerFines(ctx context.Context, cardID string) ([]model.LoanWithFine, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE fines f SET paid = TRUE
		FROM book_loans bl
		WHERE f.loan_id = bl.loan_id AND bl.card_id = $1
		  AND f.paid = FALSE AND f.fine_amt > 0
		RETURNING bl.loan_id, bl.isbn, bl.card_id, bl.date_out, bl.due_date, bl.date_in,
		          f.fine_amt, f.paid
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("pay borrower fines: %w", err)
	}
	defer rows.Close()

	settled := []model.LoanWithFine{}
	for rows.Next() {
		var lf model.LoanWithFine
		err := rows.Scan(
			&lf.LoanID, &lf.ISBN, &lf.CardID, &lf.DateOut, &lf.DueDate, &lf.DateIn,
			&lf.FineAmt, &lf.Paid,
		)
		if err != nil {
			return nil, fmt.Errorf("scan settled fine: %w", err)
		}
		settled = append(settled, lf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return settled, nil
}

// ============================================
// HELPERS
// ============================================

func buildLoanWhere(q query.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if q.LoanID != "" {
		conditions = append(conditions, fmt.Sprintf("bl.loan_id::text = $%d", argIndex))
		args = append(args, q.LoanID)
		argIndex++
	}

	if q.ISBN != "" {
		conditions = append(conditions, fmt.Sprintf("bl.isbn ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.ISBN))
		argIndex++
	}

	if q.Card != "" {
		conditions = append(conditions, fmt.Sprintf("bl.card_id ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Card))
		argIndex++
	}

	if q.Borrower != "" {
		conditions = append(conditions, fmt.Sprintf("br.bname ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Borrower))
		argIndex++
	}

	if q.Title != "" {
		conditions = append(conditions, fmt.Sprintf("b.title ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Title))
		argIndex++
	}

	if q.Author != "" {
		conditions = append(conditions, fmt.Sprintf("a.name ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Author))
		argIndex++
	}

	if q.AnyTerm != "" {
		anyOf := []string{
			fmt.Sprintf("bl.loan_id::text ILIKE $%d", argIndex),
			fmt.Sprintf("b.title ILIKE $%d", argIndex+1),
			fmt.Sprintf("bl.isbn ILIKE $%d", argIndex+2),
			fmt.Sprintf("bl.card_id ILIKE $%d", argIndex+3),
			fmt.Sprintf("br.bname ILIKE $%d", argIndex+4),
		}
		conditions = append(conditions, "("+utils.JoinWithOr(anyOf)+")")
		pattern := utils.LikePattern(q.AnyTerm)
		args = append(args, pattern, pattern, pattern, pattern, pattern)
		argIndex += 5
	}

	switch q.LoanIs {
	case query.LoanActive:
		conditions = append(conditions, "bl.date_in IS NULL")
	case query.LoanReturned:
		conditions = append(conditions, "bl.date_in IS NOT NULL")
	}

	switch q.FineIs {
	case query.FineOwed:
		conditions = append(conditions, "(f.fine_amt > 0 AND f.paid = FALSE)")
	case query.FinePaid:
		conditions = append(conditions, "f.paid = TRUE")
	}

	switch q.Due {
	case query.DuePast:
		// Past due only while the book is still out; a late return
		// stops being "past due" once it comes back.
		conditions = append(conditions, "(bl.due_date < CURRENT_DATE AND bl.date_in IS NULL)")
	case query.DueFuture:
		conditions = append(conditions, "bl.due_date >= CURRENT_DATE")
	}

	return utils.JoinWithAnd(conditions), args
}

func loanOrderClause(q query.Query) string {
	direction := q.Direction()

	switch q.Sort {
	case "loan_id":
		return " ORDER BY bl.loan_id " + direction
	case "date_out":
		return " ORDER BY bl.date_out " + direction
	case "due_date":
		return " ORDER BY bl.due_date " + direction
	case "date_in":
		return " ORDER BY bl.date_in " + direction
	case "card_id", "card":
		return " ORDER BY bl.card_id " + direction
	case "borrower":
		return " ORDER BY br.bname " + direction
	case "isbn":
		return " ORDER BY bl.isbn " + direction
	case "title":
		return " ORDER BY b.title " + direction
	case "fine_amt":
		// The loan queries group by loan; the fine row is at most one
		// per loan, so the aggregate picks it unchanged.
		return " ORDER BY MAX(f.fine_amt) " + direction
	case "":
		return " ORDER BY bl.loan_id DESC"
	default:
		return " ORDER BY bl.loan_id " + direction
	}
}

func buildFineWhere(q query.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if q.LoanID != "" {
		conditions = append(conditions, fmt.Sprintf("f.loan_id::text = $%d", argIndex))
		args = append(args, q.LoanID)
		argIndex++
	}

	if q.Card != "" {
		conditions = append(conditions, fmt.Sprintf("bl.card_id ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Card))
		argIndex++
	}

	if q.Borrower != "" {
		conditions = append(conditions, fmt.Sprintf("br.bname ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Borrower))
		argIndex++
	}

	if q.ISBN != "" {
		conditions = append(conditions, fmt.Sprintf("bl.isbn ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.ISBN))
		argIndex++
	}

	if q.Title != "" {
		conditions = append(conditions, fmt.Sprintf("b.title ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Title))
		argIndex++
	}

	if q.AnyTerm != "" {
		anyOf := []string{
			fmt.Sprintf("f.loan_id::text ILIKE $%d", argIndex),
			fmt.Sprintf("b.title ILIKE $%d", argIndex+1),
			fmt.Sprintf("bl.isbn ILIKE $%d", argIndex+2),
			fmt.Sprintf("bl.card_id ILIKE $%d", argIndex+3),
			fmt.Sprintf("br.bname ILIKE $%d", argIndex+4),
		}
		conditions = append(conditions, "("+utils.JoinWithOr(anyOf)+")")
		pattern := utils.LikePattern(q.AnyTerm)
		args = append(args, pattern, pattern, pattern, pattern, pattern)
		argIndex += 5
	}

	switch q.FineIs {
	case query.FineOwed:
		conditions = append(conditions, "(f.fine_amt > 0 AND f.paid = FALSE)")
	case query.FinePaid:
		conditions = append(conditions, "f.paid = TRUE")
	}

	return utils.JoinWithAnd(conditions), args
}

func fineOrderClause(q query.Query) string {
	direction := q.Direction()

	switch q.Sort {
	case "loan_id":
		return " ORDER BY f.loan_id " + direction
	case "fine_amt", "amount":
		return " ORDER BY f.fine_amt " + direction
	case "card_id":
		return " ORDER BY bl.card_id " + direction
	case "":
		return " ORDER BY f.loan_id ASC"
	default:
		return " ORDER BY f.loan_id " + direction
	}
}
