package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/borrower/model"
	"library-backend/internal/query"
	"library-backend/internal/shared/errs"
	"library-backend/internal/shared/utils"
	pkgdb "library-backend/pkg/database"
)

// postgresRepository - raw SQL with pgxpool
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

const uniqueViolation = "23505"

// cardIDSequence is the id_sequences row backing card numbers.
const cardIDSequence = "card_id"

// ============================================
// CREATE (card ID allocation + insert, one tx)
// ============================================

func (r *postgresRepository) Create(ctx context.Context, borrower *model.Borrower) error {
	return pkgdb.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		// The UPDATE takes a row lock, so concurrent registrations
		// serialize here and every caller sees a distinct value.
		var next int64
		err := tx.QueryRow(ctx,
			`UPDATE id_sequences SET last_value = last_value + 1
			 WHERE name = $1 RETURNING last_value`,
			cardIDSequence,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("allocate card id: %w", err)
		}

		borrower.CardID = fmt.Sprintf("ID%06d", next)

		_, err = tx.Exec(ctx,
			`INSERT INTO borrowers (card_id, ssn, bname, address, phone)
			 VALUES ($1, $2, $3, $4, $5)`,
			borrower.CardID, borrower.SSN, borrower.Name, borrower.Address, borrower.Phone,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return errs.Conflict("borrower with SSN %s already exists", borrower.SSN)
			}
			return fmt.Errorf("insert borrower: %w", err)
		}

		return nil
	})
}

func (r *postgresRepository) GetByCardID(ctx context.Context, cardID string) (*model.Borrower, error) {
	var b model.Borrower
	err := r.pool.QueryRow(ctx,
		`SELECT card_id, ssn, bname, address, phone FROM borrowers WHERE card_id = $1`,
		cardID,
	).Scan(&b.CardID, &b.SSN, &b.Name, &b.Address, &b.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("borrower with card ID %s does not exist", cardID)
	}
	if err != nil {
		return nil, fmt.Errorf("get borrower: %w", err)
	}
	return &b, nil
}

func (r *postgresRepository) Exists(ctx context.Context, cardID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM borrowers WHERE card_id = $1)`, cardID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check borrower exists: %w", err)
	}
	return exists, nil
}

// ============================================
// SEARCH
// ============================================

func (r *postgresRepository) SearchBorrowers(ctx context.Context, q query.Query) (query.Results[model.Borrower], error) {
	whereClause, args := buildBorrowerWhere(q)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM borrowers br WHERE %s`, whereClause)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return query.Results[model.Borrower]{}, fmt.Errorf("count borrowers: %w", err)
	}

	mainQuery := fmt.Sprintf(`
		SELECT br.card_id, br.ssn, br.bname, br.address, br.phone
		FROM borrowers br
		WHERE %s
	`, whereClause)

	mainQuery += borrowerOrderClause(q, false)

	if q.Limit != nil {
		mainQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, *q.Limit, q.Offset())
	}

	rows, err := r.pool.Query(ctx, mainQuery, args...)
	if err != nil {
		return query.Results[model.Borrower]{}, fmt.Errorf("search borrowers: %w", err)
	}
	defer rows.Close()

	borrowers := []model.Borrower{}
	for rows.Next() {
		var b model.Borrower
		if err := rows.Scan(&b.CardID, &b.SSN, &b.Name, &b.Address, &b.Phone); err != nil {
			return query.Results[model.Borrower]{}, fmt.Errorf("scan borrower: %w", err)
		}
		borrowers = append(borrowers, b)
	}
	if err := rows.Err(); err != nil {
		return query.Results[model.Borrower]{}, fmt.Errorf("rows error: %w", err)
	}

	return query.NewResults(borrowers, total, q), nil
}

func (r *postgresRepository) SearchBorrowersWithFines(ctx context.Context, cardID string, q query.Query) (query.Results[model.BorrowerFines], error) {
	if cardID != "" {
		// The pinned card is exact and wins over any card filter.
		q.Card = ""
	}
	whereClause, args := buildBorrowerWhere(q)
	if cardID != "" {
		args = append(args, cardID)
		whereClause += fmt.Sprintf(" AND br.card_id = $%d", len(args))
	}

	// Fine status narrows to borrowers who actually carry a balance
	// of the requested kind.
	having := ""
	switch q.FineIs {
	case query.FineOwed:
		having = " HAVING COALESCE(SUM(f.fine_amt) FILTER (WHERE NOT f.paid), 0) > 0"
	case query.FinePaid:
		having = " HAVING COALESCE(SUM(f.fine_amt) FILTER (WHERE f.paid), 0) > 0"
	}

	fromClause := `
		FROM borrowers br
		LEFT JOIN book_loans bl ON br.card_id = bl.card_id
		LEFT JOIN fines f ON bl.loan_id = f.loan_id
	`

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM (
			SELECT br.card_id %s WHERE %s GROUP BY br.card_id%s
		) sub
	`, fromClause, whereClause, having)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return query.Results[model.BorrowerFines]{}, fmt.Errorf("count borrower fines: %w", err)
	}

	mainQuery := fmt.Sprintf(`
		SELECT
			br.card_id, br.ssn, br.bname, br.address, br.phone,
			COALESCE(SUM(f.fine_amt) FILTER (WHERE NOT f.paid), 0) AS unpaid_total,
			COUNT(f.loan_id) FILTER (WHERE NOT f.paid) AS unpaid_count,
			COALESCE(SUM(f.fine_amt) FILTER (WHERE f.paid), 0) AS paid_total
		%s
		WHERE %s
		GROUP BY br.card_id, br.ssn, br.bname, br.address, br.phone%s
	`, fromClause, whereClause, having)

	mainQuery += borrowerOrderClause(q, true)

	if q.Limit != nil {
		mainQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, *q.Limit, q.Offset())
	}

	rows, err := r.pool.Query(ctx, mainQuery, args...)
	if err != nil {
		return query.Results[model.BorrowerFines]{}, fmt.Errorf("search borrower fines: %w", err)
	}
	defer rows.Close()

	results := []model.BorrowerFines{}
	for rows.Next() {
		var bf model.BorrowerFines
		err := rows.Scan(
			&bf.CardID, &bf.SSN, &bf.Name, &bf.Address, &bf.Phone,
			&bf.UnpaidTotal, &bf.UnpaidCount, &bf.PaidTotal,
		)
		if err != nil {
			return query.Results[model.BorrowerFines]{}, fmt.Errorf("scan borrower fines: %w", err)
		}
		results = append(results, bf)
	}
	if err := rows.Err(); err != nil {
		return query.Results[model.BorrowerFines]{}, fmt.Errorf("rows error: %w", err)
	}

	return query.NewResults(results, total, q), nil
}

// ============================================
// HELPERS
// ============================================

func buildBorrowerWhere(q query.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if q.Borrower != "" {
		conditions = append(conditions, fmt.Sprintf("br.bname ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Borrower))
		argIndex++
	}

	if q.Card != "" {
		conditions = append(conditions, fmt.Sprintf("br.card_id ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Card))
		argIndex++
	}

	if q.Phone != "" {
		conditions = append(conditions, fmt.Sprintf("br.phone ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.Phone))
		argIndex++
	}

	if q.AnyTerm != "" {
		anyOf := []string{
			fmt.Sprintf("br.card_id ILIKE $%d", argIndex),
			fmt.Sprintf("br.bname ILIKE $%d", argIndex+1),
			fmt.Sprintf("br.address ILIKE $%d", argIndex+2),
			fmt.Sprintf("br.phone ILIKE $%d", argIndex+3),
			fmt.Sprintf("br.ssn ILIKE $%d", argIndex+4),
		}
		conditions = append(conditions, "("+utils.JoinWithOr(anyOf)+")")
		pattern := utils.LikePattern(q.AnyTerm)
		args = append(args, pattern, pattern, pattern, pattern, pattern)
		argIndex += 5
	}

	return utils.JoinWithAnd(conditions), args
}

// withFines enables the fine-total sort, which only exists on the
// aggregated search.
func borrowerOrderClause(q query.Query, withFines bool) string {
	direction := q.Direction()

	switch q.Sort {
	case "card_id", "card":
		return " ORDER BY br.card_id " + direction
	case "borrower", "name":
		return " ORDER BY br.bname " + direction
	case "phone":
		return " ORDER BY br.phone " + direction
	case "address":
		return " ORDER BY br.address " + direction
	case "fine_amt", "fines":
		if withFines {
			return " ORDER BY unpaid_total " + direction
		}
		return " ORDER BY br.card_id " + direction
	case "":
		return " ORDER BY br.card_id ASC"
	default:
		return " ORDER BY br.card_id " + direction
	}
}
