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

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/query"
	"library-backend/internal/shared/errs"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/cache"
	pkgdb "library-backend/pkg/database"
	"library-backend/pkg/logger"
)

const (
	bookCacheTTL    = 10 * time.Minute
	bookCachePrefix = "book:"
)

// postgresRepository - raw SQL with pgxpool
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) RepositoryInterface {
	return &postgresRepository{pool: pool, cache: cache}
}

// uniqueViolation is the postgres error code for duplicate keys.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ============================================
// CREATE
// ============================================

func (r *postgresRepository) CreateBook(ctx context.Context, book *model.Book) error {
	err := pkgdb.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO books (isbn, title) VALUES ($1, $2)`,
			book.ISBN, book.Title,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.Conflict("book with ISBN %s already exists", book.ISBN)
			}
			return fmt.Errorf("insert book: %w", err)
		}

		for _, name := range book.Authors {
			var authorID int64
			err := tx.QueryRow(ctx,
				`SELECT author_id FROM authors WHERE name = $1`, name,
			).Scan(&authorID)
			if errors.Is(err, pgx.ErrNoRows) {
				err = tx.QueryRow(ctx,
					`INSERT INTO authors (name) VALUES ($1) RETURNING author_id`, name,
				).Scan(&authorID)
			}
			if err != nil {
				return fmt.Errorf("resolve author %q: %w", name, err)
			}

			if _, err := tx.Exec(ctx,
				`INSERT INTO book_authors (isbn, author_id) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				book.ISBN, authorID,
			); err != nil {
				return fmt.Errorf("link author %q: %w", name, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	// Fresh entry invalidates whatever the cache held under that ISBN.
	if cacheErr := r.cache.Delete(ctx, bookCachePrefix+book.ISBN); cacheErr != nil {
		logger.Warn("book cache invalidation failed", map[string]interface{}{
			"isbn":  book.ISBN,
			"error": cacheErr.Error(),
		})
	}

	return nil
}

// ============================================
// GET BY ISBN (read-through cache)
// ============================================

func (r *postgresRepository) GetByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	cacheKey := bookCachePrefix + isbn

	var cached model.Book
	if found, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	q := `
		SELECT
			b.isbn,
			b.title,
			COALESCE(array_agg(DISTINCT a.name ORDER BY a.name)
				FILTER (WHERE a.name IS NOT NULL), '{}') AS authors
		FROM books b
		LEFT JOIN book_authors ba ON b.isbn = ba.isbn
		LEFT JOIN authors a ON ba.author_id = a.author_id
		WHERE b.isbn = $1
		GROUP BY b.isbn, b.title
	`

	var book model.Book
	err := r.pool.QueryRow(ctx, q, isbn).Scan(&book.ISBN, &book.Title, pq.Array(&book.Authors))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFound("book with ISBN %s does not exist", isbn)
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	if cacheErr := r.cache.Set(ctx, cacheKey, book, bookCacheTTL); cacheErr != nil {
		logger.Warn("book cache write failed", map[string]interface{}{
			"isbn":  isbn,
			"error": cacheErr.Error(),
		})
	}

	return &book, nil
}

func (r *postgresRepository) Exists(ctx context.Context, isbn string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE isbn = $1)`, isbn,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check book exists: %w", err)
	}
	return exists, nil
}

// ============================================
// SEARCH BOOKS
// ============================================

func (r *postgresRepository) SearchBooks(ctx context.Context, q query.Query) (query.Results[model.Book], error) {
	whereClause, args := buildBookWhere(q)

	countQuery := fmt.Sprintf(`
		SELECT COUNT(DISTINCT b.isbn)
		FROM books b
		LEFT JOIN book_authors ba ON b.isbn = ba.isbn
		LEFT JOIN authors a ON ba.author_id = a.author_id
		WHERE %s
	`, whereClause)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return query.Results[model.Book]{}, fmt.Errorf("count books: %w", err)
	}

	mainQuery := fmt.Sprintf(`
		SELECT
			b.isbn,
			b.title,
			COALESCE(array_agg(DISTINCT a.name ORDER BY a.name)
				FILTER (WHERE a.name IS NOT NULL), '{}') AS authors
		FROM books b
		LEFT JOIN book_authors ba ON b.isbn = ba.isbn
		LEFT JOIN authors a ON ba.author_id = a.author_id
		WHERE %s
		GROUP BY b.isbn, b.title
	`, whereClause)

	mainQuery += bookOrderClause(q)

	if q.Limit != nil {
		mainQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, *q.Limit, q.Offset())
	}

	rows, err := r.pool.Query(ctx, mainQuery, args...)
	if err != nil {
		return query.Results[model.Book]{}, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ISBN, &b.Title, pq.Array(&b.Authors)); err != nil {
			return query.Results[model.Book]{}, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return query.Results[model.Book]{}, fmt.Errorf("rows error: %w", err)
	}

	return query.NewResults(books, total, q), nil
}

// ============================================
// SEARCH BOOKS WITH LOAN STATUS
// ============================================

func (r *postgresRepository) SearchBooksWithLoan(ctx context.Context, q query.Query) (query.Results[model.BookWithLoan], error) {
	whereClause, args := buildBookWhere(q)

	// Availability filter rides on the active-loan left join.
	if q.Available != nil {
		if *q.Available {
			whereClause += " AND bl.loan_id IS NULL"
		} else {
			whereClause += " AND bl.loan_id IS NOT NULL"
		}
	}

	fromClause := `
		FROM books b
		LEFT JOIN book_authors ba ON b.isbn = ba.isbn
		LEFT JOIN authors a ON ba.author_id = a.author_id
		LEFT JOIN (
			SELECT * FROM book_loans WHERE date_in IS NULL
		) bl ON b.isbn = bl.isbn
		LEFT JOIN fines f ON bl.loan_id = f.loan_id
	`

	countQuery := fmt.Sprintf(`SELECT COUNT(DISTINCT b.isbn) %s WHERE %s`, fromClause, whereClause)

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return query.Results[model.BookWithLoan]{}, fmt.Errorf("count books with loan: %w", err)
	}

	mainQuery := fmt.Sprintf(`
		SELECT
			b.isbn,
			b.title,
			COALESCE(array_agg(DISTINCT a.name ORDER BY a.name)
				FILTER (WHERE a.name IS NOT NULL), '{}') AS authors,
			bl.loan_id,
			bl.card_id,
			bl.date_out,
			bl.due_date,
			bl.date_in,
			COALESCE(f.fine_amt, 0) AS fine_amt,
			COALESCE(f.paid, FALSE) AS paid
		%s
		WHERE %s
		GROUP BY b.isbn, b.title, bl.loan_id, bl.card_id, bl.date_out,
		         bl.due_date, bl.date_in, f.fine_amt, f.paid
	`, fromClause, whereClause)

	mainQuery += bookOrderClause(q)

	if q.Limit != nil {
		mainQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, *q.Limit, q.Offset())
	}

	rows, err := r.pool.Query(ctx, mainQuery, args...)
	if err != nil {
		return query.Results[model.BookWithLoan]{}, fmt.Errorf("search books with loan: %w", err)
	}
	defer rows.Close()

	results := []model.BookWithLoan{}
	for rows.Next() {
		var (
			b       model.Book
			loanID  *int64
			cardID  *string
			dateOut *time.Time
			dueDate *time.Time
			dateIn  *time.Time
			info    model.LoanInfo
		)
		err := rows.Scan(
			&b.ISBN, &b.Title, pq.Array(&b.Authors),
			&loanID, &cardID, &dateOut, &dueDate, &dateIn,
			&info.FineAmt, &info.Paid,
		)
		if err != nil {
			return query.Results[model.BookWithLoan]{}, fmt.Errorf("scan book with loan: %w", err)
		}

		item := model.BookWithLoan{Book: b}
		if loanID != nil {
			info.LoanID = fmt.Sprintf("%d", *loanID)
			info.CardID = *cardID
			info.DateOut = *dateOut
			info.DueDate = *dueDate
			info.DateIn = dateIn
			item.Loan = &info
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return query.Results[model.BookWithLoan]{}, fmt.Errorf("rows error: %w", err)
	}

	return query.NewResults(results, total, q), nil
}

// ============================================
// HELPERS
// ============================================

// buildBookWhere translates the query's book filters into a WHERE
// clause. Every text filter is a case-insensitive substring match.
func buildBookWhere(q query.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if q.ISBN != "" {
		conditions = append(conditions, fmt.Sprintf("b.isbn ILIKE $%d", argIndex))
		args = append(args, utils.LikePattern(q.ISBN))
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
			fmt.Sprintf("b.title ILIKE $%d", argIndex),
			fmt.Sprintf("b.isbn ILIKE $%d", argIndex+1),
			fmt.Sprintf("a.name ILIKE $%d", argIndex+2),
		}
		conditions = append(conditions, "("+utils.JoinWithOr(anyOf)+")")
		pattern := utils.LikePattern(q.AnyTerm)
		args = append(args, pattern, pattern, pattern)
		argIndex += 3
	}

	return utils.JoinWithAnd(conditions), args
}

// bookOrderClause maps the sort keyword onto the whitelisted book
// columns. Unrecognized values fall back to title.
func bookOrderClause(q query.Query) string {
	direction := q.Direction()

	switch q.Sort {
	case "isbn":
		return " ORDER BY b.isbn " + direction
	case "title":
		return " ORDER BY b.title " + direction
	case "author":
		return " ORDER BY authors " + direction
	case "":
		return " ORDER BY b.title ASC"
	default:
		return " ORDER BY b.title " + direction
	}
}
