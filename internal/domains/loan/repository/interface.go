package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"library-backend/internal/domains/loan/model"
	"library-backend/internal/query"
)

// RepositoryInterface - loan and fine data access contract
type RepositoryInterface interface {
	// Checkout inserts an active loan. The database enforces the
	// one-active-loan-per-book rule, so a concurrent duplicate
	// surfaces here as a conflict.
	Checkout(ctx context.Context, isbn, cardID string, dateOut, dueDate time.Time) (*model.Loan, error)
	GetByID(ctx context.Context, loanID int64) (*model.Loan, error)
	// Checkin stamps date_in on an active loan. Returns false when
	// the loan was already returned.
	Checkin(ctx context.Context, loanID int64, dateIn time.Time) (bool, error)

	IsBookOnLoan(ctx context.Context, isbn string) (bool, error)
	CountActiveLoans(ctx context.Context, cardID string) (int, error)
	HasUnpaidFines(ctx context.Context, cardID string) (bool, error)

	SearchLoans(ctx context.Context, q query.Query) (query.Results[model.Loan], error)
	SearchLoansWithBooks(ctx context.Context, q query.Query) (query.Results[model.LoanWithBook], error)

	// GetFine returns the fine on a loan, or a zero unpaid fine when
	// none has been recorded.
	GetFine(ctx context.Context, loanID int64) (model.Fine, error)
	SearchFines(ctx context.Context, q query.Query) (query.Results[model.FineDetail], error)
	FineSummary(ctx context.Context) (*model.FineSummary, error)
	// UserFines totals one borrower's fines, unpaid only unless
	// includePaid is set.
	UserFines(ctx context.Context, cardID string, includePaid bool) (decimal.Decimal, error)
	// Fines lists loans carrying a positive fine. An empty cardIDs
	// slice means all borrowers.
	Fines(ctx context.Context, cardIDs []string, includePaid bool) ([]model.LoanWithFine, error)
	// FinesGrouped totals positive fines per card ID.
	FinesGrouped(ctx context.Context, cardIDs []string, includePaid bool) (map[string]decimal.Decimal, error)
	// UpdateFines recomputes overdue charges as of the given date,
	// upserting unpaid fines and never touching paid ones. Returns
	// the number of fines written.
	UpdateFines(ctx context.Context, asOf time.Time) (int, error)
	PayLoanFine(ctx context.Context, loanID int64) error
	// PayBorrowerFines settles every payable fine for the card and
	// returns the loans it touched, empty when nothing was owed.
	PayBorrowerFines(ctx context.Context, cardID string) ([]model.LoanWithFine, error)
}
