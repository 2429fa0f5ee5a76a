package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"library-backend/internal/domains/loan/model"
	"library-backend/internal/query"
)

// ServiceInterface - loan and fine business logic contract
type ServiceInterface interface {
	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.LoanWithFine, error)
	Checkin(ctx context.Context, loanID int64) (*model.LoanWithFine, error)

	SearchLoans(ctx context.Context, q query.Query) (query.Results[model.Loan], error)
	SearchLoansWithBooks(ctx context.Context, q query.Query) (query.Results[model.LoanWithBook], error)

	SearchFines(ctx context.Context, q query.Query) (query.Results[model.FineDetail], error)
	FineSummary(ctx context.Context) (*model.FineSummary, error)
	UserFines(ctx context.Context, cardID string, includePaid bool) (decimal.Decimal, error)
	Fines(ctx context.Context, cardIDs []string, includePaid bool) ([]model.LoanWithFine, error)
	FinesGrouped(ctx context.Context, cardIDs []string, includePaid bool) (map[string]decimal.Decimal, error)
	SweepFines(ctx context.Context, asOf time.Time) (int, error)
	PayLoanFine(ctx context.Context, loanID int64) error
	// PayBorrowerFines settles all of a borrower's payable fines and
	// returns the affected loans, empty when nothing was owed.
	PayBorrowerFines(ctx context.Context, cardID string) ([]model.LoanWithFine, error)
}
