package repository

import (
	"context"

	"library-backend/internal/domains/borrower/model"
	"library-backend/internal/query"
)

// RepositoryInterface - borrower data access contract
type RepositoryInterface interface {
	// Create persists the borrower, allocating a fresh card ID.
	Create(ctx context.Context, borrower *model.Borrower) error
	GetByCardID(ctx context.Context, cardID string) (*model.Borrower, error)
	Exists(ctx context.Context, cardID string) (bool, error)
	SearchBorrowers(ctx context.Context, q query.Query) (query.Results[model.Borrower], error)
	// SearchBorrowersWithFines adds fine totals to the search. A
	// non-empty cardID pins the search to that exact card, overriding
	// any card filter in the query.
	SearchBorrowersWithFines(ctx context.Context, cardID string, q query.Query) (query.Results[model.BorrowerFines], error)
}
