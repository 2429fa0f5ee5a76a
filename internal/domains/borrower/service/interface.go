package service

import (
	"context"

	"library-backend/internal/domains/borrower/model"
	"library-backend/internal/query"
)

// ServiceInterface - borrower business logic contract
type ServiceInterface interface {
	CreateBorrower(ctx context.Context, req model.CreateBorrowerRequest) (*model.Borrower, error)
	GetBorrower(ctx context.Context, cardID string) (*model.Borrower, error)
	SearchBorrowers(ctx context.Context, q query.Query) (query.Results[model.Borrower], error)
	SearchBorrowersWithFines(ctx context.Context, cardID string, q query.Query) (query.Results[model.BorrowerFines], error)
}
