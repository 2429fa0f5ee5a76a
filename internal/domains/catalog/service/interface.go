package service

import (
	"context"

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/query"
)

// ServiceInterface - catalog business logic contract
type ServiceInterface interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest) (*model.Book, error)
	GetBook(ctx context.Context, isbn string) (*model.Book, error)
	SearchBooks(ctx context.Context, q query.Query) (query.Results[model.Book], error)
	SearchBooksWithLoan(ctx context.Context, q query.Query) (query.Results[model.BookWithLoan], error)
}
