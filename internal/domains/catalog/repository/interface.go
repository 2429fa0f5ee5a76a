package repository

import (
	"context"

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/query"
)

// RepositoryInterface is the catalog data access contract.
type RepositoryInterface interface {
	// CreateBook inserts the book, creating missing authors and join
	// rows in one transaction. Duplicate ISBN is a Conflict.
	CreateBook(ctx context.Context, book *model.Book) error

	// GetByISBN returns a single book or NotFound.
	GetByISBN(ctx context.Context, isbn string) (*model.Book, error)

	// Exists reports whether a book with the ISBN is in the catalog.
	Exists(ctx context.Context, isbn string) (bool, error)

	// SearchBooks filters, sorts, and paginates the catalog.
	SearchBooks(ctx context.Context, q query.Query) (query.Results[model.Book], error)

	// SearchBooksWithLoan joins each book against its active loan.
	SearchBooksWithLoan(ctx context.Context, q query.Query) (query.Results[model.BookWithLoan], error)
}
