package service

import (
	"context"
	"strings"

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/catalog/repository"
	"library-backend/internal/query"
	"library-backend/internal/shared/errs"
	"library-backend/pkg/logger"
)

// CatalogService - Implements ServiceInterface
type CatalogService struct {
	repo repository.RepositoryInterface
}

// NewService - Constructor with DI
func NewService(repo repository.RepositoryInterface) ServiceInterface {
	return &CatalogService{repo: repo}
}

// CreateBook registers a book and its authors. Author names are
// deduplicated case-sensitively after trimming whitespace.
func (s *CatalogService) CreateBook(ctx context.Context, req model.CreateBookRequest) (*model.Book, error) {
	if err := req.Validate(); err != nil {
		return nil, errs.Invalid("%s", err.Error())
	}

	exists, err := s.repo.Exists(ctx, req.ISBN)
	if err != nil {
		return nil, errs.Internal(err, "failed to check ISBN")
	}
	if exists {
		return nil, errs.Conflict("book with ISBN %s already exists", req.ISBN)
	}

	seen := map[string]bool{}
	authors := []string{}
	for _, name := range req.Authors {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		authors = append(authors, name)
	}

	book := &model.Book{
		ISBN:    strings.TrimSpace(req.ISBN),
		Title:   strings.TrimSpace(req.Title),
		Authors: authors,
	}

	if err := s.repo.CreateBook(ctx, book); err != nil {
		if errs.KindOf(err) != errs.KindInternal {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to create book")
	}

	logger.Info("book created", map[string]interface{}{
		"isbn":    book.ISBN,
		"authors": len(book.Authors),
	})

	return book, nil
}

func (s *CatalogService) GetBook(ctx context.Context, isbn string) (*model.Book, error) {
	book, err := s.repo.GetByISBN(ctx, isbn)
	if err != nil {
		if errs.KindOf(err) != errs.KindInternal {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get book")
	}
	return book, nil
}

func (s *CatalogService) SearchBooks(ctx context.Context, q query.Query) (query.Results[model.Book], error) {
	results, err := s.repo.SearchBooks(ctx, q)
	if err != nil {
		return query.Results[model.Book]{}, errs.Internal(err, "failed to search books")
	}
	return results, nil
}

func (s *CatalogService) SearchBooksWithLoan(ctx context.Context, q query.Query) (query.Results[model.BookWithLoan], error) {
	results, err := s.repo.SearchBooksWithLoan(ctx, q)
	if err != nil {
		return query.Results[model.BookWithLoan]{}, errs.Internal(err, "failed to search books with loans")
	}
	return results, nil
}
