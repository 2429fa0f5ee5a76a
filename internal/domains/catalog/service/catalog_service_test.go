package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/domains/catalog/model"
	"library-backend/internal/query"
	"library-backend/internal/shared/errs"
)

type fakeRepo struct {
	books   map[string]*model.Book
	created []*model.Book
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{books: map[string]*model.Book{}}
}

func (f *fakeRepo) CreateBook(ctx context.Context, book *model.Book) error {
	f.books[book.ISBN] = book
	f.created = append(f.created, book)
	return nil
}

func (f *fakeRepo) GetByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	book, ok := f.books[isbn]
	if !ok {
		return nil, errs.NotFound("book with ISBN %s does not exist", isbn)
	}
	return book, nil
}

func (f *fakeRepo) Exists(ctx context.Context, isbn string) (bool, error) {
	_, ok := f.books[isbn]
	return ok, nil
}

func (f *fakeRepo) SearchBooks(ctx context.Context, q query.Query) (query.Results[model.Book], error) {
	return query.Results[model.Book]{}, nil
}

func (f *fakeRepo) SearchBooksWithLoan(ctx context.Context, q query.Query) (query.Results[model.BookWithLoan], error) {
	return query.Results[model.BookWithLoan]{}, nil
}

func TestCreateBook(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	book, err := svc.CreateBook(context.Background(), model.CreateBookRequest{
		ISBN:    "9780140328721",
		Title:   "Fantastic Mr Fox",
		Authors: []string{"Roald Dahl"},
	})
	require.NoError(t, err)
	assert.Equal(t, "9780140328721", book.ISBN)
	assert.Equal(t, []string{"Roald Dahl"}, book.Authors)
}

func TestCreateBookDuplicateISBN(t *testing.T) {
	repo := newFakeRepo()
	repo.books["9780140328721"] = &model.Book{ISBN: "9780140328721", Title: "Fantastic Mr Fox"}
	svc := NewService(repo)

	_, err := svc.CreateBook(context.Background(), model.CreateBookRequest{
		ISBN:  "9780140328721",
		Title: "Another Title",
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestCreateBookValidation(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateBook(context.Background(), model.CreateBookRequest{Title: "No ISBN"})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalid, errs.KindOf(err))

	_, err = svc.CreateBook(context.Background(), model.CreateBookRequest{ISBN: "123"})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalid, errs.KindOf(err))
}

// Author lists arrive messy: duplicates and stray whitespace are
// cleaned up before they hit storage.
func TestCreateBookDeduplicatesAuthors(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	book, err := svc.CreateBook(context.Background(), model.CreateBookRequest{
		ISBN:    "9780261103566",
		Title:   "The Lord of the Rings",
		Authors: []string{" J.R.R. Tolkien ", "J.R.R. Tolkien", "", "Christopher Tolkien"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"J.R.R. Tolkien", "Christopher Tolkien"}, book.Authors)
}

func TestGetBookNotFound(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.GetBook(context.Background(), "0000000000")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}
