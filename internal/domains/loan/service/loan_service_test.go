package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	borrowerModel "library-backend/internal/domains/borrower/model"
	catalogModel "library-backend/internal/domains/catalog/model"
	"library-backend/internal/domains/loan/model"
	"library-backend/internal/query"
	"library-backend/internal/shared/errs"
)

// ============================================
// FAKES
// ============================================

type fakeLoanRepo struct {
	loans      map[int64]*model.Loan
	fines      map[int64]*model.Fine
	nextLoanID int64
	onLoan     map[string]bool
	active     map[string]int
	unpaid     map[string]bool
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{
		loans:      map[int64]*model.Loan{},
		fines:      map[int64]*model.Fine{},
		nextLoanID: 1,
		onLoan:     map[string]bool{},
		active:     map[string]int{},
		unpaid:     map[string]bool{},
	}
}

func (f *fakeLoanRepo) Checkout(ctx context.Context, isbn, cardID string, dateOut, dueDate time.Time) (*model.Loan, error) {
	if f.onLoan[isbn] {
		return nil, errs.Conflict("book %s is already checked out", isbn)
	}
	loan := &model.Loan{
		LoanID:  f.nextLoanID,
		ISBN:    isbn,
		CardID:  cardID,
		DateOut: dateOut,
		DueDate: dueDate,
	}
	f.loans[loan.LoanID] = loan
	f.nextLoanID++
	f.onLoan[isbn] = true
	f.active[cardID]++
	return loan, nil
}

func (f *fakeLoanRepo) GetByID(ctx context.Context, loanID int64) (*model.Loan, error) {
	loan, ok := f.loans[loanID]
	if !ok {
		return nil, errs.NotFound("loan %d does not exist", loanID)
	}
	cp := *loan
	return &cp, nil
}

func (f *fakeLoanRepo) Checkin(ctx context.Context, loanID int64, dateIn time.Time) (bool, error) {
	loan, ok := f.loans[loanID]
	if !ok || loan.DateIn != nil {
		return false, nil
	}
	loan.DateIn = &dateIn
	f.onLoan[loan.ISBN] = false
	f.active[loan.CardID]--
	return true, nil
}

func (f *fakeLoanRepo) IsBookOnLoan(ctx context.Context, isbn string) (bool, error) {
	return f.onLoan[isbn], nil
}

func (f *fakeLoanRepo) CountActiveLoans(ctx context.Context, cardID string) (int, error) {
	return f.active[cardID], nil
}

func (f *fakeLoanRepo) HasUnpaidFines(ctx context.Context, cardID string) (bool, error) {
	if f.unpaid[cardID] {
		return true, nil
	}
	for loanID, fine := range f.fines {
		if !fine.Paid && fine.FineAmt.IsPositive() && f.loans[loanID].CardID == cardID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLoanRepo) SearchLoans(ctx context.Context, q query.Query) (query.Results[model.Loan], error) {
	return query.Results[model.Loan]{}, nil
}

func (f *fakeLoanRepo) SearchLoansWithBooks(ctx context.Context, q query.Query) (query.Results[model.LoanWithBook], error) {
	return query.Results[model.LoanWithBook]{}, nil
}

func (f *fakeLoanRepo) SearchFines(ctx context.Context, q query.Query) (query.Results[model.FineDetail], error) {
	return query.Results[model.FineDetail]{}, nil
}

func (f *fakeLoanRepo) FineSummary(ctx context.Context) (*model.FineSummary, error) {
	return &model.FineSummary{}, nil
}

func (f *fakeLoanRepo) UpdateFines(ctx context.Context, asOf time.Time) (int, error) {
	updated := 0
	for id, loan := range f.loans {
		overdue := (loan.DateIn != nil && loan.DateIn.After(loan.DueDate)) ||
			(loan.DateIn == nil && loan.DueDate.Before(asOf))
		if !overdue {
			continue
		}
		if existing, ok := f.fines[id]; ok && existing.Paid {
			continue
		}
		amt := model.FineFor(loan.DueDate, loan.DateIn, asOf)
		f.fines[id] = &model.Fine{LoanID: id, FineAmt: amt}
		updated++
	}
	return updated, nil
}

func (f *fakeLoanRepo) PayLoanFine(ctx context.Context, loanID int64) error {
	fine, ok := f.fines[loanID]
	if !ok || !fine.FineAmt.IsPositive() {
		if _, exists := f.loans[loanID]; !exists {
			return errs.NotFound("loan %d does not exist", loanID)
		}
		return errs.Conflict("loan %d has no fine to pay", loanID)
	}
	if fine.Paid {
		return errs.Conflict("fine on loan %d is already paid", loanID)
	}
	fine.Paid = true
	return nil
}

func (f *fakeLoanRepo) PayBorrowerFines(ctx context.Context, cardID string) ([]model.LoanWithFine, error) {
	settled := []model.LoanWithFine{}
	for loanID, fine := range f.fines {
		loan := f.loans[loanID]
		if loan.CardID != cardID || fine.Paid || !fine.FineAmt.IsPositive() {
			continue
		}
		fine.Paid = true
		settled = append(settled, model.LoanWithFine{Loan: *loan, FineAmt: fine.FineAmt, Paid: true})
	}
	f.unpaid[cardID] = false
	return settled, nil
}

func (f *fakeLoanRepo) GetFine(ctx context.Context, loanID int64) (model.Fine, error) {
	if fine, ok := f.fines[loanID]; ok {
		return *fine, nil
	}
	return model.Fine{LoanID: loanID, FineAmt: decimal.Zero}, nil
}

func (f *fakeLoanRepo) UserFines(ctx context.Context, cardID string, includePaid bool) (decimal.Decimal, error) {
	total := decimal.Zero
	for loanID, fine := range f.fines {
		if f.loans[loanID].CardID != cardID {
			continue
		}
		if fine.Paid && !includePaid {
			continue
		}
		total = total.Add(fine.FineAmt)
	}
	return total, nil
}

func (f *fakeLoanRepo) Fines(ctx context.Context, cardIDs []string, includePaid bool) ([]model.LoanWithFine, error) {
	matches := []model.LoanWithFine{}
	for loanID, fine := range f.fines {
		loan := f.loans[loanID]
		if !fine.FineAmt.IsPositive() || (fine.Paid && !includePaid) {
			continue
		}
		if len(cardIDs) > 0 && !containsCard(cardIDs, loan.CardID) {
			continue
		}
		matches = append(matches, model.LoanWithFine{Loan: *loan, FineAmt: fine.FineAmt, Paid: fine.Paid})
	}
	return matches, nil
}

func (f *fakeLoanRepo) FinesGrouped(ctx context.Context, cardIDs []string, includePaid bool) (map[string]decimal.Decimal, error) {
	loans, err := f.Fines(ctx, cardIDs, includePaid)
	if err != nil {
		return nil, err
	}
	totals := map[string]decimal.Decimal{}
	for _, lf := range loans {
		totals[lf.CardID] = totals[lf.CardID].Add(lf.FineAmt)
	}
	return totals, nil
}

func containsCard(cardIDs []string, cardID string) bool {
	for _, id := range cardIDs {
		if id == cardID {
			return true
		}
	}
	return false
}

type fakeCatalogRepo struct {
	books map[string]bool
}

func (f *fakeCatalogRepo) CreateBook(ctx context.Context, book *catalogModel.Book) error {
	return nil
}

func (f *fakeCatalogRepo) GetByISBN(ctx context.Context, isbn string) (*catalogModel.Book, error) {
	return nil, errs.NotFound("book with ISBN %s does not exist", isbn)
}

func (f *fakeCatalogRepo) Exists(ctx context.Context, isbn string) (bool, error) {
	return f.books[isbn], nil
}

func (f *fakeCatalogRepo) SearchBooks(ctx context.Context, q query.Query) (query.Results[catalogModel.Book], error) {
	return query.Results[catalogModel.Book]{}, nil
}

func (f *fakeCatalogRepo) SearchBooksWithLoan(ctx context.Context, q query.Query) (query.Results[catalogModel.BookWithLoan], error) {
	return query.Results[catalogModel.BookWithLoan]{}, nil
}

type fakeBorrowerRepo struct {
	borrowers map[string]bool
}

func (f *fakeBorrowerRepo) Create(ctx context.Context, b *borrowerModel.Borrower) error {
	return nil
}

func (f *fakeBorrowerRepo) GetByCardID(ctx context.Context, cardID string) (*borrowerModel.Borrower, error) {
	return nil, errs.NotFound("borrower with card ID %s does not exist", cardID)
}

func (f *fakeBorrowerRepo) Exists(ctx context.Context, cardID string) (bool, error) {
	return f.borrowers[cardID], nil
}

func (f *fakeBorrowerRepo) SearchBorrowers(ctx context.Context, q query.Query) (query.Results[borrowerModel.Borrower], error) {
	return query.Results[borrowerModel.Borrower]{}, nil
}

func (f *fakeBorrowerRepo) SearchBorrowersWithFines(ctx context.Context, cardID string, q query.Query) (query.Results[borrowerModel.BorrowerFines], error) {
	return query.Results[borrowerModel.BorrowerFines]{}, nil
}

// ============================================
// TEST SETUP
// ============================================

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestService() (ServiceInterface, *fakeLoanRepo, *fakeCatalogRepo, *fakeBorrowerRepo) {
	loans := newFakeLoanRepo()
	books := &fakeCatalogRepo{books: map[string]bool{"9780140328721": true}}
	borrowers := &fakeBorrowerRepo{borrowers: map[string]bool{"ID000001": true}}

	svc := NewService(loans, books, borrowers, nil, func() time.Time { return testNow })
	return svc, loans, books, borrowers
}

// ============================================
// CHECKOUT
// ============================================

func TestCheckoutSuccess(t *testing.T) {
	svc, _, _, _ := newTestService()

	loan, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.NoError(t, err)

	wantOut := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, wantOut, loan.DateOut)
	assert.Equal(t, wantOut.AddDate(0, 0, 14), loan.DueDate)
	assert.Nil(t, loan.DateIn)
	assert.True(t, loan.Active())
}

func TestCheckoutUnknownBorrower(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID999999",
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	assert.Contains(t, err.Error(), "borrower")
}

func TestCheckoutUnknownBook(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "0000000000",
		CardID: "ID000001",
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	assert.Contains(t, err.Error(), "book")
}

// Both the borrower and the book are unknown: the borrower check
// runs first, so that is the failure the caller sees.
func TestCheckoutBorrowerCheckedBeforeBook(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "0000000000",
		CardID: "ID999999",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "borrower")
}

func TestCheckoutBookAlreadyOut(t *testing.T) {
	svc, loans, _, _ := newTestService()
	loans.onLoan["9780140328721"] = true

	_, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestCheckoutBlockedByUnpaidFines(t *testing.T) {
	svc, loans, _, _ := newTestService()
	loans.unpaid["ID000001"] = true

	_, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
	assert.Contains(t, err.Error(), "unpaid fines")
}

// A borrower with unpaid fines AND a full card sees the fine error:
// fines are checked before the loan cap.
func TestCheckoutFinesCheckedBeforeCap(t *testing.T) {
	svc, loans, _, _ := newTestService()
	loans.unpaid["ID000001"] = true
	loans.active["ID000001"] = model.MaxActiveLoans

	_, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unpaid fines")
}

func TestCheckoutLoanCap(t *testing.T) {
	svc, loans, _, _ := newTestService()
	loans.active["ID000001"] = model.MaxActiveLoans

	_, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
}

func TestCheckoutValidation(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Checkout(context.Background(), model.CheckoutRequest{})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalid, errs.KindOf(err))
}

// ============================================
// CHECKIN
// ============================================

func TestCheckinSuccess(t *testing.T) {
	svc, _, _, _ := newTestService()

	loan, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.NoError(t, err)

	returned, err := svc.Checkin(context.Background(), loan.LoanID)
	require.NoError(t, err)
	require.NotNil(t, returned.DateIn)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *returned.DateIn)
	assert.False(t, returned.Active())
}

func TestCheckinUnknownLoan(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Checkin(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

// A return is terminal: checking the same loan in twice conflicts.
func TestCheckinTwice(t *testing.T) {
	svc, _, _, _ := newTestService()

	loan, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.NoError(t, err)

	_, err = svc.Checkin(context.Background(), loan.LoanID)
	require.NoError(t, err)

	_, err = svc.Checkin(context.Background(), loan.LoanID)
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

// After a return the book can circulate again.
func TestCheckoutAfterCheckin(t *testing.T) {
	svc, _, _, _ := newTestService()

	loan, err := svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.NoError(t, err)

	_, err = svc.Checkin(context.Background(), loan.LoanID)
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	assert.NoError(t, err)
}

// ============================================
// FINES
// ============================================

func TestPayBorrowerFines(t *testing.T) {
	svc, loans, _, _ := newTestService()
	loans.loans[1] = &model.Loan{LoanID: 1, ISBN: "111", CardID: "ID000001"}
	loans.loans[2] = &model.Loan{LoanID: 2, ISBN: "222", CardID: "ID000001"}
	loans.fines[1] = &model.Fine{LoanID: 1, FineAmt: decimal.NewFromFloat(2.50)}
	loans.fines[2] = &model.Fine{LoanID: 2, FineAmt: decimal.NewFromFloat(1.25)}

	settled, err := svc.PayBorrowerFines(context.Background(), "ID000001")
	require.NoError(t, err)
	require.Len(t, settled, 2)
	for _, lf := range settled {
		assert.True(t, lf.Paid)
	}
	assert.True(t, loans.fines[1].Paid)
	assert.True(t, loans.fines[2].Paid)
}

func TestPayBorrowerFinesUnknownBorrower(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.PayBorrowerFines(context.Background(), "ID999999")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

// Nothing owed is not an error: the caller just gets nothing back.
func TestPayBorrowerFinesNothingOwed(t *testing.T) {
	svc, _, _, _ := newTestService()

	settled, err := svc.PayBorrowerFines(context.Background(), "ID000001")
	require.NoError(t, err)
	assert.Empty(t, settled)
}

// A zero-amount fine is not payable and is never settled by a
// borrower-level payment.
func TestPayBorrowerFinesSkipsZeroAmount(t *testing.T) {
	svc, loans, _, _ := newTestService()
	loans.loans[1] = &model.Loan{LoanID: 1, ISBN: "111", CardID: "ID000001"}
	loans.fines[1] = &model.Fine{LoanID: 1, FineAmt: decimal.Zero}

	settled, err := svc.PayBorrowerFines(context.Background(), "ID000001")
	require.NoError(t, err)
	assert.Empty(t, settled)
	assert.False(t, loans.fines[1].Paid)
}

func TestUserFines(t *testing.T) {
	svc, loans, _, _ := newTestService()
	loans.loans[1] = &model.Loan{LoanID: 1, ISBN: "111", CardID: "ID000001"}
	loans.loans[2] = &model.Loan{LoanID: 2, ISBN: "222", CardID: "ID000001"}
	loans.fines[1] = &model.Fine{LoanID: 1, FineAmt: decimal.NewFromFloat(2.50)}
	loans.fines[2] = &model.Fine{LoanID: 2, FineAmt: decimal.NewFromFloat(1.25), Paid: true}

	unpaid, err := svc.UserFines(context.Background(), "ID000001", false)
	require.NoError(t, err)
	assert.True(t, unpaid.Equal(decimal.NewFromFloat(2.50)), unpaid.String())

	all, err := svc.UserFines(context.Background(), "ID000001", true)
	require.NoError(t, err)
	assert.True(t, all.Equal(decimal.NewFromFloat(3.75)), all.String())
}

func TestUserFinesUnknownBorrower(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.UserFines(context.Background(), "ID999999", false)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestFinesGrouped(t *testing.T) {
	svc, loans, _, _ := newTestService()
	loans.loans[1] = &model.Loan{LoanID: 1, ISBN: "111", CardID: "ID000001"}
	loans.loans[2] = &model.Loan{LoanID: 2, ISBN: "222", CardID: "ID000001"}
	loans.loans[3] = &model.Loan{LoanID: 3, ISBN: "333", CardID: "ID000002"}
	loans.fines[1] = &model.Fine{LoanID: 1, FineAmt: decimal.NewFromFloat(2.50)}
	loans.fines[2] = &model.Fine{LoanID: 2, FineAmt: decimal.NewFromFloat(1.25)}
	loans.fines[3] = &model.Fine{LoanID: 3, FineAmt: decimal.NewFromFloat(0.75), Paid: true}

	totals, err := svc.FinesGrouped(context.Background(), nil, false)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.True(t, totals["ID000001"].Equal(decimal.NewFromFloat(3.75)))

	totals, err = svc.FinesGrouped(context.Background(), []string{"ID000002"}, true)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.True(t, totals["ID000002"].Equal(decimal.NewFromFloat(0.75)))
}

// Full lifecycle: an overdue loan accrues a fine, the fine blocks
// further checkouts until paid, and a paid fine survives later sweeps.
func TestLoanLifecycle(t *testing.T) {
	svc, loans, books, _ := newTestService()
	books.books["9780747532743"] = true
	ctx := context.Background()

	loan, err := svc.Checkout(ctx, model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.NoError(t, err)

	// 20 days past due: 20 * 0.25 = 5.00.
	asOf := loan.DueDate.AddDate(0, 0, 20)
	updated, err := svc.SweepFines(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	fine := loans.fines[loan.LoanID]
	require.NotNil(t, fine)
	assert.True(t, fine.FineAmt.Equal(decimal.NewFromInt(5)), fine.FineAmt.String())
	assert.False(t, fine.Paid)

	// Re-running the same sweep changes nothing.
	_, err = svc.SweepFines(ctx, asOf)
	require.NoError(t, err)
	assert.True(t, loans.fines[loan.LoanID].FineAmt.Equal(decimal.NewFromInt(5)))

	// The unpaid fine blocks a second checkout.
	_, err = svc.Checkout(ctx, model.CheckoutRequest{
		ISBN:   "9780747532743",
		CardID: "ID000001",
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	require.NoError(t, svc.PayLoanFine(ctx, loan.LoanID))
	assert.True(t, loans.fines[loan.LoanID].Paid)

	returned, err := svc.Checkin(ctx, loan.LoanID)
	require.NoError(t, err)
	require.NotNil(t, returned.DateIn)
	assert.True(t, returned.FineAmt.Equal(decimal.NewFromInt(5)), returned.FineAmt.String())
	assert.True(t, returned.Paid)

	// A later sweep leaves the settled fine untouched.
	_, err = svc.SweepFines(ctx, asOf.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.True(t, loans.fines[loan.LoanID].FineAmt.Equal(decimal.NewFromInt(5)))
	assert.True(t, loans.fines[loan.LoanID].Paid)

	_, err = svc.Checkout(ctx, model.CheckoutRequest{
		ISBN:   "9780747532743",
		CardID: "ID000001",
	})
	assert.NoError(t, err)
}

// Checkin surfaces the charge the loan carries so far, and a loan
// without a fine row reports a zero, unpaid one.
func TestCheckinReturnsFine(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	loan, err := svc.Checkout(ctx, model.CheckoutRequest{
		ISBN:   "9780140328721",
		CardID: "ID000001",
	})
	require.NoError(t, err)
	assert.True(t, loan.FineAmt.IsZero())
	assert.False(t, loan.Paid)

	_, err = svc.SweepFines(ctx, loan.DueDate.AddDate(0, 0, 20))
	require.NoError(t, err)

	returned, err := svc.Checkin(ctx, loan.LoanID)
	require.NoError(t, err)
	assert.True(t, returned.FineAmt.Equal(decimal.NewFromInt(5)), returned.FineAmt.String())
	assert.False(t, returned.Paid)
}

func TestPayLoanFineUnknownLoan(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.PayLoanFine(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestSweepFinesDefaultsToToday(t *testing.T) {
	svc, _, _, _ := newTestService()

	updated, err := svc.SweepFines(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}
