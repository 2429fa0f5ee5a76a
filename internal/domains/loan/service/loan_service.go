package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	borrowerRepo "library-backend/internal/domains/borrower/repository"
	catalogRepo "library-backend/internal/domains/catalog/repository"
	"library-backend/internal/domains/loan/model"
	"library-backend/internal/domains/loan/repository"
	"library-backend/internal/query"
	"library-backend/internal/shared"
	"library-backend/internal/shared/errs"
	"library-backend/pkg/logger"
)

// LoanService - Implements ServiceInterface
type LoanService struct {
	repo        repository.RepositoryInterface
	books       catalogRepo.RepositoryInterface
	borrowers   borrowerRepo.RepositoryInterface
	asynqClient *asynq.Client
	now         func() time.Time
}

// NewService - Constructor with DI. The asynq client may be nil when
// background dispatch is not wired (tests, one-off tooling).
func NewService(
	repo repository.RepositoryInterface,
	books catalogRepo.RepositoryInterface,
	borrowers borrowerRepo.RepositoryInterface,
	asynqClient *asynq.Client,
	now func() time.Time,
) ServiceInterface {
	if now == nil {
		now = time.Now
	}
	return &LoanService{
		repo:        repo,
		books:       books,
		borrowers:   borrowers,
		asynqClient: asynqClient,
		now:         now,
	}
}

// today truncates the clock to a calendar date. Loans are tracked at
// day granularity.
func (s *LoanService) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ============================================
// CHECKOUT
// ============================================

// Checkout lends a book. The eligibility checks run in a fixed order
// so the caller always sees the same failure for the same state:
// unknown borrower, unknown book, book already out, outstanding
// fines, then the active-loan cap.
func (s *LoanService) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.LoanWithFine, error) {
	if err := req.Validate(); err != nil {
		return nil, errs.Invalid("%s", err.Error())
	}

	borrowerExists, err := s.borrowers.Exists(ctx, req.CardID)
	if err != nil {
		return nil, errs.Internal(err, "failed to check borrower")
	}
	if !borrowerExists {
		return nil, errs.NotFound("borrower with card ID %s does not exist", req.CardID)
	}

	bookExists, err := s.books.Exists(ctx, req.ISBN)
	if err != nil {
		return nil, errs.Internal(err, "failed to check book")
	}
	if !bookExists {
		return nil, errs.NotFound("book with ISBN %s does not exist", req.ISBN)
	}

	onLoan, err := s.repo.IsBookOnLoan(ctx, req.ISBN)
	if err != nil {
		return nil, errs.Internal(err, "failed to check book availability")
	}
	if onLoan {
		return nil, errs.Conflict("book %s is already checked out", req.ISBN)
	}

	owesFines, err := s.repo.HasUnpaidFines(ctx, req.CardID)
	if err != nil {
		return nil, errs.Internal(err, "failed to check fines")
	}
	if owesFines {
		return nil, errs.Forbidden("borrower %s has unpaid fines", req.CardID)
	}

	active, err := s.repo.CountActiveLoans(ctx, req.CardID)
	if err != nil {
		return nil, errs.Internal(err, "failed to count active loans")
	}
	if active >= model.MaxActiveLoans {
		return nil, errs.Forbidden("borrower %s already has %d books checked out", req.CardID, model.MaxActiveLoans)
	}

	dateOut := s.today()
	dueDate := dateOut.AddDate(0, 0, model.LoanDurationDays)

	loan, err := s.repo.Checkout(ctx, req.ISBN, req.CardID, dateOut, dueDate)
	if err != nil {
		if errs.KindOf(err) != errs.KindInternal {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to create loan")
	}

	logger.Info("book checked out", map[string]interface{}{
		"loan_id": loan.LoanID,
		"isbn":    loan.ISBN,
		"card_id": loan.CardID,
	})

	// A fresh loan carries no charge yet.
	return &model.LoanWithFine{Loan: *loan}, nil
}

// ============================================
// CHECKIN
// ============================================

func (s *LoanService) Checkin(ctx context.Context, loanID int64) (*model.LoanWithFine, error) {
	loan, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		if errs.KindOf(err) != errs.KindInternal {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get loan")
	}
	if !loan.Active() {
		return nil, errs.Conflict("loan %d is already returned", loanID)
	}

	dateIn := s.today()
	updated, err := s.repo.Checkin(ctx, loanID, dateIn)
	if err != nil {
		return nil, errs.Internal(err, "failed to check in loan")
	}
	if !updated {
		// Someone else returned it between the read and the update.
		return nil, errs.Conflict("loan %d is already returned", loanID)
	}

	loan.DateIn = &dateIn

	// Surface whatever charge the loan carries so far; the async sweep
	// settles the final amount for a late return.
	fine, err := s.repo.GetFine(ctx, loanID)
	if err != nil {
		return nil, errs.Internal(err, "failed to get fine")
	}

	s.enqueueSweep(dateIn)

	logger.Info("book checked in", map[string]interface{}{
		"loan_id": loan.LoanID,
		"isbn":    loan.ISBN,
	})

	return &model.LoanWithFine{Loan: *loan, FineAmt: fine.FineAmt, Paid: fine.Paid}, nil
}

// enqueueSweep schedules a fine recomputation so a late return gets
// its final charge without waiting for the nightly job. Best effort:
// the scheduled sweep covers any missed dispatch.
func (s *LoanService) enqueueSweep(asOf time.Time) {
	if s.asynqClient == nil {
		return
	}

	payload, err := json.Marshal(model.FineSweepPayload{AsOf: asOf})
	if err != nil {
		logger.Error("failed to marshal sweep payload", err)
		return
	}

	task := asynq.NewTask(shared.TypeFinesSweep, payload)
	if _, err := s.asynqClient.Enqueue(task, asynq.Queue(shared.QueueDefault), asynq.MaxRetry(3)); err != nil {
		logger.Warn("failed to enqueue fine sweep", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// ============================================
// SEARCH
// ============================================

func (s *LoanService) SearchLoans(ctx context.Context, q query.Query) (query.Results[model.Loan], error) {
	results, err := s.repo.SearchLoans(ctx, q)
	if err != nil {
		return query.Results[model.Loan]{}, errs.Internal(err, "failed to search loans")
	}
	return results, nil
}

func (s *LoanService) SearchLoansWithBooks(ctx context.Context, q query.Query) (query.Results[model.LoanWithBook], error) {
	results, err := s.repo.SearchLoansWithBooks(ctx, q)
	if err != nil {
		return query.Results[model.LoanWithBook]{}, errs.Internal(err, "failed to search loans with books")
	}
	return results, nil
}

// ============================================
// FINES
// ============================================

func (s *LoanService) SearchFines(ctx context.Context, q query.Query) (query.Results[model.FineDetail], error) {
	results, err := s.repo.SearchFines(ctx, q)
	if err != nil {
		return query.Results[model.FineDetail]{}, errs.Internal(err, "failed to search fines")
	}
	return results, nil
}

func (s *LoanService) FineSummary(ctx context.Context) (*model.FineSummary, error) {
	summary, err := s.repo.FineSummary(ctx)
	if err != nil {
		return nil, errs.Internal(err, "failed to summarize fines")
	}
	return summary, nil
}

// UserFines totals one borrower's fines. Unpaid only unless
// includePaid is set.
func (s *LoanService) UserFines(ctx context.Context, cardID string, includePaid bool) (decimal.Decimal, error) {
	exists, err := s.borrowers.Exists(ctx, cardID)
	if err != nil {
		return decimal.Zero, errs.Internal(err, "failed to check borrower")
	}
	if !exists {
		return decimal.Zero, errs.NotFound("borrower with card ID %s does not exist", cardID)
	}

	total, err := s.repo.UserFines(ctx, cardID, includePaid)
	if err != nil {
		return decimal.Zero, errs.Internal(err, "failed to total fines")
	}
	return total, nil
}

// Fines lists loans carrying a positive fine, across all borrowers
// when cardIDs is empty.
func (s *LoanService) Fines(ctx context.Context, cardIDs []string, includePaid bool) ([]model.LoanWithFine, error) {
	loans, err := s.repo.Fines(ctx, cardIDs, includePaid)
	if err != nil {
		return nil, errs.Internal(err, "failed to list fines")
	}
	return loans, nil
}

// FinesGrouped totals positive fines per card ID.
func (s *LoanService) FinesGrouped(ctx context.Context, cardIDs []string, includePaid bool) (map[string]decimal.Decimal, error) {
	totals, err := s.repo.FinesGrouped(ctx, cardIDs, includePaid)
	if err != nil {
		return nil, errs.Internal(err, "failed to group fines")
	}
	return totals, nil
}

// SweepFines recomputes overdue charges. A zero asOf means "as of
// today". Safe to run repeatedly: amounts are recomputed from the
// loan dates, not incremented.
func (s *LoanService) SweepFines(ctx context.Context, asOf time.Time) (int, error) {
	if asOf.IsZero() {
		asOf = s.today()
	}

	updated, err := s.repo.UpdateFines(ctx, asOf)
	if err != nil {
		return 0, errs.Internal(err, "failed to update fines")
	}

	logger.Info("fine sweep complete", map[string]interface{}{
		"as_of":   asOf.Format("2006-01-02"),
		"updated": updated,
	})

	return updated, nil
}

func (s *LoanService) PayLoanFine(ctx context.Context, loanID int64) error {
	if err := s.repo.PayLoanFine(ctx, loanID); err != nil {
		if errs.KindOf(err) != errs.KindInternal {
			return err
		}
		return errs.Internal(err, "failed to pay fine")
	}

	logger.Info("fine paid", map[string]interface{}{"loan_id": loanID})
	return nil
}

// PayBorrowerFines settles every payable fine on the card. Nothing
// owed is not an error: the caller gets an empty slice back.
func (s *LoanService) PayBorrowerFines(ctx context.Context, cardID string) ([]model.LoanWithFine, error) {
	exists, err := s.borrowers.Exists(ctx, cardID)
	if err != nil {
		return nil, errs.Internal(err, "failed to check borrower")
	}
	if !exists {
		return nil, errs.NotFound("borrower with card ID %s does not exist", cardID)
	}

	settled, err := s.repo.PayBorrowerFines(ctx, cardID)
	if err != nil {
		return nil, errs.Internal(err, "failed to pay borrower fines")
	}

	logger.Info("borrower fines paid", map[string]interface{}{
		"card_id": cardID,
		"settled": len(settled),
	})

	return settled, nil
}
