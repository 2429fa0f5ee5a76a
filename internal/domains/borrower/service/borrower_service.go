package service

import (
	"context"
	"strings"

	"library-backend/internal/domains/borrower/model"
	"library-backend/internal/domains/borrower/repository"
	"library-backend/internal/query"
	"library-backend/internal/shared/errs"
	"library-backend/pkg/logger"
)

// BorrowerService - Implements ServiceInterface
type BorrowerService struct {
	repo repository.RepositoryInterface
}

// NewService - Constructor with DI
func NewService(repo repository.RepositoryInterface) ServiceInterface {
	return &BorrowerService{repo: repo}
}

// CreateBorrower registers a card holder. Each SSN gets exactly one
// card; the card ID itself is assigned inside the repository.
func (s *BorrowerService) CreateBorrower(ctx context.Context, req model.CreateBorrowerRequest) (*model.Borrower, error) {
	if err := req.Validate(); err != nil {
		return nil, errs.Invalid("%s", err.Error())
	}

	borrower := &model.Borrower{
		SSN:     strings.TrimSpace(req.SSN),
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
		Phone:   req.Phone,
	}

	if err := s.repo.Create(ctx, borrower); err != nil {
		if errs.KindOf(err) != errs.KindInternal {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to create borrower")
	}

	logger.Info("borrower registered", map[string]interface{}{
		"card_id": borrower.CardID,
	})

	return borrower, nil
}

func (s *BorrowerService) GetBorrower(ctx context.Context, cardID string) (*model.Borrower, error) {
	borrower, err := s.repo.GetByCardID(ctx, cardID)
	if err != nil {
		if errs.KindOf(err) != errs.KindInternal {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get borrower")
	}
	return borrower, nil
}

func (s *BorrowerService) SearchBorrowers(ctx context.Context, q query.Query) (query.Results[model.Borrower], error) {
	results, err := s.repo.SearchBorrowers(ctx, q)
	if err != nil {
		return query.Results[model.Borrower]{}, errs.Internal(err, "failed to search borrowers")
	}
	return results, nil
}

func (s *BorrowerService) SearchBorrowersWithFines(ctx context.Context, cardID string, q query.Query) (query.Results[model.BorrowerFines], error) {
	results, err := s.repo.SearchBorrowersWithFines(ctx, cardID, q)
	if err != nil {
		return query.Results[model.BorrowerFines]{}, errs.Internal(err, "failed to search borrower fines")
	}
	return results, nil
}
