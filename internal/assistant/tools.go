package assistant

import (
	"context"
	"encoding/json"
	"time"

	borrowerModel "library-backend/internal/domains/borrower/model"
	borrowerService "library-backend/internal/domains/borrower/service"
	catalogModel "library-backend/internal/domains/catalog/model"
	catalogService "library-backend/internal/domains/catalog/service"
	loanModel "library-backend/internal/domains/loan/model"
	loanService "library-backend/internal/domains/loan/service"
	"library-backend/internal/query"
	"library-backend/internal/shared/errs"
)

// queryArgs is the shared argument shape for every search tool: one
// structured query string, same grammar as the HTTP q parameter.
type queryArgs struct {
	Query string `json:"query"`
}

var querySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": `Structured search string, e.g. 'author:rowling loan:active sort:title limit:10'`,
		},
	},
}

// fineFilterArgs is shared by the fine listing and grouping tools.
type fineFilterArgs struct {
	CardIDs     []string `json:"card_ids"`
	IncludePaid bool     `json:"include_paid"`
}

var fineFilterSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"card_ids":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"include_paid": map[string]interface{}{"type": "boolean"},
	},
}

func decodeArgs(raw json.RawMessage, dest interface{}) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return errs.Invalid("invalid tool arguments: %s", err.Error())
	}
	return nil
}

// NewToolRegistry exposes the library's operations as callable tools.
func NewToolRegistry(
	catalogSvc catalogService.ServiceInterface,
	borrowerSvc borrowerService.ServiceInterface,
	loanSvc loanService.ServiceInterface,
) *Registry {
	r := NewRegistry()

	r.Register(Tool{
		Name:        "search_books",
		Description: "Search the catalog by title, author, or ISBN.",
		Parameters:  querySchema,
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args queryArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return catalogSvc.SearchBooks(ctx, query.Parse(args.Query))
	})

	r.Register(Tool{
		Name:        "search_books_with_loans",
		Description: "Search the catalog including each book's active loan and availability.",
		Parameters:  querySchema,
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args queryArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return catalogSvc.SearchBooksWithLoan(ctx, query.Parse(args.Query))
	})

	r.Register(Tool{
		Name:        "add_book",
		Description: "Add a book to the catalog with its authors.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"isbn":    map[string]interface{}{"type": "string"},
				"title":   map[string]interface{}{"type": "string"},
				"authors": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			},
			"required": []string{"isbn", "title"},
		},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var req catalogModel.CreateBookRequest
		if err := decodeArgs(raw, &req); err != nil {
			return nil, err
		}
		return catalogSvc.CreateBook(ctx, req)
	})

	r.Register(Tool{
		Name:        "search_borrowers",
		Description: "Search registered borrowers by name, card ID, or phone.",
		Parameters:  querySchema,
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args queryArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return borrowerSvc.SearchBorrowers(ctx, query.Parse(args.Query))
	})

	r.Register(Tool{
		Name:        "search_borrower_fines",
		Description: "Search borrowers with their unpaid and paid fine totals. An explicit card_id pins the search to one card.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query":   querySchema["properties"].(map[string]interface{})["query"],
				"card_id": map[string]interface{}{"type": "string"},
			},
		},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args struct {
			Query  string `json:"query"`
			CardID string `json:"card_id"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return borrowerSvc.SearchBorrowersWithFines(ctx, args.CardID, query.Parse(args.Query))
	})

	r.Register(Tool{
		Name:        "register_borrower",
		Description: "Register a new borrower and assign a card ID.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"ssn":     map[string]interface{}{"type": "string"},
				"name":    map[string]interface{}{"type": "string"},
				"address": map[string]interface{}{"type": "string"},
				"phone":   map[string]interface{}{"type": "string"},
			},
			"required": []string{"ssn", "name", "address"},
		},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var req borrowerModel.CreateBorrowerRequest
		if err := decodeArgs(raw, &req); err != nil {
			return nil, err
		}
		return borrowerSvc.CreateBorrower(ctx, req)
	})

	r.Register(Tool{
		Name:        "search_loans",
		Description: "Search loans by borrower, book, status, or due date.",
		Parameters:  querySchema,
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args queryArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return loanSvc.SearchLoansWithBooks(ctx, query.Parse(args.Query))
	})

	r.Register(Tool{
		Name:        "checkout_book",
		Description: "Check a book out to a borrower.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"isbn":    map[string]interface{}{"type": "string"},
				"card_id": map[string]interface{}{"type": "string"},
			},
			"required": []string{"isbn", "card_id"},
		},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var req loanModel.CheckoutRequest
		if err := decodeArgs(raw, &req); err != nil {
			return nil, err
		}
		return loanSvc.Checkout(ctx, req)
	})

	r.Register(Tool{
		Name:        "checkin_book",
		Description: "Return a checked-out book by loan ID.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"loan_id": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"loan_id"},
		},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args struct {
			LoanID int64 `json:"loan_id"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return loanSvc.Checkin(ctx, args.LoanID)
	})

	r.Register(Tool{
		Name:        "search_fines",
		Description: "Search individual fines by borrower, book, or payment status.",
		Parameters:  querySchema,
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args queryArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return loanSvc.SearchFines(ctx, query.Parse(args.Query))
	})

	r.Register(Tool{
		Name:        "fine_summary",
		Description: "Totals of unpaid and paid fines across the library.",
		Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		return loanSvc.FineSummary(ctx)
	})

	r.Register(Tool{
		Name:        "get_user_fines",
		Description: "Total fine amount for one borrower, unpaid only unless include_paid is set.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"card_id":      map[string]interface{}{"type": "string"},
				"include_paid": map[string]interface{}{"type": "boolean"},
			},
			"required": []string{"card_id"},
		},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args struct {
			CardID      string `json:"card_id"`
			IncludePaid bool   `json:"include_paid"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		total, err := loanSvc.UserFines(ctx, args.CardID, args.IncludePaid)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"card_id": args.CardID, "total": total}, nil
	})

	r.Register(Tool{
		Name:        "get_fines",
		Description: "List loans carrying a fine, optionally limited to specific card IDs.",
		Parameters:  fineFilterSchema,
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args fineFilterArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return loanSvc.Fines(ctx, args.CardIDs, args.IncludePaid)
	})

	r.Register(Tool{
		Name:        "get_fines_grouped",
		Description: "Total fine amounts grouped by borrower card ID.",
		Parameters:  fineFilterSchema,
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args fineFilterArgs
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return loanSvc.FinesGrouped(ctx, args.CardIDs, args.IncludePaid)
	})

	r.Register(Tool{
		Name:        "pay_loan_fine",
		Description: "Settle the unpaid fine on a single loan.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"loan_id": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"loan_id"},
		},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args struct {
			LoanID int64 `json:"loan_id"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		if err := loanSvc.PayLoanFine(ctx, args.LoanID); err != nil {
			return nil, err
		}
		return map[string]interface{}{"loan_id": args.LoanID, "paid": true}, nil
	})

	r.Register(Tool{
		Name:        "pay_borrower_fines",
		Description: "Settle all payable fines for a borrower, returning the loans that were settled.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"card_id": map[string]interface{}{"type": "string"},
			},
			"required": []string{"card_id"},
		},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args struct {
			CardID string `json:"card_id"`
		}
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return loanSvc.PayBorrowerFines(ctx, args.CardID)
	})

	r.Register(Tool{
		Name:        "update_fines",
		Description: "Recompute overdue fines as of today.",
		Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
	}, func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		updated, err := loanSvc.SweepFines(ctx, time.Time{})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"updated": updated}, nil
	})

	return r
}
