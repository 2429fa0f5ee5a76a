package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is a catalog entry. Authors is derived through the
// book_authors join; order is the join's deterministic name order.
type Book struct {
	ISBN    string   `json:"isbn"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
}

// LoanInfo is the loan columns materialized by the book-with-loan
// search. It is a view of the active loan, not the loan aggregate
// itself (that lives in the loan domain).
type LoanInfo struct {
	LoanID  string          `json:"loan_id"`
	CardID  string          `json:"card_id"`
	DateOut time.Time       `json:"date_out"`
	DueDate time.Time       `json:"due_date"`
	DateIn  *time.Time      `json:"date_in"`
	FineAmt decimal.Decimal `json:"fine_amt"`
	Paid    bool            `json:"paid"`
}

// BookWithLoan pairs a book with its current active loan, nil when the
// book is on the shelf.
type BookWithLoan struct {
	Book Book      `json:"book"`
	Loan *LoanInfo `json:"loan"`
}

// Available reports whether the book can be checked out.
func (b BookWithLoan) Available() bool {
	return b.Loan == nil
}
