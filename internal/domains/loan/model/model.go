package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxActiveLoans caps how many books a borrower may have out at once.
	MaxActiveLoans = 3

	// LoanDurationDays is the standard lending period.
	LoanDurationDays = 14
)

// DailyFineRate is the per-day charge for overdue loans.
var DailyFineRate = decimal.NewFromFloat(0.25)

// FineFor computes the charge for a loan. Returned books are charged
// through the return date, books still out through asOf. On-time
// loans owe zero.
func FineFor(dueDate time.Time, dateIn *time.Time, asOf time.Time) decimal.Decimal {
	end := asOf
	if dateIn != nil {
		end = *dateIn
	}
	days := int64(end.Sub(dueDate).Hours() / 24)
	if days <= 0 {
		return decimal.Zero
	}
	return DailyFineRate.Mul(decimal.NewFromInt(days))
}

// Loan - one checkout of one book
type Loan struct {
	LoanID  int64      `json:"loan_id"`
	ISBN    string     `json:"isbn"`
	CardID  string     `json:"card_id"`
	DateOut time.Time  `json:"date_out"`
	DueDate time.Time  `json:"due_date"`
	DateIn  *time.Time `json:"date_in,omitempty"`
}

// Active reports whether the book is still out.
func (l Loan) Active() bool {
	return l.DateIn == nil
}

// Fine - the accrued charge on an overdue loan
type Fine struct {
	LoanID  int64           `json:"loan_id"`
	FineAmt decimal.Decimal `json:"fine_amt"`
	Paid    bool            `json:"paid"`
}

// LoanWithFine - a loan joined with its current charge. Loans with no
// fine row report a zero, unpaid charge.
type LoanWithFine struct {
	Loan
	FineAmt decimal.Decimal `json:"fine_amt"`
	Paid    bool            `json:"paid"`
}

// LoanWithBook - a loan joined with its book and borrower for display
type LoanWithBook struct {
	Loan
	Title        string           `json:"title"`
	Authors      []string         `json:"authors"`
	BorrowerName string           `json:"borrower_name"`
	FineAmt      *decimal.Decimal `json:"fine_amt,omitempty"`
	Paid         *bool            `json:"paid,omitempty"`
}

// FineDetail - a fine joined with the loan it belongs to
type FineDetail struct {
	Fine
	ISBN    string     `json:"isbn"`
	Title   string     `json:"title"`
	CardID  string     `json:"card_id"`
	DueDate time.Time  `json:"due_date"`
	DateIn  *time.Time `json:"date_in,omitempty"`
}

// FineSummary - aggregate fine balances across the library
type FineSummary struct {
	UnpaidTotal decimal.Decimal `json:"unpaid_total"`
	UnpaidCount int             `json:"unpaid_count"`
	PaidTotal   decimal.Decimal `json:"paid_total"`
	PaidCount   int             `json:"paid_count"`
}
