package model

import "github.com/shopspring/decimal"

// Borrower - library card holder
type Borrower struct {
	CardID  string  `json:"card_id"`
	SSN     string  `json:"ssn"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone,omitempty"`
}

// BorrowerFines - a borrower together with their fine balances
type BorrowerFines struct {
	Borrower
	UnpaidTotal decimal.Decimal `json:"unpaid_total"`
	UnpaidCount int             `json:"unpaid_count"`
	PaidTotal   decimal.Decimal `json:"paid_total"`
}
