package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CheckoutRequest - payload for lending a book
type CheckoutRequest struct {
	ISBN   string `json:"isbn"`
	CardID string `json:"card_id"`
}

func (r CheckoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ISBN, validation.Required, validation.Length(1, 13)),
		validation.Field(&r.CardID, validation.Required, validation.Length(1, 20)),
	)
}

// PayFinesRequest - payload for settling a borrower's balance
type PayFinesRequest struct {
	CardID string `json:"card_id"`
}

func (r PayFinesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CardID, validation.Required, validation.Length(1, 20)),
	)
}

// SweepRequest - optional override for the sweep reference date,
// in YYYY-MM-DD form. Empty means "today".
type SweepRequest struct {
	AsOf string `json:"as_of,omitempty"`
}
