package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateBorrowerRequest - payload for registering a new borrower.
// The card ID is assigned by the system, never supplied by the caller.
type CreateBorrowerRequest struct {
	SSN     string  `json:"ssn"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Phone   *string `json:"phone,omitempty"`
}

func (r CreateBorrowerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SSN, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Address, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Phone, validation.Length(1, 30)),
	)
}
