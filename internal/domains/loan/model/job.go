package model

import "time"

// FineSweepPayload - asynq payload for the overdue-fine sweep.
// Zero AsOf means "use the current date".
type FineSweepPayload struct {
	AsOf time.Time `json:"as_of,omitempty"`
}
