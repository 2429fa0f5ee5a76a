package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFineFor(t *testing.T) {
	due := day(2024, 3, 1)

	tests := []struct {
		name   string
		dateIn *time.Time
		asOf   time.Time
		want   string
	}{
		{
			name: "still out, ten days late",
			asOf: day(2024, 3, 11),
			want: "2.50",
		},
		{
			name: "still out, five days late",
			asOf: day(2024, 3, 6),
			want: "1.25",
		},
		{
			name: "still out, due today",
			asOf: day(2024, 3, 1),
			want: "0",
		},
		{
			name: "still out, not yet due",
			asOf: day(2024, 2, 20),
			want: "0",
		},
		{
			name:   "returned on time, sweep later",
			dateIn: ptr(day(2024, 2, 28)),
			asOf:   day(2024, 3, 20),
			want:   "0",
		},
		{
			name:   "returned three days late, charge frozen at return",
			dateIn: ptr(day(2024, 3, 4)),
			asOf:   day(2024, 3, 20),
			want:   "0.75",
		},
		{
			name:   "returned on the due date",
			dateIn: ptr(day(2024, 3, 1)),
			asOf:   day(2024, 3, 20),
			want:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FineFor(due, tt.dateIn, tt.asOf)
			want := decimal.RequireFromString(tt.want)
			assert.True(t, got.Equal(want), "got %s, want %s", got, want)
		})
	}
}

// Recomputing against a later date never changes a returned loan's
// charge: the return date caps it.
func TestFineForReturnedLoanStable(t *testing.T) {
	due := day(2024, 3, 1)
	in := day(2024, 3, 11)

	first := FineFor(due, &in, day(2024, 3, 12))
	second := FineFor(due, &in, day(2024, 6, 1))
	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(decimal.RequireFromString("2.50")))
}

func TestLoanActive(t *testing.T) {
	loan := Loan{LoanID: 1}
	assert.True(t, loan.Active())

	in := day(2024, 3, 5)
	loan.DateIn = &in
	assert.False(t, loan.Active())
}

func ptr(t time.Time) *time.Time { return &t }
