package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_KeywordFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, q Query)
	}{
		{
			name: "borrower by canonical keyword",
			raw:  "borrower:Smith",
			check: func(t *testing.T, q Query) {
				assert.Equal(t, "Smith", q.Borrower)
			},
		},
		{
			name: "borrower by user alias",
			raw:  "user:Smith",
			check: func(t *testing.T, q Query) {
				assert.Equal(t, "Smith", q.Borrower)
			},
		},
		{
			name: "isbn and card",
			raw:  "isbn:9780 card:ID000012",
			check: func(t *testing.T, q Query) {
				assert.Equal(t, "9780", q.ISBN)
				assert.Equal(t, "ID000012", q.Card)
			},
		},
		{
			name: "loan status by loan alias",
			raw:  "loan:active",
			check: func(t *testing.T, q Query) {
				assert.Equal(t, LoanActive, q.LoanIs)
			},
		},
		{
			name: "loan status in maps to returned",
			raw:  "loan_is:in",
			check: func(t *testing.T, q Query) {
				assert.Equal(t, LoanReturned, q.LoanIs)
			},
		},
		{
			name: "fine status case insensitive",
			raw:  "fine_is:OWED",
			check: func(t *testing.T, q Query) {
				assert.Equal(t, FineOwed, q.FineIs)
			},
		},
		{
			name: "due past",
			raw:  "due:past",
			check: func(t *testing.T, q Query) {
				assert.Equal(t, DuePast, q.Due)
			},
		},
		{
			name: "availability aliases",
			raw:  "availability:checked_out",
			check: func(t *testing.T, q Query) {
				require.NotNil(t, q.Available)
				assert.False(t, *q.Available)
			},
		},
		{
			name: "sort and order",
			raw:  "sort_by:title order:descending",
			check: func(t *testing.T, q Query) {
				assert.Equal(t, "title", q.Sort)
				assert.Equal(t, OrderDescending, q.Order)
			},
		},
		{
			name: "limit by max alias and page",
			raw:  "max:25 page:3",
			check: func(t *testing.T, q Query) {
				require.NotNil(t, q.Limit)
				assert.Equal(t, 25, *q.Limit)
				assert.Equal(t, 3, q.Page)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Parse(tt.raw))
		})
	}
}

func TestParse_Quoting(t *testing.T) {
	q := Parse(`title:"Harry Potter" author:Rowling`)

	assert.Equal(t, "Harry Potter", q.Title)
	assert.Equal(t, "Rowling", q.Author)
	assert.Empty(t, q.AnyTerm)
}

func TestParse_BareTokensBecomeAnyTerm(t *testing.T) {
	q := Parse("dark tower isbn:978")

	assert.Equal(t, "dark tower", q.AnyTerm)
	assert.Equal(t, "978", q.ISBN)
}

func TestParse_LenientPolicy(t *testing.T) {
	t.Run("unknown keyword dropped silently", func(t *testing.T) {
		q := Parse("foo:bar")

		assert.False(t, q.HasFilters())
		assert.Empty(t, q.AnyTerm)
	})

	t.Run("invalid page keeps default", func(t *testing.T) {
		q := Parse("page:abc")

		assert.Equal(t, 1, q.Page)
	})

	t.Run("invalid limit stays unset", func(t *testing.T) {
		q := Parse("limit:lots")

		assert.Nil(t, q.Limit)
	})

	t.Run("unrecognized enum value leaves field unset", func(t *testing.T) {
		q := Parse("loan_is:maybe fine_is:whenever")

		assert.Equal(t, LoanStatusUnset, q.LoanIs)
		assert.Equal(t, FineStatusUnset, q.FineIs)
	})
}

func TestParse_EmptyString(t *testing.T) {
	q := Parse("")

	assert.False(t, q.HasFilters())
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, OrderAscending, q.Order)
}

func TestHasFilters(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", false},
		{"sort:title order:desc page:2 limit:10", false},
		{"title:dune", true},
		{"loan_is:active", true},
		{"available:yes", true},
		{"free text only", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q := Parse(tt.raw)
			assert.Equal(t, tt.want, q.HasFilters())
		})
	}
}

func TestOffset(t *testing.T) {
	limit := 10

	q := Query{Page: 3, Limit: &limit}
	assert.Equal(t, 20, q.Offset())

	q = Query{Page: 1, Limit: &limit}
	assert.Equal(t, 0, q.Offset())

	// No limit means no windowing at all.
	q = Query{Page: 5}
	assert.Equal(t, 0, q.Offset())

	// Garbage page numbers must not produce a negative offset.
	q = Query{Page: -2, Limit: &limit}
	assert.Equal(t, 0, q.Offset())
}

func TestResults_Pages(t *testing.T) {
	limit := 10

	r := Results[int]{Total: 35, PageLimit: &limit}
	assert.Equal(t, 4, r.Pages())

	r = Results[int]{Total: 30, PageLimit: &limit}
	assert.Equal(t, 3, r.Pages())

	r = Results[int]{Total: 0, PageLimit: &limit}
	assert.Equal(t, 1, r.Pages())

	r = Results[int]{Total: 99}
	assert.Equal(t, 1, r.Pages())
}
