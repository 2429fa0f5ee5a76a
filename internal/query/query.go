package query

import (
	"strconv"
	"strings"
)

// OrderDirection is the sort direction for search results.
type OrderDirection int

const (
	OrderAscending OrderDirection = iota
	OrderDescending
)

// LoanStatus filters loans by whether the book is still out.
type LoanStatus int

const (
	LoanStatusUnset LoanStatus = iota
	LoanActive                 // date_in is null
	LoanReturned
)

// FineStatus filters by fine payment state.
type FineStatus int

const (
	FineStatusUnset FineStatus = iota
	FineOwed                   // fine_amt > 0 and unpaid
	FinePaid
)

// DueStatus filters loans by due date relative to today.
type DueStatus int

const (
	DueStatusUnset DueStatus = iota
	DuePast
	DueFuture
)

// Query captures the parsed filter, sort, and pagination intent of a
// search string. String fields are empty when unset; pointer and enum
// fields use nil / the Unset zero value.
//
// Recognized keywords:
//
//	borrower:, user:       borrower name
//	card:                  card ID
//	phone:                 phone number
//	isbn:, title:, author: book fields
//	loan_id:               loan ID
//	loan_is:, loan:        active | returned | in
//	fine_is:, fine:        owed | paid
//	due:                   past | future
//	available:             true/yes/available | false/no/unavailable/checked_out
//	sort:, order:          sorting
//	limit:, max:, count:   page size
//	page:, page_num:       page number
//
// Anything without a keyword accumulates into AnyTerm.
type Query struct {
	RawQuery string
	AnyTerm  string

	Borrower string
	Card     string
	Phone    string
	ISBN     string
	Title    string
	Author   string
	LoanID   string

	LoanIs    LoanStatus
	FineIs    FineStatus
	Due       DueStatus
	Available *bool

	Sort  string
	Order OrderDirection

	Limit *int
	Page  int
}

// keywordAliases maps alternate keywords onto canonical field names.
// Canonical names map to themselves below in resolveKeyword.
var keywordAliases = map[string]string{
	"user":            "borrower",
	"loan_status":     "loan_is",
	"loan":            "loan_is",
	"fine_status":     "fine_is",
	"fine":            "fine_is",
	"due_status":      "due",
	"availability":    "available",
	"sort_by":         "sort",
	"order_by":        "order",
	"order_direction": "order",
	"max":             "limit",
	"count":           "limit",
	"page_num":        "page",
}

var canonicalFields = map[string]bool{
	"borrower": true, "card": true, "phone": true,
	"isbn": true, "title": true, "author": true, "loan_id": true,
	"loan_is": true, "fine_is": true, "due": true, "available": true,
	"sort": true, "order": true, "limit": true, "page": true,
}

var loanStatusValues = map[string]LoanStatus{
	"active":   LoanActive,
	"returned": LoanReturned,
	"in":       LoanReturned,
}

var fineStatusValues = map[string]FineStatus{
	"owed": FineOwed,
	"paid": FinePaid,
}

var dueStatusValues = map[string]DueStatus{
	"past":   DuePast,
	"future": DueFuture,
}

var availableValues = map[string]bool{
	"true":        true,
	"yes":         true,
	"available":   true,
	"false":       false,
	"no":          false,
	"unavailable": false,
	"checked_out": false,
}

var orderValues = map[string]OrderDirection{
	"asc":        OrderAscending,
	"ascending":  OrderAscending,
	"desc":       OrderDescending,
	"descending": OrderDescending,
}

// Parse tokenizes a raw search string into a structured Query.
//
// Parsing is deliberately lenient: unknown keywords are dropped, bad
// numbers are ignored, and enum values that match nothing leave the
// field unset. A user typo degrades the search instead of failing it.
func Parse(raw string) Query {
	q := Query{RawQuery: raw, Page: 1}

	if raw == "" {
		return q
	}

	var anyTerms []string
	for _, part := range splitQuoted(raw) {
		keyword, value, ok := strings.Cut(part, ":")
		if !ok {
			anyTerms = append(anyTerms, unquote(part))
			continue
		}
		q.setKeyword(strings.ToLower(keyword), unquote(value))
	}

	if len(anyTerms) > 0 {
		q.AnyTerm = strings.Join(anyTerms, " ")
	}

	return q
}

// splitQuoted splits on whitespace but keeps quoted sections intact.
// An escaped quote (\") does not toggle quoting.
func splitQuoted(raw string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	prev := rune(0)

	for _, ch := range raw {
		switch {
		case ch == '"' && prev != '\\':
			inQuotes = !inQuotes
			current.WriteRune(ch)
		case isSpace(ch) && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
		prev = ch
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func unquote(s string) string {
	if len(s) > 1 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

func (q *Query) setKeyword(keyword, value string) {
	field := resolveKeyword(keyword)
	if field == "" {
		return // unknown keyword, dropped by policy
	}

	switch field {
	case "borrower":
		q.Borrower = value
	case "card":
		q.Card = value
	case "phone":
		q.Phone = value
	case "isbn":
		q.ISBN = value
	case "title":
		q.Title = value
	case "author":
		q.Author = value
	case "loan_id":
		q.LoanID = value
	case "sort":
		q.Sort = value
	case "page":
		if n, err := strconv.Atoi(value); err == nil {
			q.Page = n
		}
	case "limit":
		if n, err := strconv.Atoi(value); err == nil {
			q.Limit = &n
		}
	case "loan_is":
		if v, ok := loanStatusValues[strings.ToLower(value)]; ok {
			q.LoanIs = v
		}
	case "fine_is":
		if v, ok := fineStatusValues[strings.ToLower(value)]; ok {
			q.FineIs = v
		}
	case "due":
		if v, ok := dueStatusValues[strings.ToLower(value)]; ok {
			q.Due = v
		}
	case "available":
		if v, ok := availableValues[strings.ToLower(value)]; ok {
			q.Available = &v
		}
	case "order":
		if v, ok := orderValues[strings.ToLower(value)]; ok {
			q.Order = v
		}
	}
}

func resolveKeyword(keyword string) string {
	if canonical, ok := keywordAliases[keyword]; ok {
		return canonical
	}
	if canonicalFields[keyword] {
		return keyword
	}
	return ""
}

// HasFilters reports whether any structured filter or free text is set.
// Sort and pagination alone do not count as filters.
func (q *Query) HasFilters() bool {
	return q.Borrower != "" || q.Card != "" || q.Phone != "" ||
		q.ISBN != "" || q.Title != "" || q.Author != "" || q.LoanID != "" ||
		q.LoanIs != LoanStatusUnset || q.FineIs != FineStatusUnset ||
		q.Due != DueStatusUnset || q.Available != nil ||
		q.AnyTerm != ""
}

// Direction returns the SQL keyword for the query's sort order.
func (q *Query) Direction() string {
	if q.Order == OrderDescending {
		return "DESC"
	}
	return "ASC"
}

// Offset computes the row offset for the current page. Page numbers are
// 1-indexed; out-of-range pages clamp to zero rather than producing a
// negative offset.
func (q *Query) Offset() int {
	if q.Limit == nil || q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * *q.Limit
}
