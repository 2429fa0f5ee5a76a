package query

// Results is the paginated container returned by every search
// operation. Total is the full match count across all pages, computed
// independently of the page window. PageLimit nil means unlimited, in
// which case Total == len(Items).
type Results[T any] struct {
	Items       []T  `json:"items"`
	Total       int  `json:"total"`
	PageLimit   *int `json:"page_limit"`
	CurrentPage int  `json:"current_page"`
}

// NewResults builds a Results page from a query's pagination intent.
func NewResults[T any](items []T, total int, q Query) Results[T] {
	return Results[T]{
		Items:       items,
		Total:       total,
		PageLimit:   q.Limit,
		CurrentPage: q.Page,
	}
}

// Pages returns how many pages the result set spans. Unlimited result
// sets are always a single page.
func (r Results[T]) Pages() int {
	if r.PageLimit == nil || *r.PageLimit <= 0 {
		return 1
	}
	pages := r.Total / *r.PageLimit
	if r.Total%*r.PageLimit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}
