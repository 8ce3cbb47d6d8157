// Package pagination implements the page/limit query contract and the
// {count, next, previous, results} response envelope.
package pagination

import (
	"net/http"
	"strconv"
)

// DefaultLimit is the page size used when the client supplies none.
const DefaultLimit = 10

// Params is a parsed page window.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the window.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Parse reads page and limit from the request query, falling back to page 1
// and DefaultLimit for absent or malformed values.
func Parse(r *http.Request) Params {
	params := Params{Page: 1, Limit: DefaultLimit}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
		params.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		params.Limit = limit
	}
	return params
}

// Page is the paginated response envelope.
type Page struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// NewPage builds the envelope for the given window, deriving next/previous
// links from the request URL.
func NewPage(r *http.Request, params Params, count int, results any) *Page {
	page := &Page{Count: count, Results: results}
	if params.Offset()+params.Limit < count {
		page.Next = pageURL(r, params.Page+1)
	}
	if params.Page > 1 {
		page.Previous = pageURL(r, params.Page-1)
	}
	return page
}

func pageURL(r *http.Request, page int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// Window truncates an already-fetched slice to the window, for callers that
// paginate in memory rather than at the query level.
func Window[T any](items []T, params Params) []T {
	offset := params.Offset()
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if params.Limit < len(items) {
		items = items[:params.Limit]
	}
	return items
}
