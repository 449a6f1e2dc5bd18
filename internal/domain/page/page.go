package page

import "github.com/kailas-cloud/investigo/internal/domain/record"

// DefaultLimit is the page size requested from the search backend.
const DefaultLimit = 50

// Request is one backend search call.
type Request struct {
	Term   string
	Limit  int
	Cursor string
}

// Hit is a single record returned by the backend, tagged with its table.
type Hit struct {
	Table  string        `json:"table"`
	Record record.Record `json:"record"`
}

// Page is one backend response.
type Page struct {
	Hits       []Hit  `json:"hits"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Continues reports whether another page can be requested after this one.
func (p Page) Continues() bool {
	return p.HasMore && p.NextCursor != ""
}

// Inconsistent reports a page that claims more results without giving a cursor.
func (p Page) Inconsistent() bool {
	return p.HasMore && p.NextCursor == ""
}

// Set is the outcome of paginating one term, as kept in the result cache.
type Set struct {
	Pages     []Page `json:"pages"`
	Exhausted bool   `json:"exhausted"`
}

// Covers reports whether the set satisfies a request capped at maxPages.
func (s Set) Covers(maxPages int) bool {
	return s.Exhausted || len(s.Pages) >= maxPages
}
