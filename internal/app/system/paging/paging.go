// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows per page.
const PageSize = 50

// MaxPageSize caps the "per_page" query parameter.
const MaxPageSize = 200

// MaxPage caps the "page" query parameter so the row offset cannot overflow.
const MaxPage = math.MaxInt32 / MaxPageSize

// Params is a parsed page request. Page is 1-based.
type Params struct {
	Page int
	Size int
}

// Parse reads "page" and "per_page" from the query string. Missing or
// invalid values fall back to page 1 and PageSize. Pages above MaxPage and
// sizes above MaxPageSize are clamped.
func Parse(r *http.Request) Params {
	p := Params{Page: 1, Size: PageSize}
	if n, err := strconv.Atoi(query.Get(r, "page")); err == nil && n > 0 {
		p.Page = min(n, MaxPage)
	}
	if n, err := strconv.Atoi(query.Get(r, "per_page")); err == nil && n > 0 {
		p.Size = min(n, MaxPageSize)
	}
	return p
}

// Offset is the number of rows to skip.
func (p Params) Offset() int64 {
	return int64(p.Page-1) * int64(p.Size)
}

// Limit is the number of rows to fetch.
func (p Params) Limit() int64 {
	return int64(p.Size)
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

// NewMeta computes page metadata for total matching rows.
func NewMeta(p Params, total int64) Meta {
	pages := int((total + int64(p.Size) - 1) / int64(p.Size))
	if pages < 1 {
		pages = 1
	}
	return Meta{
		Page:       p.Page,
		PerPage:    p.Size,
		Total:      total,
		TotalPages: pages,
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < pages,
	}
}
