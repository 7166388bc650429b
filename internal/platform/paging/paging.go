package paging

import (
	"strconv"

	"library-backend/internal/platform/apperr"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Validate() error {
	if p.Page < 1 {
		return apperr.Invalid("page must be >= 1")
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return apperr.Invalid("limit must be between 1 and 100")
	}
	return nil
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

func (p Page) Of(total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

// Parse reads ?page=&limit= strings. Empty values take the defaults;
// malformed values are rejected rather than silently replaced.
func Parse(page, limit string) (Page, error) {
	p := Page{Page: 1, Limit: DefaultLimit}
	if page != "" {
		v, err := strconv.Atoi(page)
		if err != nil {
			return Page{}, apperr.Invalid("page must be an integer")
		}
		p.Page = v
	}
	if limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			return Page{}, apperr.Invalid("limit must be an integer")
		}
		p.Limit = v
	}
	return p, p.Validate()
}
