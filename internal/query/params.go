package query

import (
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is the page size used when the client does not ask for one.
	DefaultLimit = 10
	// MaxLimit caps the page size a client may request.
	MaxLimit = 100
)

// ListParams holds the normalized list-query parameters shared by every
// collection endpoint: pagination, free-text search and sorting.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	Ascending bool
}

// ParseList extracts pagination, search and sort parameters from the
// request query string. The sort column is resolved against the given
// allow-list; unrecognized columns fall back to created_at so a bad
// sort_by never produces an error or leaks column names.
func ParseList(values url.Values, allowedSorts []string) ListParams {
	page, _ := strconv.Atoi(values.Get("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(values.Get("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}

	return ListParams{
		Page:      page,
		Limit:     limit,
		Search:    values.Get("search"),
		SortBy:    SortColumn(values.Get("sort_by"), allowedSorts),
		Ascending: values.Get("sort_order") == "asc",
	}
}

// SortColumn resolves a requested sort column against a static
// allow-list, falling back to created_at.
func SortColumn(requested string, allowed []string) string {
	for _, col := range allowed {
		if col == requested {
			return requested
		}
	}
	return "created_at"
}

// Offset returns the offset of the first row of the requested page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Order returns the ORDER BY clause for the resolved sort column.
func (p ListParams) Order() string {
	if p.Ascending {
		return p.SortBy + " asc"
	}
	return p.SortBy + " desc"
}

// Meta is the pagination metadata returned alongside every list page.
type Meta struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"total_pages"`
	HasNextPage *bool `json:"has_next_page,omitempty"`
}

// NewMeta builds pagination metadata for a list response.
func NewMeta(total int64, p ListParams) Meta {
	return Meta{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: TotalPages(total, p.Limit),
	}
}

// WithNextPage returns a copy of the metadata with has_next_page set.
func (m Meta) WithNextPage() Meta {
	next := int64(m.Page)*int64(m.Limit) < m.Total
	m.HasNextPage = &next
	return m
}

// TotalPages computes ceil(total / limit); zero rows means zero pages.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
