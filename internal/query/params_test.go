package query

import (
	"net/url"
	"testing"
)

func TestParseListDefaults(t *testing.T) {
	p := ParseList(url.Values{}, []string{"created_at", "name"})

	if p.Page != 1 {
		t.Errorf("default page = %d, want 1", p.Page)
	}
	if p.Limit != DefaultLimit {
		t.Errorf("default limit = %d, want %d", p.Limit, DefaultLimit)
	}
	if p.SortBy != "created_at" {
		t.Errorf("default sort = %q, want created_at", p.SortBy)
	}
	if p.Ascending {
		t.Error("default order should be descending")
	}
}

func TestParseListValues(t *testing.T) {
	values := url.Values{
		"page":       {"3"},
		"limit":      {"25"},
		"search":     {"acme"},
		"sort_by":    {"name"},
		"sort_order": {"asc"},
	}

	p := ParseList(values, []string{"created_at", "name"})

	if p.Page != 3 || p.Limit != 25 {
		t.Errorf("got page=%d limit=%d, want 3/25", p.Page, p.Limit)
	}
	if p.Search != "acme" {
		t.Errorf("search = %q, want acme", p.Search)
	}
	if p.SortBy != "name" || !p.Ascending {
		t.Errorf("got sort=%q asc=%v, want name asc", p.SortBy, p.Ascending)
	}
	if p.Offset() != 50 {
		t.Errorf("offset = %d, want 50", p.Offset())
	}
	if p.Order() != "name asc" {
		t.Errorf("order = %q, want %q", p.Order(), "name asc")
	}
}

func TestParseListClampsBadInput(t *testing.T) {
	cases := []struct {
		name        string
		page, limit string
		wantPage    int
		wantLimit   int
	}{
		{"negative page", "-2", "10", 1, 10},
		{"zero limit", "1", "0", 1, DefaultLimit},
		{"limit at cap", "1", "100", 1, MaxLimit},
		{"oversized limit", "1", "5000", 1, MaxLimit},
		{"garbage", "abc", "xyz", 1, DefaultLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := url.Values{"page": {tc.page}, "limit": {tc.limit}}
			p := ParseList(values, nil)
			if p.Page != tc.wantPage || p.Limit != tc.wantLimit {
				t.Errorf("got page=%d limit=%d, want %d/%d", p.Page, p.Limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestSortColumnFallback(t *testing.T) {
	allowed := []string{"created_at", "name", "email", "last_login"}

	if got := SortColumn("email", allowed); got != "email" {
		t.Errorf("allowed column rewritten to %q", got)
	}
	if got := SortColumn("not_a_real_column", allowed); got != "created_at" {
		t.Errorf("unknown column resolved to %q, want created_at", got)
	}
	if got := SortColumn("", allowed); got != "created_at" {
		t.Errorf("empty column resolved to %q, want created_at", got)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
		{100, 25, 4},
	}

	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}

func TestMetaWithNextPage(t *testing.T) {
	p := ListParams{Page: 2, Limit: 10}
	m := NewMeta(25, p).WithNextPage()

	if m.TotalPages != 3 {
		t.Errorf("total_pages = %d, want 3", m.TotalPages)
	}
	if m.HasNextPage == nil || !*m.HasNextPage {
		t.Error("page 2 of 25 rows should have a next page")
	}

	last := NewMeta(25, ListParams{Page: 3, Limit: 10}).WithNextPage()
	if last.HasNextPage == nil || *last.HasNextPage {
		t.Error("page 3 of 25 rows should not have a next page")
	}
}
