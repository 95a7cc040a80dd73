package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		url      string
		wantPage int
		wantSize int
	}{
		{"/audit", 1, PageSize},
		{"/audit?page=3", 3, PageSize},
		{"/audit?page=0", 1, PageSize},
		{"/audit?page=-2", 1, PageSize},
		{"/audit?page=abc", 1, PageSize},
		{"/audit?per_page=10", 1, 10},
		{"/audit?per_page=5000", 1, MaxPageSize},
		{"/audit?page=2&per_page=25", 2, 25},
		{"/audit?page=9223372036854775807", MaxPage, PageSize},
		{"/audit?page=9223372036854775808", 1, PageSize},
		{"/audit?page=9223372036854775806&per_page=100", MaxPage, 100},
		{"/audit?page=99999999999", MaxPage, PageSize},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			p := Parse(httptest.NewRequest("GET", tt.url, nil))
			if p.Page != tt.wantPage || p.Size != tt.wantSize {
				t.Errorf("Parse(%s) = %+v, want page %d size %d", tt.url, p, tt.wantPage, tt.wantSize)
			}
		})
	}
}

func TestParams_OffsetLimit(t *testing.T) {
	p := Params{Page: 3, Size: 20}
	if p.Offset() != 40 {
		t.Errorf("Offset = %d, want 40", p.Offset())
	}
	if p.Limit() != 20 {
		t.Errorf("Limit = %d, want 20", p.Limit())
	}
}

func TestParse_HugePageOffsetStaysPositive(t *testing.T) {
	for _, url := range []string{
		"/audit?page=9223372036854775806&per_page=200",
		"/audit?page=4611686018427387904&per_page=100",
	} {
		p := Parse(httptest.NewRequest("GET", url, nil))
		if p.Offset() < 0 {
			t.Errorf("Parse(%s).Offset() = %d, want non-negative", url, p.Offset())
		}
		if want := int64(MaxPage-1) * int64(p.Size); p.Offset() != want {
			t.Errorf("Parse(%s).Offset() = %d, want %d", url, p.Offset(), want)
		}
	}
}

func TestNewMeta(t *testing.T) {
	tests := []struct {
		name      string
		p         Params
		total     int64
		wantPages int
		wantPrev  bool
		wantNext  bool
	}{
		{"empty", Params{1, 50}, 0, 1, false, false},
		{"single page", Params{1, 50}, 50, 1, false, false},
		{"first of two", Params{1, 50}, 51, 2, false, true},
		{"last of two", Params{2, 50}, 51, 2, true, false},
		{"middle", Params{2, 10}, 35, 4, true, true},
		{"past the end", Params{9, 10}, 35, 4, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeta(tt.p, tt.total)
			if m.TotalPages != tt.wantPages || m.HasPrev != tt.wantPrev || m.HasNext != tt.wantNext {
				t.Errorf("NewMeta = %+v, want pages=%d prev=%v next=%v", m, tt.wantPages, tt.wantPrev, tt.wantNext)
			}
			if m.Total != tt.total || m.Page != tt.p.Page || m.PerPage != tt.p.Size {
				t.Errorf("NewMeta echoed wrong values: %+v", m)
			}
		})
	}
}
