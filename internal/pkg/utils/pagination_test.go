package utils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{"defaults", "", 1, DefaultPageSize, 0},
		{"explicit", "?page=3&page_size=10", 3, 10, 20},
		{"clamps page size", "?page_size=1000", 1, MaxPageSize, 0},
		{"negative page", "?page=-2", 1, DefaultPageSize, 0},
		{"zero page size", "?page_size=0", 1, DefaultPageSize, 0},
		{"garbage", "?page=abc&page_size=xyz", 1, DefaultPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/images"+tt.query, nil)
			p := ParsePaginationParams(r)
			if p.Page != tt.wantPage || p.PageSize != tt.wantPageSize || p.Offset != tt.wantOffset {
				t.Errorf("got %+v, want page=%d size=%d offset=%d", p, tt.wantPage, tt.wantPageSize, tt.wantOffset)
			}
		})
	}
}

func TestParsePaginationParams_CapsOffset(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/images?page=50000000&page_size=100", nil)
	p := ParsePaginationParams(r)
	if p.Page != 21474836 {
		t.Errorf("Page = %d, want 21474836", p.Page)
	}
	if p.Offset != 2147483500 {
		t.Errorf("Offset = %d, want 2147483500", p.Offset)
	}
}

func TestNewPage(t *testing.T) {
	p := PaginationParams{Page: 1, PageSize: 20}

	tests := []struct {
		total     int64
		wantPages int
	}{
		{0, 0},
		{20, 1},
		{41, 3},
	}
	for _, tt := range tests {
		if got := NewPage([]int{}, p, tt.total).TotalPages; got != tt.wantPages {
			t.Errorf("total %d: TotalPages = %d, want %d", tt.total, got, tt.wantPages)
		}
	}
}

func TestNewPage_NilItemsEncodeAsEmptyArray(t *testing.T) {
	b, err := json.Marshal(NewPage[string](nil, PaginationParams{Page: 1, PageSize: 20}, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"data":[]`) {
		t.Errorf("body = %s, want empty data array", b)
	}
}
