package paging

import (
	"net/http/httptest"
	"testing"
)

func TestLimit(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int64
	}{
		{"missing", "/api/clubs", DefaultPageSize},
		{"explicit", "/api/clubs?limit=25", 25},
		{"one", "/api/clubs?limit=1", 1},
		{"zero falls back", "/api/clubs?limit=0", DefaultPageSize},
		{"negative falls back", "/api/clubs?limit=-5", DefaultPageSize},
		{"garbage falls back", "/api/clubs?limit=lots", DefaultPageSize},
		{"clamped", "/api/clubs?limit=9999", MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := Limit(r); got != tt.want {
				t.Errorf("Limit(%q) = %d, want %d", tt.url, got, tt.want)
			}
		})
	}
}
