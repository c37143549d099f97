package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestParseListParams(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		wantLimit  uint64
		wantOffset uint64
	}{
		{"defaults", "/api/notes", defaultListLimit, 0},
		{"explicit", "/api/notes?limit=10&offset=30", 10, 30},
		{"limit clamped", "/api/notes?limit=100000", maxListLimit, 0},
		{"zero limit falls back", "/api/notes?limit=0", defaultListLimit, 0},
		{"garbage falls back", "/api/notes?limit=abc&offset=-5", defaultListLimit, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.url, nil)
			p := parseListParams(r)
			if p.Limit != tc.wantLimit {
				t.Errorf("limit = %d, want %d", p.Limit, tc.wantLimit)
			}
			if p.Offset != tc.wantOffset {
				t.Errorf("offset = %d, want %d", p.Offset, tc.wantOffset)
			}
		})
	}
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()

	r := httptest.NewRequest(http.MethodGet, "/api/notes/"+id.String(), nil)
	got, ok := pathUUID(r, "/api/notes/")
	if !ok || got != id {
		t.Errorf("pathUUID = %s, %v; want %s, true", got, ok, id)
	}

	for _, path := range []string{
		"/api/notes/",
		"/api/notes/not-a-uuid",
		"/api/notes/" + id.String() + "/extra",
	} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if _, ok := pathUUID(r, "/api/notes/"); ok {
			t.Errorf("pathUUID accepted %q", path)
		}
	}
}
