package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if seen == "" {
			t.Error("no request id injected")
		}
		if rec.Header().Get("X-Request-Id") != seen {
			t.Error("response header does not echo the request id")
		}
	})

	t.Run("client id kept", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-Id", "client-supplied")
		handler.ServeHTTP(httptest.NewRecorder(), r)
		if seen != "client-supplied" {
			t.Errorf("request id = %q, want client-supplied", seen)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	handler := securityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	notFound(rec)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != codeNotFound {
		t.Errorf("code = %q, want %q", resp.Error.Code, codeNotFound)
	}
	if resp.Error.Message == "" {
		t.Error("message is empty")
	}
}

func TestNormaliseEndpoint(t *testing.T) {
	cases := []struct {
		in         string
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{"minio:9000", "minio:9000", false, false},
		{"http://minio:9000", "minio:9000", false, false},
		{"https://s3.example.com", "s3.example.com", true, false},
		{"", "", false, true},
		{"http://minio:9000/bucket", "", false, true},
	}

	for _, tc := range cases {
		host, secure, err := normaliseEndpoint(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("normaliseEndpoint(%q) accepted bad input", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("normaliseEndpoint(%q): %v", tc.in, err)
			continue
		}
		if host != tc.wantHost {
			t.Errorf("normaliseEndpoint(%q) host = %q, want %q", tc.in, host, tc.wantHost)
		}
		if secure != tc.wantSecure {
			t.Errorf("normaliseEndpoint(%q) secure = %v, want %v", tc.in, secure, tc.wantSecure)
		}
	}
}
