package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokens() *tokenManager {
	return newTokenManager(testSecret, "crew-panel", time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := newTestTokens()
	accountID := uuid.New()

	token, err := tm.issue(accountID, RoleEmployee)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	id, err := tm.verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.AccountID != accountID {
		t.Errorf("account id = %s, want %s", id.AccountID, accountID)
	}
	if id.Role != RoleEmployee {
		t.Errorf("role = %s, want %s", id.Role, RoleEmployee)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	tm := newTestTokens()
	token, err := tm.issue(uuid.New(), RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Flip a character in the signature segment.
	last := token[len(token)-1]
	flip := byte('A')
	if last == 'A' {
		flip = 'B'
	}
	tampered := token[:len(token)-1] + string(flip)

	if _, err := tm.verify(tampered); err == nil {
		t.Fatal("verify accepted a tampered token")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	expired := newTokenManager(testSecret, "crew-panel", -time.Minute)
	token, err := expired.issue(uuid.New(), RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := newTestTokens().verify(token); err == nil {
		t.Fatal("verify accepted an expired token")
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	other := newTokenManager(testSecret, "someone-else", time.Hour)
	token, err := other.issue(uuid.New(), RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := newTestTokens().verify(token); err == nil {
		t.Fatal("verify accepted a token from another issuer")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	other := newTokenManager("ffffffffffffffffffffffffffffffff", "crew-panel", time.Hour)
	token, err := other.issue(uuid.New(), RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := newTestTokens().verify(token); err == nil {
		t.Fatal("verify accepted a token signed with another secret")
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	tm := newTestTokens()
	token, err := tm.issue(uuid.New(), Role("superuser"))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := tm.verify(token); err == nil {
		t.Fatal("verify accepted an unknown role claim")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tm := newTestTokens()
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := tm.verify(raw); err == nil {
			t.Errorf("verify(%q) accepted garbage", raw)
		}
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", true},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi", true},
		{"missing header", "", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"scheme only", "Bearer", "", false},
		{"empty token", "Bearer   ", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			got, err := bearerToken(r)
			if tc.wantOK && err != nil {
				t.Fatalf("bearerToken: %v", err)
			}
			if !tc.wantOK && err == nil {
				t.Fatal("bearerToken accepted a bad header")
			}
			if got != tc.want {
				t.Errorf("token = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	srv := &Server{tokens: newTestTokens(), metrics: NewMetrics()}
	accountID := uuid.New()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFromContext(r.Context())
		if !ok {
			t.Error("identity missing from context")
		}
		if id.AccountID != accountID {
			t.Errorf("context account = %s, want %s", id.AccountID, accountID)
		}
		w.WriteHeader(http.StatusOK)
	})

	token, err := srv.tokens.issue(accountID, RoleEmployee)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	t.Run("no credential yields 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		srv.requireRole(next).ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("invalid credential yields 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer nonsense")
		srv.requireRole(next).ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong role yields 403", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		srv.requireRole(next, RoleAdmin).ServeHTTP(rec, r)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), codeForbidden) {
			t.Errorf("body = %s, want %s code", rec.Body.String(), codeForbidden)
		}
	})

	t.Run("allowed role passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		srv.requireRole(next, RoleEmployee, RoleAdmin).ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("any role passes with empty set", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		srv.requireRole(next).ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
