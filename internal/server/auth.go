// auth.go - Bearer token issuance/verification and the access gate.
//
// Tokens are HS256 JWTs carrying the account id as subject and the role
// as a custom claim. The middleware authenticates every protected
// request and injects the verified identity into the request context.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	errTokenMalformed = errors.New("malformed token")
	errTokenInvalid   = errors.New("invalid token")
)

// identity is the verified subject of a request.
type identity struct {
	AccountID uuid.UUID
	Role      Role
}

type identityKey struct{}

// identityFromContext returns the identity injected by the access gate.
func identityFromContext(ctx context.Context) (identity, bool) {
	id, ok := ctx.Value(identityKey{}).(identity)
	return id, ok
}

// tokenManager issues and verifies bearer tokens. The signing secret is
// process-wide configuration and never leaves this struct.
type tokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func newTokenManager(secret, issuer string, ttl time.Duration) *tokenManager {
	return &tokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// accessClaims extends the registered JWT claims with the account role.
type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// issue signs a token asserting the given account id and role.
func (m *tokenManager) issue(accountID uuid.UUID, role Role) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Role: string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// verify parses and validates a token, returning the asserted identity.
// Any failure mode (bad structure, bad signature, expiry, wrong issuer,
// unknown role) collapses to an error; callers must treat the request as
// unauthenticated.
func (m *tokenManager) verify(raw string) (identity, error) {
	if raw == "" {
		return identity{}, errTokenMalformed
	}

	token, err := jwt.ParseWithClaims(raw, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return identity{}, errTokenMalformed
		}
		return identity{}, errTokenInvalid
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return identity{}, errTokenInvalid
	}
	if claims.Issuer != m.issuer {
		return identity{}, errTokenInvalid
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return identity{}, errTokenInvalid
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return identity{}, errTokenInvalid
	}

	return identity{AccountID: accountID, Role: role}, nil
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errTokenMalformed
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errTokenMalformed
	}
	return strings.TrimSpace(token), nil
}

// requireRole gates a handler behind authentication and, when roles are
// given, membership in that role set. 401 before the handler runs when
// the credential is absent or invalid; 403 when the role is not
// permitted.
func (s *Server) requireRole(next http.Handler, roles ...Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			unauthorized(w)
			return
		}

		id, err := s.tokens.verify(token)
		if err != nil {
			unauthorized(w)
			return
		}

		if !id.Role.In(roles...) {
			forbidden(w)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
