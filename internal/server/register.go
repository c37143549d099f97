// register.go - Account registration, login and credential handling.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// pgUniqueViolation is the PostgreSQL error code for a unique constraint
// violation, used to detect duplicate registrations atomically.
const pgUniqueViolation = "23505"

// Account is the public representation of an account. The password hash
// never appears here.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// hashPassword generates a bcrypt hash of the password. The hash embeds
// its own salt, so two hashes of the same password differ.
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword compares a password with its stored hash. It fails
// closed: any mismatch or corrupted hash yields false.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// registerHandler handles POST /api/auth/register.
func (s *Server) registerHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}

		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid request body")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		req.Name = strings.TrimSpace(req.Name)

		if !validateEmail(req.Email) {
			badRequest(w, "invalid email address")
			return
		}
		if ok, msg := validateName(req.Name); !ok {
			badRequest(w, msg)
			return
		}
		if ok, msg := validatePassword(req.Password); !ok {
			badRequest(w, msg)
			return
		}

		passwordHash, err := hashPassword(req.Password, s.cfg.Auth.BcryptCost)
		if err != nil {
			log.Printf("msg=register_hash_failed err=%v", err)
			internalError(w)
			return
		}

		account := Account{
			ID:        uuid.New().String(),
			Name:      req.Name,
			Email:     req.Email,
			Role:      RoleUser,
			CreatedAt: time.Now().UTC(),
		}

		// The unique index on email decides duplicates, so concurrent
		// registrations cannot race past a pre-check.
		_, err = s.db.ExecContext(r.Context(), `
			INSERT INTO accounts (id, name, email, password_hash, role, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, account.ID, account.Name, account.Email, passwordHash, account.Role, account.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				conflict(w, "email already registered")
				return
			}
			log.Printf("msg=register_insert_failed err=%v", err)
			internalError(w)
			return
		}

		s.metrics.RecordRegistration()
		log.Printf("msg=account_created account=%s", account.ID)
		writeJSON(w, http.StatusCreated, account)
	})
}

// loginHandler handles POST /api/auth/login. On success it returns a
// signed bearer token encoding the account id and role.
func (s *Server) loginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))

		var (
			idStr        string
			passwordHash string
			roleStr      string
		)
		err := s.db.QueryRowContext(r.Context(), `
			SELECT id, password_hash, role FROM accounts WHERE email = $1
		`, req.Email).Scan(&idStr, &passwordHash, &roleStr)
		if err != nil && err != sql.ErrNoRows {
			log.Printf("msg=login_query_failed err=%v", err)
			internalError(w)
			return
		}

		ok := err == nil && verifyPassword(req.Password, passwordHash)

		role, roleErr := ParseRole(roleStr)
		if ok && roleErr != nil {
			log.Printf("msg=login_bad_role account=%s role=%q", idStr, roleStr)
			ok = false
		}

		s.metrics.RecordLoginAttempt(ok)
		s.recordAudit(r, auditEntry{Action: auditActionLogin, Subject: req.Email, Success: ok})

		if !ok {
			unauthorized(w)
			return
		}

		accountID, err := uuid.Parse(idStr)
		if err != nil {
			internalError(w)
			return
		}

		token, err := s.tokens.issue(accountID, role)
		if err != nil {
			log.Printf("msg=login_token_failed err=%v", err)
			internalError(w)
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	})
}

// meHandler handles GET /api/auth/me for the authenticated account.
func (s *Server) meHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}

		id, ok := identityFromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}

		var account Account
		var roleStr string
		err := s.db.QueryRowContext(r.Context(), `
			SELECT id, name, email, role, created_at FROM accounts WHERE id = $1
		`, id.AccountID).Scan(&account.ID, &account.Name, &account.Email, &roleStr, &account.CreatedAt)
		if err == sql.ErrNoRows {
			notFound(w)
			return
		}
		if err != nil {
			log.Printf("msg=me_query_failed err=%v", err)
			internalError(w)
			return
		}
		account.Role, _ = ParseRole(roleStr)

		writeJSON(w, http.StatusOK, account)
	}))
}
