// admin.go - Admin-only account management and metrics endpoints.
package server

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// adminAccountsHandler handles GET /api/admin/accounts: a paginated
// listing of every account.
func (s *Server) adminAccountsHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}

		p := parseListParams(r)
		query, args, err := sq.
			Select("id", "name", "email", "role", "created_at").
			From("accounts").
			OrderBy("created_at DESC").
			Limit(p.Limit).
			Offset(p.Offset).
			PlaceholderFormat(sq.Dollar).
			ToSql()
		if err != nil {
			internalError(w)
			return
		}

		rows, err := s.db.QueryContext(r.Context(), query, args...)
		if err != nil {
			log.Printf("msg=accounts_list_failed err=%v", err)
			internalError(w)
			return
		}
		defer rows.Close()

		accounts := []Account{}
		for rows.Next() {
			var a Account
			if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt); err != nil {
				log.Printf("msg=accounts_scan_failed err=%v", err)
				continue
			}
			accounts = append(accounts, a)
		}
		if err := rows.Err(); err != nil {
			log.Printf("msg=accounts_rows_failed err=%v", err)
			internalError(w)
			return
		}

		writeJSON(w, http.StatusOK, accounts)
	}), RoleAdmin)
}

type changeRoleReq struct {
	Role string `json:"role"`
}

// adminRoleHandler handles PUT /api/admin/accounts/{id}/role. An admin
// cannot change their own role, which prevents locking the last admin
// out of the panel.
func (s *Server) adminRoleHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}

		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/accounts/"), "/")
		rest = strings.TrimSuffix(rest, "/role")
		accountID, err := uuid.Parse(rest)
		if err != nil {
			badRequest(w, "invalid account id")
			return
		}

		var req changeRoleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		newRole, err := ParseRole(req.Role)
		if err != nil {
			badRequest(w, "role must be one of user, employee, admin")
			return
		}

		ident, _ := identityFromContext(r.Context())
		if ident.AccountID == accountID {
			forbidden(w)
			return
		}

		res, err := s.db.ExecContext(r.Context(),
			`UPDATE accounts SET role = $1 WHERE id = $2`, newRole, accountID)
		if err != nil {
			log.Printf("msg=role_update_failed account=%s err=%v", accountID, err)
			internalError(w)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			notFound(w)
			return
		}

		s.recordAudit(r, auditEntry{
			Action:  auditActionRoleChange,
			Subject: accountID.String(),
			Detail:  "role=" + string(newRole),
			Success: true,
		})

		row := s.db.QueryRowContext(r.Context(),
			`SELECT id, name, email, role, created_at FROM accounts WHERE id = $1`, accountID)
		var a Account
		if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt); err != nil {
			if err == sql.ErrNoRows {
				notFound(w)
				return
			}
			log.Printf("msg=role_readback_failed err=%v", err)
			internalError(w)
			return
		}

		writeJSON(w, http.StatusOK, a)
	}), RoleAdmin)
}

// adminMetricsHandler handles GET /api/admin/metrics.
func (s *Server) adminMetricsHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, s.metrics.Snapshot())
	}), RoleAdmin)
}
