// audit.go - Audit trail for security-relevant events.
//
// Inserts are best effort: a failed audit write is logged but never
// fails the request that triggered it.
package server

import (
	"log"
	"net/http"
	"time"

	sq "github.com/Masterminds/squirrel"
)

type auditAction string

const (
	auditActionLogin      auditAction = "login"
	auditActionRoleChange auditAction = "role_change"
	auditActionFileDelete auditAction = "file_delete"
)

type auditEntry struct {
	Action  auditAction
	Subject string
	Detail  string
	Success bool
}

// auditRecord is an audit row as returned to admins.
type auditRecord struct {
	ID        int64     `json:"id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Success   bool      `json:"success"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// recordAudit writes one audit row for the request. The actor is taken
// from the request context when the access gate has run.
func (s *Server) recordAudit(r *http.Request, e auditEntry) {
	var actorID any
	if id, ok := identityFromContext(r.Context()); ok {
		actorID = id.AccountID.String()
	}

	_, err := s.db.ExecContext(r.Context(), `
		INSERT INTO audit_log (actor_id, action, subject, detail, success, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, actorID, e.Action, e.Subject, e.Detail, e.Success, getClientIP(r))
	if err != nil {
		log.Printf("msg=audit_write_failed action=%s err=%v", e.Action, err)
	}
}

// auditListHandler handles GET /api/admin/audit.
func (s *Server) auditListHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}

		p := parseListParams(r)
		query, args, err := sq.
			Select("id", "COALESCE(actor_id::text, '')", "action", "subject", "detail", "success", "ip_address", "created_at").
			From("audit_log").
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
			log.Printf("msg=audit_list_failed err=%v", err)
			internalError(w)
			return
		}
		defer rows.Close()

		records := []auditRecord{}
		for rows.Next() {
			var rec auditRecord
			if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Action, &rec.Subject,
				&rec.Detail, &rec.Success, &rec.IPAddress, &rec.CreatedAt); err != nil {
				log.Printf("msg=audit_scan_failed err=%v", err)
				continue
			}
			records = append(records, rec)
		}
		if err := rows.Err(); err != nil {
			log.Printf("msg=audit_rows_failed err=%v", err)
			internalError(w)
			return
		}

		writeJSON(w, http.StatusOK, records)
	}), RoleAdmin)
}
