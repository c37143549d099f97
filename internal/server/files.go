// files.go - File metadata listing and deletion.
package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/minio/minio-go/v7"
)

// FileInfo is a stored file's metadata record.
type FileInfo struct {
	ID          string    `json:"id"`
	OrigName    string    `json:"orig_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	SHA256Hex   string    `json:"sha256_hex"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

const fileColumns = "id, orig_name, content_type, size_bytes, sha256_hex, created_by, created_at"

func scanFileInfo(row interface{ Scan(...any) error }) (FileInfo, error) {
	var f FileInfo
	err := row.Scan(&f.ID, &f.OrigName, &f.ContentType, &f.SizeBytes, &f.SHA256Hex, &f.CreatedBy, &f.CreatedAt)
	return f, err
}

// filesHandler handles GET /api/files: paginated metadata listing,
// newest first.
func (s *Server) filesHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}

		p := parseListParams(r)
		query, args, err := sq.
			Select(fileColumns).
			From("files").
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
			log.Printf("msg=files_list_failed err=%v", err)
			internalError(w)
			return
		}
		defer rows.Close()

		files := []FileInfo{}
		for rows.Next() {
			f, err := scanFileInfo(rows)
			if err != nil {
				log.Printf("msg=files_scan_failed err=%v", err)
				continue
			}
			files = append(files, f)
		}
		if err := rows.Err(); err != nil {
			log.Printf("msg=files_rows_failed err=%v", err)
			internalError(w)
			return
		}

		writeJSON(w, http.StatusOK, files)
	}))
}

// fileByIDHandler handles DELETE /api/files/{id}: removes the stored
// object, then the metadata row. Owner-or-admin.
func (s *Server) fileByIDHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}

		id, ok := pathUUID(r, "/api/files/")
		if !ok {
			badRequest(w, "invalid file id")
			return
		}

		if !s.canMutate(w, r, "files", id) {
			return
		}

		var objectKey string
		err := s.db.QueryRowContext(r.Context(),
			`SELECT object_key FROM files WHERE id = $1`, id).Scan(&objectKey)
		if err == sql.ErrNoRows {
			notFound(w)
			return
		}
		if err != nil {
			log.Printf("msg=file_delete_query_failed err=%v", err)
			internalError(w)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		// Object removal failure is logged but does not block removing
		// the metadata row; the object becomes unreachable either way.
		if err := s.minio.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
			log.Printf("msg=file_object_remove_failed file=%s err=%v", id, err)
		}

		res, err := s.db.ExecContext(r.Context(), `DELETE FROM files WHERE id = $1`, id)
		if err != nil {
			log.Printf("msg=file_delete_failed err=%v", err)
			internalError(w)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			notFound(w)
			return
		}

		s.recordAudit(r, auditEntry{Action: auditActionFileDelete, Subject: id.String(), Success: true})
		w.WriteHeader(http.StatusNoContent)
	}))
}
