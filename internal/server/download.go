// download.go - Streaming file download.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
)

// downloadHandler handles GET /api/download/{id}: streams the stored
// object back with the original filename and checksum headers. Any
// authenticated role may download.
func (s *Server) downloadHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}

		fileID, ok := pathUUID(r, "/api/download/")
		if !ok {
			badRequest(w, "invalid file id")
			return
		}

		var (
			objectKey   string
			origName    string
			contentType string
			sizeBytes   int64
			shaHex      string
		)
		err := s.db.QueryRowContext(r.Context(), `
			SELECT object_key, orig_name, content_type, size_bytes, sha256_hex
			FROM files WHERE id = $1
		`, fileID).Scan(&objectKey, &origName, &contentType, &sizeBytes, &shaHex)
		if err == sql.ErrNoRows {
			notFound(w)
			return
		}
		if err != nil {
			log.Printf("msg=download_query_failed err=%v", err)
			internalError(w)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		obj, err := s.minio.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
		if err != nil {
			writeError(w, http.StatusBadGateway, codeInternal, "storage unavailable")
			return
		}
		defer func() { _ = obj.Close() }()

		// Stat forces an early error so a missing object yields a clean
		// status instead of a broken stream.
		if _, statErr := obj.Stat(); statErr != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=object_stat_failed key=%s err=%v", rid, objectKey, statErr)
			writeError(w, http.StatusBadGateway, codeInternal, "storage unavailable")
			return
		}

		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		if sizeBytes > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(sizeBytes, 10))
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, origName))
		w.Header().Set("X-Checksum-Sha256", shaHex)

		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, obj); err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=download_stream_failed key=%s err=%v", rid, objectKey, err)
			return
		}

		s.metrics.RecordDownload(sizeBytes)
	}))
}
