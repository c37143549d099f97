// upload.go - Streaming file upload.
//
// The multipart body is streamed straight to object storage; the
// SHA-256 checksum is computed on the same pass, so the file never
// touches local disk.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// uploadHandler handles POST /api/upload. The request must be
// multipart/form-data with a "file" part. Any authenticated role may
// upload.
func (s *Server) uploadHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}

		if s.cfg.Upload.MaxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBytes)
		}

		mr, err := r.MultipartReader()
		if err != nil {
			badRequest(w, "expected multipart/form-data")
			return
		}

		var filePart io.ReadCloser
		var origName, contentType string
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				badRequest(w, "malformed multipart body")
				return
			}
			if part.FormName() != "file" {
				_ = part.Close()
				continue
			}
			filePart = part
			origName = sanitizeFilename(part.FileName())
			contentType = part.Header.Get("Content-Type")
			break
		}
		if filePart == nil {
			badRequest(w, "missing file part")
			return
		}
		defer func() { _ = filePart.Close() }()

		if origName == "" {
			badRequest(w, "missing filename")
			return
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := validateUploadMimeType(origName, contentType); err != nil {
			badRequest(w, err.Error())
			return
		}

		ident, _ := identityFromContext(r.Context())
		id := uuid.New()
		objectKey := "uploads/" + id.String()

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		hasher := sha256.New()
		info, err := s.minio.PutObject(
			ctx,
			s.bucket,
			objectKey,
			io.TeeReader(filePart, hasher),
			-1,
			minio.PutObjectOptions{ContentType: contentType},
		)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=putobject_failed err=%v", rid, err)

			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, codeValidation, "file too large")
				return
			}
			writeError(w, http.StatusBadGateway, codeInternal, "storage unavailable")
			return
		}

		shaHex := hex.EncodeToString(hasher.Sum(nil))
		now := time.Now().UTC()

		_, err = s.db.ExecContext(r.Context(), `
			INSERT INTO files (id, object_key, orig_name, content_type, size_bytes, sha256_hex, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, objectKey, origName, contentType, info.Size, shaHex, ident.AccountID, now)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=file_insert_failed err=%v", rid, err)

			// The object is orphaned without its metadata row; best
			// effort cleanup keeps the bucket consistent.
			if rmErr := s.minio.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); rmErr != nil {
				log.Printf("rid=%s msg=orphan_cleanup_failed key=%s err=%v", rid, objectKey, rmErr)
			}
			internalError(w)
			return
		}

		s.metrics.RecordUpload(info.Size)

		writeJSON(w, http.StatusCreated, FileInfo{
			ID:          id.String(),
			OrigName:    origName,
			ContentType: contentType,
			SizeBytes:   info.Size,
			SHA256Hex:   shaHex,
			CreatedBy:   ident.AccountID.String(),
			CreatedAt:   now,
		})
	}))
}
