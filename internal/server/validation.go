// validation.go - Input validation and sanitization helpers.
package server

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) bool {
	return len(email) <= 254 && emailRegex.MatchString(email)
}

var (
	hasNumber = regexp.MustCompile(`[0-9]`)
	hasLetter = regexp.MustCompile(`[a-zA-Z]`)
)

// validatePassword checks password strength requirements.
func validatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "password must be at least 8 characters long"
	}
	if len(password) > 128 {
		return false, "password must be less than 128 characters"
	}
	if !hasNumber.MatchString(password) || !hasLetter.MatchString(password) {
		return false, "password must contain both letters and numbers"
	}
	return true, ""
}

// validateName checks the optional display name.
func validateName(name string) (bool, string) {
	if len(name) > 100 {
		return false, "name must be less than 100 characters"
	}
	return true, ""
}

// allowedMimeTypes defines file types permitted for upload.
var allowedMimeTypes = map[string]bool{
	"application/pdf":   true,
	"application/json":  true,
	"application/xml":   true,
	"application/zip":   true,
	"application/gzip":  true,
	"application/x-tar": true,
	"text/plain":        true,
	"text/csv":          true,
	"text/html":         true,
	"text/markdown":     true,
	"image/jpeg":        true,
	"image/png":         true,
	"image/gif":         true,
	"image/webp":        true,
	"image/svg+xml":     true,
	"audio/mpeg":        true,
	"audio/ogg":         true,
	"video/mp4":         true,
	"video/webm":        true,

	// Generic binary fallback.
	"application/octet-stream": true,
}

// dangerousExtensions lists file extensions that are never accepted.
var dangerousExtensions = map[string]bool{
	".exe": true,
	".bat": true,
	".cmd": true,
	".com": true,
	".scr": true,
	".vbs": true,
	".jar": true,
	".msi": true,
	".dll": true,
	".so":  true,
}

// validateUploadMimeType checks the uploaded file against the allow-list
// and rejects dangerous executable extensions.
func validateUploadMimeType(filename, contentType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if dangerousExtensions[ext] {
		return fmt.Errorf("file type not allowed: %s", ext)
	}

	mimeType := strings.TrimSpace(strings.ToLower(contentType))
	if idx := strings.Index(mimeType, ";"); idx > 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if !allowedMimeTypes[mimeType] {
		return fmt.Errorf("content type not allowed: %s", mimeType)
	}
	return nil
}

// sanitizeFilename removes potentially dangerous characters from
// client-supplied filenames before they are stored or echoed back.
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "\x00", "")
	filename = strings.ReplaceAll(filename, "\"", "_")
	filename = strings.Trim(filename, " .")

	if len(filename) > 255 {
		ext := filepath.Ext(filename)
		base := filename[:len(filename)-len(ext)]
		filename = base[:255-len(ext)] + ext
	}

	if filename == "" {
		filename = "unnamed"
	}
	return filename
}
