// params.go - Shared request parameter parsing.
package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// listParams bounds list endpoints; unbounded find-all is not supported.
type listParams struct {
	Limit  uint64
	Offset uint64
}

// parseListParams reads limit/offset query parameters, applying the
// default and clamping the limit to maxListLimit. Malformed values fall
// back to defaults rather than failing the request.
func parseListParams(r *http.Request) listParams {
	p := listParams{Limit: defaultListLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			p.Offset = v
		}
	}
	return p
}

// pathUUID extracts a trailing UUID path segment, e.g. the id in
// /api/notes/{id}.
func pathUUID(r *http.Request, prefix string) (uuid.UUID, bool) {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
