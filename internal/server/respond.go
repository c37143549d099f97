// respond.go - JSON response and error envelope helpers.
//
// Every handler-level failure is translated here into a structured
// response with a status code and a short message; internal detail
// never reaches the caller.
package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// Error codes returned in the error envelope.
const (
	codeValidation      = "validation_error"
	codeConflict        = "conflict"
	codeNotFound        = "not_found"
	codeUnauthorized    = "unauthorized"
	codeForbidden       = "forbidden"
	codeTooManyRequests = "too_many_requests"
	codeInternal        = "internal_error"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("msg=encode_response_failed err=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: msg}})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, codeValidation, msg)
}

func conflict(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusConflict, codeConflict, msg)
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, codeNotFound, "not found")
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
}

func forbidden(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, codeValidation, "method not allowed")
}
