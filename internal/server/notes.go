// notes.go - CRUD handlers for the notes collection.
package server

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Note is a free-form text record.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createNoteReq struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// updateNoteReq carries a partial update; nil fields are left untouched.
type updateNoteReq struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

const noteColumns = "id, title, body, created_by, created_at, updated_at"

func scanNote(row interface{ Scan(...any) error }) (Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.Title, &n.Body, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

// notesHandler handles the /api/notes collection: GET lists newest
// first with pagination, POST creates. Any authenticated role.
func (s *Server) notesHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.listNotes(w, r)
		case http.MethodPost:
			s.createNote(w, r)
		default:
			methodNotAllowed(w)
		}
	}))
}

// noteByIDHandler handles /api/notes/{id}: GET, PUT, DELETE.
func (s *Server) noteByIDHandler() http.Handler {
	return s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(r, "/api/notes/")
		if !ok {
			badRequest(w, "invalid note id")
			return
		}

		switch r.Method {
		case http.MethodGet:
			s.getNote(w, r, id)
		case http.MethodPut:
			s.updateNote(w, r, id)
		case http.MethodDelete:
			s.deleteNote(w, r, id)
		default:
			methodNotAllowed(w)
		}
	}))
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	p := parseListParams(r)
	query, args, err := sq.
		Select(noteColumns).
		From("notes").
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
		log.Printf("msg=notes_list_failed err=%v", err)
		internalError(w)
		return
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			log.Printf("msg=notes_scan_failed err=%v", err)
			continue
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		log.Printf("msg=notes_rows_failed err=%v", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		badRequest(w, "title is required")
		return
	}

	id, _ := identityFromContext(r.Context())
	now := time.Now().UTC()
	note := Note{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Body:      req.Body,
		CreatedBy: id.AccountID.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(r.Context(), `
		INSERT INTO notes (id, title, body, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, note.ID, note.Title, note.Body, note.CreatedBy, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		log.Printf("msg=note_insert_failed err=%v", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	row := s.db.QueryRowContext(r.Context(),
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		notFound(w)
		return
	}
	if err != nil {
		log.Printf("msg=note_get_failed err=%v", err)
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req updateNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Title == nil && req.Body == nil {
		badRequest(w, "no fields to update")
		return
	}
	if req.Title != nil {
		*req.Title = strings.TrimSpace(*req.Title)
		if *req.Title == "" {
			badRequest(w, "title must not be empty")
			return
		}
	}

	if !s.canMutate(w, r, "notes", id) {
		return
	}

	update := sq.Update("notes").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + noteColumns).
		PlaceholderFormat(sq.Dollar)
	if req.Title != nil {
		update = update.Set("title", *req.Title)
	}
	if req.Body != nil {
		update = update.Set("body", *req.Body)
	}

	query, args, err := update.ToSql()
	if err != nil {
		internalError(w)
		return
	}

	note, err := scanNote(s.db.QueryRowContext(r.Context(), query, args...))
	if err == sql.ErrNoRows {
		notFound(w)
		return
	}
	if err != nil {
		log.Printf("msg=note_update_failed err=%v", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if !s.canMutate(w, r, "notes", id) {
		return
	}

	res, err := s.db.ExecContext(r.Context(), `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		log.Printf("msg=note_delete_failed err=%v", err)
		internalError(w)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		notFound(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// canMutate enforces the owner-or-admin rule for a record in the given
// table. It writes the error response itself and reports whether the
// caller may proceed. Missing records yield 404 so the response matches
// a plain lookup.
func (s *Server) canMutate(w http.ResponseWriter, r *http.Request, table string, id uuid.UUID) bool {
	ident, ok := identityFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return false
	}
	if ident.Role == RoleAdmin {
		return true
	}

	var createdBy string
	err := s.db.QueryRowContext(r.Context(),
		`SELECT created_by FROM `+table+` WHERE id = $1`, id).Scan(&createdBy)
	if err == sql.ErrNoRows {
		notFound(w)
		return false
	}
	if err != nil {
		log.Printf("msg=owner_check_failed table=%s err=%v", table, err)
		internalError(w)
		return false
	}
	if createdBy != ident.AccountID.String() {
		forbidden(w)
		return false
	}
	return true
}
