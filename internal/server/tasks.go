// tasks.go - CRUD handlers for the tasks collection.
//
// Reads are open to any authenticated role; writes are gated to
// employee and admin.
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

// Task is a to-do item with a completion flag.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Done        bool      `json:"done"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type createTaskReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTaskReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

const taskColumns = "id, title, description, done, created_by, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Done, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// tasksHandler handles the /api/tasks collection.
func (s *Server) tasksHandler() http.Handler {
	list := s.requireRole(http.HandlerFunc(s.listTasks))
	create := s.requireRole(http.HandlerFunc(s.createTask), RoleEmployee, RoleAdmin)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list.ServeHTTP(w, r)
		case http.MethodPost:
			create.ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})
}

// taskByIDHandler handles /api/tasks/{id}.
func (s *Server) taskByIDHandler() http.Handler {
	get := s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(r, "/api/tasks/")
		if !ok {
			badRequest(w, "invalid task id")
			return
		}
		s.getTask(w, r, id)
	}))
	mutate := s.requireRole(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(r, "/api/tasks/")
		if !ok {
			badRequest(w, "invalid task id")
			return
		}
		switch r.Method {
		case http.MethodPut:
			s.updateTask(w, r, id)
		case http.MethodDelete:
			s.deleteTask(w, r, id)
		}
	}), RoleEmployee, RoleAdmin)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			get.ServeHTTP(w, r)
		case http.MethodPut, http.MethodDelete:
			mutate.ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	p := parseListParams(r)

	builder := sq.
		Select(taskColumns).
		From("tasks").
		OrderBy("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		PlaceholderFormat(sq.Dollar)

	// Optional completion filter: ?done=true|false
	if raw := r.URL.Query().Get("done"); raw != "" {
		switch raw {
		case "true":
			builder = builder.Where(sq.Eq{"done": true})
		case "false":
			builder = builder.Where(sq.Eq{"done": false})
		default:
			badRequest(w, "done must be true or false")
			return
		}
	}

	query, args, err := builder.ToSql()
	if err != nil {
		internalError(w)
		return
	}

	rows, err := s.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		log.Printf("msg=tasks_list_failed err=%v", err)
		internalError(w)
		return
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			log.Printf("msg=tasks_scan_failed err=%v", err)
			continue
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		log.Printf("msg=tasks_rows_failed err=%v", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskReq
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
	task := Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   id.AccountID.String(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(r.Context(), `
		INSERT INTO tasks (id, title, description, done, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, $4, $5, $6)
	`, task.ID, task.Title, task.Description, task.CreatedBy, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		log.Printf("msg=task_insert_failed err=%v", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	row := s.db.QueryRowContext(r.Context(),
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		notFound(w)
		return
	}
	if err != nil {
		log.Printf("msg=task_get_failed err=%v", err)
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req updateTaskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Title == nil && req.Description == nil && req.Done == nil {
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

	if !s.canMutate(w, r, "tasks", id) {
		return
	}

	update := sq.Update("tasks").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + taskColumns).
		PlaceholderFormat(sq.Dollar)
	if req.Title != nil {
		update = update.Set("title", *req.Title)
	}
	if req.Description != nil {
		update = update.Set("description", *req.Description)
	}
	if req.Done != nil {
		update = update.Set("done", *req.Done)
	}

	query, args, err := update.ToSql()
	if err != nil {
		internalError(w)
		return
	}

	task, err := scanTask(s.db.QueryRowContext(r.Context(), query, args...))
	if err == sql.ErrNoRows {
		notFound(w)
		return
	}
	if err != nil {
		log.Printf("msg=task_update_failed err=%v", err)
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if !s.canMutate(w, r, "tasks", id) {
		return
	}

	res, err := s.db.ExecContext(r.Context(), `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Printf("msg=task_delete_failed err=%v", err)
		internalError(w)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		notFound(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
