package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"

	"crew-panel/internal/config"
)

// Server is the HTTP server with its backing services.
type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	db         *sql.DB
	minio      *minio.Client
	bucket     string
	tokens     *tokenManager
	metrics    *Metrics
}

// New builds the server and wires all routes and middleware.
func New(cfg *config.Config, db *sql.DB, mc *minio.Client) *Server {
	s := &Server{
		cfg:     cfg,
		db:      db,
		minio:   mc,
		bucket:  cfg.Storage.Bucket,
		tokens:  newTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL),
		metrics: NewMetrics(),
	}

	// Login and registration get a much smaller bucket than the rest of
	// the API.
	authLimiter := newRateLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow, s.metrics)

	mux := http.NewServeMux()

	mux.Handle("/health", s.healthHandler())
	mux.Handle("/ready", s.readyHandler())
	mux.Handle("/live", s.liveHandler())

	mux.Handle("/api/auth/register", authLimiter.middleware(s.registerHandler()))
	mux.Handle("/api/auth/login", authLimiter.middleware(s.loginHandler()))
	mux.Handle("/api/auth/me", s.meHandler())

	mux.Handle("/api/notes", s.notesHandler())
	mux.Handle("/api/notes/", s.noteByIDHandler())

	mux.Handle("/api/tasks", s.tasksHandler())
	mux.Handle("/api/tasks/", s.taskByIDHandler())

	mux.Handle("/api/upload", s.uploadHandler())
	mux.Handle("/api/download/", s.downloadHandler())
	mux.Handle("/api/files", s.filesHandler())
	mux.Handle("/api/files/", s.fileByIDHandler())

	mux.Handle("/api/admin/accounts", s.adminAccountsHandler())
	mux.Handle("/api/admin/accounts/", s.adminRoleHandler())
	mux.Handle("/api/admin/metrics", s.adminMetricsHandler())
	mux.Handle("/api/admin/audit", s.auditListHandler())

	// Wrap middleware: requestID -> logging -> security headers -> rate limit -> mux
	globalLimiter := newRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, s.metrics)

	var handler http.Handler = mux
	handler = globalLimiter.middleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return s
}

// Start listens and serves until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
