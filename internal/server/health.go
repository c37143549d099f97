package server

import (
	"context"
	"net/http"
	"time"
)

type componentStatus string

const (
	componentUp   componentStatus = "up"
	componentDown componentStatus = "down"
)

type componentHealth struct {
	Status    componentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LatencyMs float64         `json:"latency_ms,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]componentHealth `json:"components"`
}

// healthHandler handles GET /health: a detailed check of the database
// and object storage. Returns 503 when any component is down.
func (s *Server) healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}

		resp := healthResponse{
			Status:     "healthy",
			Timestamp:  time.Now().UTC(),
			Components: map[string]componentHealth{},
		}

		resp.Components["database"] = s.checkDatabase(r.Context())
		resp.Components["storage"] = s.checkStorage(r.Context())

		code := http.StatusOK
		for _, c := range resp.Components {
			if c.Status == componentDown {
				resp.Status = "unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}

		writeJSON(w, code, resp)
	})
}

// readyHandler handles GET /ready: a quick database probe for load
// balancers.
func (s *Server) readyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var one int
		if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// liveHandler handles GET /live: always OK while the process runs.
func (s *Server) liveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
}

func (s *Server) checkDatabase(ctx context.Context) componentHealth {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return componentHealth{Status: componentDown, Message: "database ping failed"}
	}
	return componentHealth{
		Status:    componentUp,
		LatencyMs: float64(time.Since(start).Milliseconds()),
	}
}

func (s *Server) checkStorage(ctx context.Context) componentHealth {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := s.minio.BucketExists(ctx, s.bucket)
	if err != nil {
		return componentHealth{Status: componentDown, Message: "storage unreachable"}
	}
	if !exists {
		return componentHealth{Status: componentDown, Message: "bucket missing"}
	}
	return componentHealth{
		Status:    componentUp,
		LatencyMs: float64(time.Since(start).Milliseconds()),
	}
}
