package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Pinger reports whether the database answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the JSON response for health endpoints
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// LivenessHandler checks if the server is running and accepting requests.
// Always returns 200 OK.
func (s *Server) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.logger.DebugContext(ctx, "liveness check requested")

	writeHealth(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
		Version:   serverVersion,
	})
}

// ReadinessHandler returns 200 OK when document storage and the database
// are reachable, 503 otherwise
func (s *Server) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.logger.DebugContext(ctx, "readiness check requested")

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
		Version:   serverVersion,
		Checks:    make(map[string]string),
		Details:   make(map[string]string),
	}
	healthy := true

	if s.storageManager != nil && s.storageManager.IsAccessible() {
		response.Checks["storage"] = "accessible"
	} else {
		response.Checks["storage"] = "inaccessible"
		healthy = false
	}

	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.db.Ping(pingCtx)
		cancel()
		if err != nil {
			response.Checks["database"] = "unreachable"
			response.Details["database"] = err.Error()
			healthy = false
		} else {
			response.Checks["database"] = "reachable"
		}
	}

	if s.coach != nil {
		response.Details["sessions"] = strconv.Itoa(s.coach.Registry().Len())
	}

	if !healthy {
		response.Status = "unhealthy"
		writeHealth(w, http.StatusServiceUnavailable, response)
		s.logger.ErrorContext(ctx, "readiness check failed", "checks", response.Checks)
		return
	}
	writeHealth(w, http.StatusOK, response)
	s.logger.DebugContext(ctx, "readiness check completed", "status", "healthy")
}

func writeHealth(w http.ResponseWriter, status int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
