package handler

import (
	"net/http"
	"time"

	"github.com/BuzzLyutic/taskflow-api/pkg/respond"
)

type HealthStatus struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Uptime    float64   `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

type ServiceInfo struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type HealthHandler struct {
	version string
	started time.Time
	now     func() time.Time
}

func NewHealthHandler(version string, started time.Time) *HealthHandler {
	return &HealthHandler{version: version, started: started, now: time.Now}
}

// Health reports process uptime in seconds. The database flag is static: the
// store connection is verified once at startup.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	respond.Data(w, r, http.StatusOK, HealthStatus{
		Status:    "OK",
		Database:  "connected",
		Uptime:    now.Sub(h.started).Seconds(),
		Timestamp: now.UTC(),
	}, "")
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respond.Data(w, r, http.StatusOK, ServiceInfo{
		Name:    "Task Manager API",
		Version: h.version,
		Endpoints: map[string]string{
			"health": "/api/health",
			"tasks":  "/api/tasks",
			"users":  "/api/users",
		},
	}, "Task Manager API is running")
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, http.StatusNotFound, "Route "+r.URL.Path+" not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed on "+r.URL.Path)
}
