package handler

import (
	"net/http"
	"time"

	"github.com/rosterapi/roster/internal/model"
	"github.com/rosterapi/roster/internal/router"
)

// SystemHandler serves the health and endpoint-listing routes. Both sit
// behind the authenticator like every non-login route.
type SystemHandler struct {
	version string
}

// NewSystemHandler creates a SystemHandler reporting the given version.
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{version: version}
}

// Health reports liveness.
// GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request, _ router.Params) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
		Version:   h.version,
	})
}

// Index lists the API surface.
// GET /
func (h *SystemHandler) Index(w http.ResponseWriter, r *http.Request, _ router.Params) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Student Management API",
		"version": h.version,
		"endpoints": map[string]string{
			"POST /auth/login":      "Login and get a bearer token",
			"GET /students":         "List students (paginated)",
			"GET /students/{id}":    "Get a specific student",
			"POST /students":        "Create a new student",
			"PUT /students/{id}":    "Update a student",
			"DELETE /students/{id}": "Delete a student",
			"GET /health":           "Health check",
		},
	})
}
