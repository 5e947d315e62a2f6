package handler

import (
	"net/http"

	"github.com/rosterapi/roster/internal/model"
	"github.com/rosterapi/roster/internal/router"
	"github.com/rosterapi/roster/internal/service"
)

// AuthHandler serves the login endpoint.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the demo credential pair and returns a bearer token.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, _ router.Params) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON input")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	if err := h.authSvc.VerifyCredentials(req.Email, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.authSvc.IssueToken(1, req.Email, "admin")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     token,
		ExpiresIn: int(h.authSvc.TokenTTL().Seconds()),
	})
}
