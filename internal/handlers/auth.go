package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/auth"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/diewo77/ca-practice/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	store    *store.Store
	sessions *auth.Sessions
	log      *zap.Logger
}

func NewAuthHandler(s *store.Store, sessions *auth.Sessions, log *zap.Logger) *AuthHandler {
	return &AuthHandler{store: s, sessions: sessions, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func sessionUser(st *models.Staff) map[string]any {
	return map[string]any{"id": st.ID, "email": st.Email, "name": st.Name, "role": st.Role}
}

// Login: POST /api/auth/session {email, password}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if err := v.Err(); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	st, ok, err := h.store.StaffForLogin(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if !ok || bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(req.Password)) != nil {
		h.log.Info("login rejected", zap.String("email", req.Email))
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials", nil)
		return
	}
	h.sessions.CreateSession(w, st.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "user": sessionUser(st)})
}

// Me: GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.StaffIDFromContext(r.Context())
	st, err := h.store.Staff.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sessionUser(st))
}

// Logout: POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
}
