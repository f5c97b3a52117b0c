package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/begari-sampath/crm-backend/internal/infra/http/middleware"
	"github.com/begari-sampath/crm-backend/internal/session"
	"github.com/begari-sampath/crm-backend/internal/usecase"
)

type AuthHandler struct {
	Sessions *session.Registry
	Limiter  *RateLimiter
}

func NewAuthHandler(sessions *session.Registry, limiter *RateLimiter) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Limiter: limiter}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      identityBody `json:"user"`
}

type identityBody struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
	IsBDA   bool   `json:"is_bda"`
}

func identityToBody(id session.Identity) identityBody {
	return identityBody{
		ID:      id.ID,
		Email:   id.Email,
		Name:    id.DisplayName,
		Role:    string(id.Role),
		IsAdmin: id.Role == entity.RoleAdmin,
		IsBDA:   id.Role == entity.RoleBDA,
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(getClientIP(r)) {
		respondError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if verrs := usecase.ValidateLoginInput(req.Email, req.Password); len(verrs) > 0 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"errors": verrs})
		return
	}

	identity, sess, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidCredentials) {
			middleware.RecordLogin("failure")
			respondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		middleware.RecordLogin("failure")
		log.Printf("login failed for %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	middleware.RecordLogin("success")
	respondJSON(w, http.StatusOK, loginResponse{
		Token:     sess.AccessToken,
		ExpiresAt: sess.ExpiresAt,
		User:      identityToBody(*identity),
	})
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	h.Sessions.Logout(r.Context(), identity.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	resolver, ok := h.Sessions.Get(identity.ID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "session not found")
		return
	}

	sess, err := resolver.Refresh(r.Context())
	if err != nil {
		log.Printf("token refresh failed for %s: %v", identity.ID, err)
		respondError(w, http.StatusUnauthorized, "could not refresh session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token":      sess.AccessToken,
		"expires_at": sess.ExpiresAt,
	})
}

func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, identityToBody(identity))
}
