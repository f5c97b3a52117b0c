package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/begari-sampath/crm-backend/internal/infra/auth"
	"github.com/begari-sampath/crm-backend/internal/infra/http/middleware"
	"github.com/begari-sampath/crm-backend/internal/usecase"
)

type AgentHandler struct {
	profileRepo entity.ProfileRepositoryInterface
	leadRepo    entity.LeadRepositoryInterface
}

func NewAgentHandler(profileRepo entity.ProfileRepositoryInterface, leadRepo entity.LeadRepositoryInterface) *AgentHandler {
	return &AgentHandler{profileRepo: profileRepo, leadRepo: leadRepo}
}

func (h *AgentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	agents, err := h.profileRepo.ListByRole(r.Context(), entity.RoleBDA)
	if err != nil {
		middleware.RecordStoreError("list_profiles")
		log.Printf("failed to list agents: %v", err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"agents": agents, "total": len(agents)})
}

type createAgentRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AgentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, "email is invalid")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "password must have at least 8 characters")
		return
	}

	if _, err := h.profileRepo.FindByEmail(r.Context(), req.Email); err == nil {
		respondError(w, http.StatusConflict, "an agent with this email already exists")
		return
	} else if !errors.Is(err, entity.ErrProfileNotFound) {
		middleware.RecordStoreError("find_profile")
		log.Printf("failed to check agent email %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("failed to hash password: %v", err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	now := time.Now()
	profile := &entity.Profile{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		Role:         entity.RoleBDA,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.profileRepo.Upsert(r.Context(), profile); err != nil {
		middleware.RecordStoreError("upsert_profile")
		log.Printf("failed to create agent %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	respondJSON(w, http.StatusCreated, profile)
}

// HandlePerformance returns per-agent lead counts and conversion for the
// admin reports page.
func (h *AgentHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	agents, err := h.profileRepo.ListByRole(r.Context(), entity.RoleBDA)
	if err != nil {
		middleware.RecordStoreError("list_profiles")
		log.Printf("failed to list agents: %v", err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	leads, err := h.leadRepo.Select(r.Context(), entity.LeadFilter{})
	if err != nil {
		middleware.RecordStoreError("select")
		log.Printf("failed to load leads: %v", err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"performance": usecase.AggregatePerformance(leads, agents),
	})
}
