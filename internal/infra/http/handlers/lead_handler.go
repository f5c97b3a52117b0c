package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/begari-sampath/crm-backend/internal/infra/http/middleware"
	"github.com/begari-sampath/crm-backend/internal/usecase"
)

const maxImportSize = 10 << 20 // 10 MB

type LeadHandler struct {
	leadRepo      entity.LeadRepositoryInterface
	assignLeads   *usecase.AssignLeadsUseCase
	updateLead    *usecase.UpdateLeadUseCase
	importLeads   *usecase.ImportLeadsUseCase
	exportLeads   *usecase.ExportLeadsUseCase
}

func NewLeadHandler(
	leadRepo entity.LeadRepositoryInterface,
	assignLeads *usecase.AssignLeadsUseCase,
	updateLead *usecase.UpdateLeadUseCase,
	importLeads *usecase.ImportLeadsUseCase,
	exportLeads *usecase.ExportLeadsUseCase,
) *LeadHandler {
	return &LeadHandler{
		leadRepo:    leadRepo,
		assignLeads: assignLeads,
		updateLead:  updateLead,
		importLeads: importLeads,
		exportLeads: exportLeads,
	}
}

// scopedFilter restricts BDAs to their own leads; admins see everything
// and may narrow by query params.
func scopedFilter(r *http.Request) entity.LeadFilter {
	identity, _ := middleware.IdentityFrom(r.Context())

	var filter entity.LeadFilter
	if identity.Role == entity.RoleBDA {
		id := identity.ID
		filter.AssignedAgentID = &id
		return filter
	}

	q := r.URL.Query()
	if agentID := q.Get("assigned_to"); agentID != "" {
		filter.AssignedAgentID = &agentID
	}
	if status := q.Get("status"); status != "" {
		s := entity.ParseStatus(status)
		filter.Status = &s
	}
	if q.Get("unassigned") == "true" {
		filter.Unassigned = true
	}
	return filter
}

func (h *LeadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leadRepo.Select(r.Context(), scopedFilter(r))
	if err != nil {
		middleware.RecordStoreError("select")
		log.Printf("failed to list leads: %v", err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"leads": leads, "total": len(leads)})
}

func (h *LeadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "id")

	lead, err := h.leadRepo.FindByID(r.Context(), leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			respondError(w, http.StatusNotFound, "lead not found")
			return
		}
		middleware.RecordStoreError("find")
		log.Printf("failed to fetch lead %s: %v", leadID, err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	// BDAs can only see leads assigned to them
	identity, _ := middleware.IdentityFrom(r.Context())
	if identity.Role == entity.RoleBDA {
		if lead.AssignedAgentID == nil || *lead.AssignedAgentID != identity.ID {
			respondError(w, http.StatusNotFound, "lead not found")
			return
		}
	}

	respondJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.updateLead.Execute(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		respondUseCaseError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "id")

	if err := h.leadRepo.Delete(r.Context(), leadID); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			respondError(w, http.StatusNotFound, "lead not found")
			return
		}
		middleware.RecordStoreError("delete")
		log.Printf("failed to delete lead %s: %v", leadID, err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *LeadHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var input usecase.AssignLeadsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, err := h.assignLeads.Execute(r.Context(), input)
	if err != nil {
		respondUseCaseError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, output)
}

func (h *LeadHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	output, err := h.importLeads.Execute(r.Context(), file)
	if err != nil {
		respondUseCaseError(w, err)
		return
	}

	middleware.RecordLeadsImported(output.Imported)
	log.Printf("✅ imported %d leads (%d rows dropped)", output.Imported, output.Dropped)
	respondJSON(w, http.StatusOK, output)
}

func (h *LeadHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	output, err := h.exportLeads.Execute(r.Context(), scopedFilter(r), time.Now())
	if err != nil {
		respondUseCaseError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", output.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(output.Data)
}
