package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/begari-sampath/crm-backend/internal/infra/http/middleware"
	"github.com/begari-sampath/crm-backend/internal/usecase"
)

type DashboardHandler struct {
	leadRepo entity.LeadRepositoryInterface
}

func NewDashboardHandler(leadRepo entity.LeadRepositoryInterface) *DashboardHandler {
	return &DashboardHandler{leadRepo: leadRepo}
}

// scope returns the agent id the metrics should be narrowed to: the caller's
// own id for BDAs, or the optional agent_id query param for admins.
func (h *DashboardHandler) scope(r *http.Request) *string {
	identity, _ := middleware.IdentityFrom(r.Context())
	if identity.Role == entity.RoleBDA {
		id := identity.ID
		return &id
	}
	if agentID := r.URL.Query().Get("agent_id"); agentID != "" {
		return &agentID
	}
	return nil
}

func (h *DashboardHandler) leads(w http.ResponseWriter, r *http.Request) ([]*entity.Lead, bool) {
	leads, err := h.leadRepo.Select(r.Context(), entity.LeadFilter{})
	if err != nil {
		middleware.RecordStoreError("select")
		log.Printf("dashboard: failed to load leads: %v", err)
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
		return nil, false
	}
	return leads, true
}

func (h *DashboardHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	leads, ok := h.leads(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, usecase.AggregateMetrics(leads, h.scope(r), time.Now()))
}

// HandleCalendar returns every follow-up event in the caller's scope,
// bucketed and sorted. An optional date=YYYY-MM-DD param narrows to one
// calendar day.
func (h *DashboardHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	leads, ok := h.leads(w, r)
	if !ok {
		return
	}

	events := usecase.ClassifyFollowUps(scopeLeads(leads, h.scope(r)), time.Now())

	if date := r.URL.Query().Get("date"); date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		events = usecase.EventsOnDay(events, parsed)
	}

	respondJSON(w, http.StatusOK, map[string]any{"events": events, "total": len(events)})
}

// HandleNotifications returns the badge list: overdue follow-ups first,
// then today's.
func (h *DashboardHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	leads, ok := h.leads(w, r)
	if !ok {
		return
	}

	events := usecase.ClassifyFollowUps(scopeLeads(leads, h.scope(r)), time.Now())
	notifications := usecase.Notifications(events)

	respondJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// HandleReminders returns the follow-ups due within the next hour, split
// into urgent and hourly classes. Same computation the background poller
// runs, exposed for the dashboard's toast polling.
func (h *DashboardHandler) HandleReminders(w http.ResponseWriter, r *http.Request) {
	leads, ok := h.leads(w, r)
	if !ok {
		return
	}

	events := usecase.ClassifyFollowUps(scopeLeads(leads, h.scope(r)), time.Now())
	reminders := usecase.DueReminders(events, time.Now())

	respondJSON(w, http.StatusOK, map[string]any{"reminders": reminders, "total": len(reminders)})
}

func scopeLeads(leads []*entity.Lead, agentID *string) []*entity.Lead {
	if agentID == nil {
		return leads
	}
	out := make([]*entity.Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.AssignedAgentID != nil && *lead.AssignedAgentID == *agentID {
			out = append(out, lead)
		}
	}
	return out
}
