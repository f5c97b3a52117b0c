package usecase

import (
	"sort"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

const recentActivityLimit = 10

type Metrics struct {
	TotalLeads      int                       `json:"total_leads"`
	NewLeads        int                       `json:"new_leads"`
	FollowUpsToday  int                       `json:"follow_ups_today"`
	UnassignedLeads int                       `json:"unassigned_leads"`
	ConversionRate  int                       `json:"conversion_rate"`
	LeadsByStatus   map[entity.LeadStatus]int `json:"leads_by_status"`
	RecentActivity  []*entity.Lead            `json:"recent_activity"`
}

// AggregateMetrics computes the dashboard summary over a lead collection.
// When scopeAgentID is non-nil the collection is narrowed to that agent's
// leads before anything is counted, so the admin's scoped view and a BDA's
// own view come out of the same code path.
func AggregateMetrics(leads []*entity.Lead, scopeAgentID *string, now time.Time) Metrics {
	if scopeAgentID != nil {
		leads = filterByAgent(leads, *scopeAgentID)
	}

	m := Metrics{
		TotalLeads:    len(leads),
		LeadsByStatus: make(map[entity.LeadStatus]int, len(entity.AllStatuses)),
	}

	closedWon := 0
	for _, lead := range leads {
		m.LeadsByStatus[lead.Status]++
		if lead.Status == entity.StatusNew {
			m.NewLeads++
		}
		if lead.Status == entity.StatusClosedWon {
			closedWon++
		}
		if lead.AssignedAgentID == nil {
			m.UnassignedLeads++
		}
		if lead.FollowUpDate != nil && BucketFor(*lead.FollowUpDate, now) == BucketToday {
			m.FollowUpsToday++
		}
	}

	if len(leads) > 0 {
		m.ConversionRate = int(float64(closedWon)/float64(len(leads))*100 + 0.5)
	}

	m.RecentActivity = recentActivity(leads, recentActivityLimit)
	return m
}

// recentActivity sorts by updatedAt descending with a stable id tie-break so
// repeated calls on the same input always agree.
func recentActivity(leads []*entity.Lead, limit int) []*entity.Lead {
	sorted := make([]*entity.Lead, len(leads))
	copy(sorted, leads)

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].UpdatedAt.Equal(sorted[j].UpdatedAt) {
			return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func filterByAgent(leads []*entity.Lead, agentID string) []*entity.Lead {
	out := make([]*entity.Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.AssignedAgentID != nil && *lead.AssignedAgentID == agentID {
			out = append(out, lead)
		}
	}
	return out
}

type AgentPerformance struct {
	AgentID        string `json:"agent_id"`
	AgentName      string `json:"agent_name"`
	TotalLeads     int    `json:"total_leads"`
	FollowUpsMade  int    `json:"follow_ups_made"`
	QuotationsSent int    `json:"quotations_sent"`
	DealsClosed    int    `json:"deals_closed"`
}

// AggregatePerformance builds the admin report: one row per BDA over the
// full lead collection.
func AggregatePerformance(leads []*entity.Lead, agents []*entity.Profile) []AgentPerformance {
	rows := make([]AgentPerformance, 0, len(agents))

	for _, agent := range agents {
		scoped := filterByAgent(leads, agent.ID)
		row := AgentPerformance{
			AgentID:    agent.ID,
			AgentName:  agent.Name,
			TotalLeads: len(scoped),
		}
		for _, lead := range scoped {
			if lead.Status != entity.StatusNew {
				row.FollowUpsMade++
			}
			if lead.QuotationSent {
				row.QuotationsSent++
			}
			if lead.Status == entity.StatusClosedWon {
				row.DealsClosed++
			}
		}
		rows = append(rows, row)
	}

	return rows
}
