package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	StatusNew         LeadStatus = "new"
	StatusContacted   LeadStatus = "contacted"
	StatusQualified   LeadStatus = "qualified"
	StatusProposal    LeadStatus = "proposal"
	StatusNegotiation LeadStatus = "negotiation"
	StatusClosedWon   LeadStatus = "closed_won"
	StatusClosedLost  LeadStatus = "closed_lost"
)

// AllStatuses lists every valid pipeline status, in pipeline order.
var AllStatuses = []LeadStatus{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusProposal,
	StatusNegotiation,
	StatusClosedWon,
	StatusClosedLost,
}

// ParseStatus maps free-form input (CSV cells, query params) onto a valid
// status. Anything unrecognized falls back to "new".
func ParseStatus(s string) LeadStatus {
	candidate := LeadStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range AllStatuses {
		if candidate == valid {
			return candidate
		}
	}
	return StatusNew
}

type Temperature string

const (
	TemperatureHot   Temperature = "hot"
	TemperatureWarm  Temperature = "warm"
	TemperatureCold  Temperature = "cold"
	TemperatureUnset Temperature = ""
)

func ParseTemperature(s string) Temperature {
	switch Temperature(strings.ToLower(strings.TrimSpace(s))) {
	case TemperatureHot:
		return TemperatureHot
	case TemperatureWarm:
		return TemperatureWarm
	case TemperatureCold:
		return TemperatureCold
	default:
		return TemperatureUnset
	}
}

type Interest string

const (
	InterestWebsite Interest = "website"
	InterestApp     Interest = "app"
	InterestCRM     Interest = "crm"
	InterestBoth    Interest = "both"
)

type Lead struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Industry string `json:"industry,omitempty"`
	Service  string `json:"service,omitempty"`
	Source   string `json:"source,omitempty"`
	Type     string `json:"type,omitempty"`

	Status            LeadStatus  `json:"status"`
	AssignedAgentID   *string     `json:"assigned_agent_id"`
	AssignedAgentName *string     `json:"assigned_agent_name"`
	FollowUpDate      *time.Time  `json:"follow_up_date"`
	Temperature       Temperature `json:"temperature"`
	Interests         []Interest  `json:"interests"`
	Remarks           string      `json:"remarks"`

	WhatsappSent   bool `json:"whatsapp_sent"`
	EmailSent      bool `json:"email_sent"`
	QuotationSent  bool `json:"quotation_sent"`
	SampleWorkSent bool `json:"sample_work_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Factory
func NewLead(name string) (*Lead, error) {
	lead := &Lead{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Status:    StatusNew,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}

	return lead, nil
}

func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// Touch refreshes the update timestamp. Every mutation path must call this;
// the "recently updated" ordering on the dashboards depends on it.
func (l *Lead) Touch(now time.Time) {
	l.UpdatedAt = now
}

// LeadFilter narrows repository reads. The zero value selects everything.
type LeadFilter struct {
	AssignedAgentID *string
	Status          *LeadStatus
	Unassigned      bool
}

type LeadRepositoryInterface interface {
	Select(ctx context.Context, filter LeadFilter) ([]*Lead, error)
	FindByID(ctx context.Context, id string) (*Lead, error)
	Upsert(ctx context.Context, lead *Lead) error
	Assign(ctx context.Context, leadIDs []string, agentID, agentName string, now time.Time) (int, error)
	ReplaceAll(ctx context.Context, leads []*Lead) error
	Delete(ctx context.Context, id string) error
}
