package usecase

import "github.com/begari-sampath/crm-backend/internal/entity"

type AssignLeadsInput struct {
	LeadIDs []string `json:"lead_ids"`
	AgentID string   `json:"agent_id"`
}

type AssignLeadsOutput struct {
	AssignedCount int            `json:"assigned_count"`
	AgentName     string         `json:"agent_name"`
	Leads         []*entity.Lead `json:"leads"`
}

// UpdateLeadInput carries the lead detail form. Pointer fields distinguish
// "leave as is" from "clear".
type UpdateLeadInput struct {
	Status         *string `json:"status"`
	Temperature    *string `json:"temperature"`
	Remarks        *string `json:"remarks"`
	FollowUpDate   *string `json:"follow_up_date"` // RFC3339 or YYYY-MM-DD; empty string clears
	Interests      []entity.Interest `json:"interests"`
	WhatsappSent   *bool `json:"whatsapp_sent"`
	EmailSent      *bool `json:"email_sent"`
	QuotationSent  *bool `json:"quotation_sent"`
	SampleWorkSent *bool `json:"sample_work_sent"`
}

type ImportLeadsOutput struct {
	Imported int `json:"imported"`
	Dropped  int `json:"dropped"`
}
