package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

// exportHeader fixes the column order. Import understands the same names,
// so export → import is a round trip.
var exportHeader = []string{
	colLeadName, colPhone, colEmail, colIndustry, colService, colSource,
	colType, colStatus, colAssignedAgent, colFollowUpDate, colTemperature,
	colInterests, colRemarks, colWhatsappSent, colEmailSent,
	colQuotationSent, colSampleWorkSent, colCreatedAt, colUpdatedAt,
}

type ExportLeadsOutput struct {
	Filename string
	Data     []byte
}

type ExportLeadsUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
}

func NewExportLeadsUseCase(leadRepo entity.LeadRepositoryInterface) *ExportLeadsUseCase {
	return &ExportLeadsUseCase{LeadRepo: leadRepo}
}

// Execute flattens the (optionally filtered) lead collection into CSV. The
// filename embeds the export date.
func (uc *ExportLeadsUseCase) Execute(ctx context.Context, filter entity.LeadFilter, now time.Time) (*ExportLeadsOutput, error) {
	leads, err := uc.LeadRepo.Select(ctx, filter)
	if err != nil {
		log.Printf("export leads: select failed: %v", err)
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "failed to load leads for export"}
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "failed to write CSV"}
	}

	for _, lead := range leads {
		if err := writer.Write(exportRow(lead)); err != nil {
			return nil, &TechnicalError{Code: CodeStoreFailure, Message: "failed to write CSV"}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "failed to write CSV"}
	}

	return &ExportLeadsOutput{
		Filename: fmt.Sprintf("leads_export_%s.csv", now.Format("2006-01-02")),
		Data:     buf.Bytes(),
	}, nil
}

func exportRow(lead *entity.Lead) []string {
	assigned := "Unassigned"
	if lead.AssignedAgentName != nil && *lead.AssignedAgentName != "" {
		assigned = *lead.AssignedAgentName
	}

	followUp := ""
	if lead.FollowUpDate != nil {
		followUp = lead.FollowUpDate.Format(time.RFC3339)
	}

	interests := make([]string, 0, len(lead.Interests))
	for _, i := range lead.Interests {
		interests = append(interests, string(i))
	}

	return []string{
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.Industry,
		lead.Service,
		lead.Source,
		lead.Type,
		string(lead.Status),
		assigned,
		followUp,
		string(lead.Temperature),
		strings.Join(interests, ", "),
		lead.Remarks,
		strconv.FormatBool(lead.WhatsappSent),
		strconv.FormatBool(lead.EmailSent),
		strconv.FormatBool(lead.QuotationSent),
		strconv.FormatBool(lead.SampleWorkSent),
		lead.CreatedAt.Format(time.RFC3339),
		lead.UpdatedAt.Format(time.RFC3339),
	}
}
