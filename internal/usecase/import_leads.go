package usecase

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"strings"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
	"github.com/google/uuid"
)

// CSV column names, shared by import and export so a exported file can be
// re-imported unchanged.
const (
	colLeadName       = "Lead Name"
	colPhone          = "Phone"
	colEmail          = "Email"
	colIndustry       = "Industry"
	colService        = "Service"
	colSource         = "Source"
	colType           = "Type"
	colStatus         = "Status"
	colAssignedAgent  = "Assigned BDA"
	colFollowUpDate   = "Follow-up Date"
	colTemperature    = "Temperature"
	colInterests      = "Interests"
	colRemarks        = "Remarks"
	colWhatsappSent   = "WhatsApp Sent"
	colEmailSent      = "Email Sent"
	colQuotationSent  = "Quotation Sent"
	colSampleWorkSent = "Sample Work Sent"
	colCreatedAt      = "Created At"
	colUpdatedAt      = "Updated At"
)

type ImportLeadsUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
}

func NewImportLeadsUseCase(leadRepo entity.LeadRepositoryInterface) *ImportLeadsUseCase {
	return &ImportLeadsUseCase{LeadRepo: leadRepo}
}

// Execute parses a header-mapped CSV and replaces the whole lead collection
// with its valid rows. The replace is destructive on purpose; it happens in
// one repository call so a failed import leaves the previous collection
// untouched. Rows without a Lead Name are dropped. A file with zero valid
// rows is rejected outright.
func (uc *ImportLeadsUseCase) Execute(ctx context.Context, r io.Reader) (*ImportLeadsOutput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &DomainError{Code: CodeImportNoValidRows, Message: "could not read CSV header"}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	now := time.Now()
	var leads []*entity.Lead
	dropped := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, same fate as a nameless one.
			dropped++
			continue
		}

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		name := cell(colLeadName)
		if name == "" {
			dropped++
			continue
		}

		lead := &entity.Lead{
			ID:       uuid.New().String(),
			Name:     name,
			Phone:    cell(colPhone),
			Email:    cell(colEmail),
			Industry: cell(colIndustry),
			Service:  cell(colService),
			Source:   cell(colSource),
			Type:     cell(colType),

			Status:      entity.ParseStatus(cell(colStatus)),
			Temperature: entity.ParseTemperature(cell(colTemperature)),
			Interests:   parseInterests(cell(colInterests)),
			Remarks:     cell(colRemarks),

			WhatsappSent:   parseCSVBool(cell(colWhatsappSent)),
			EmailSent:      parseCSVBool(cell(colEmailSent)),
			QuotationSent:  parseCSVBool(cell(colQuotationSent)),
			SampleWorkSent: parseCSVBool(cell(colSampleWorkSent)),

			// Imports never carry an assignment; the admin assigns
			// afterwards.
			CreatedAt: timeOrNow(cell(colCreatedAt), now),
			UpdatedAt: timeOrNow(cell(colUpdatedAt), now),
		}

		if followUp, ok := parseFlexibleTime(cell(colFollowUpDate)); ok {
			lead.FollowUpDate = &followUp
		}

		leads = append(leads, lead)
	}

	if len(leads) == 0 {
		return nil, &DomainError{Code: CodeImportNoValidRows, Message: "no valid leads found in the CSV file"}
	}

	if err := uc.LeadRepo.ReplaceAll(ctx, leads); err != nil {
		log.Printf("import leads: replace failed: %v", err)
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "failed to import leads"}
	}

	return &ImportLeadsOutput{Imported: len(leads), Dropped: dropped}, nil
}

func parseInterests(s string) []entity.Interest {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []entity.Interest
	for _, part := range strings.Split(s, ",") {
		switch entity.Interest(strings.ToLower(strings.TrimSpace(part))) {
		case entity.InterestWebsite:
			out = append(out, entity.InterestWebsite)
		case entity.InterestApp:
			out = append(out, entity.InterestApp)
		case entity.InterestCRM:
			out = append(out, entity.InterestCRM)
		case entity.InterestBoth:
			out = append(out, entity.InterestBoth)
		}
	}
	return out
}

// timeOrNow parses a timestamp cell, defaulting malformed or empty values
// to now (import rule for Created At / Updated At).
func timeOrNow(s string, now time.Time) time.Time {
	if t, ok := parseFlexibleTime(s); ok {
		return t
	}
	return now
}
