package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

func TestExportLeads_WritesHeaderAndRows(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewExportLeadsUseCase(leadRepo)

	agentName := "Alice"
	followUp := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	leads := []*entity.Lead{
		{
			ID:                "l1",
			Name:              "Acme Corp",
			Phone:             "555-0100",
			Status:            entity.StatusContacted,
			AssignedAgentName: &agentName,
			FollowUpDate:      &followUp,
			Temperature:       entity.TemperatureHot,
			Interests:         []entity.Interest{entity.InterestWebsite, entity.InterestApp},
			QuotationSent:     true,
			CreatedAt:         created,
			UpdatedAt:         created,
		},
		{
			ID:        "l2",
			Name:      "Beta LLC",
			Status:    entity.StatusNew,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	leadRepo.On("Select", mock.Anything, entity.LeadFilter{}).Return(leads, nil)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	output, err := uc.Execute(context.Background(), entity.LeadFilter{}, now)

	assert.NoError(t, err)
	assert.Equal(t, "leads_export_2026-03-10.csv", output.Filename)

	records, err := csv.NewReader(bytes.NewReader(output.Data)).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 3)

	assert.Equal(t, "Lead Name", records[0][0])
	assert.Equal(t, "Assigned BDA", records[0][8])

	acme := records[1]
	assert.Equal(t, "Acme Corp", acme[0])
	assert.Equal(t, "contacted", acme[7])
	assert.Equal(t, "Alice", acme[8])
	assert.Equal(t, "2026-04-01T10:00:00Z", acme[9])
	assert.Equal(t, "website, app", acme[11])
	assert.Equal(t, "true", acme[15])

	beta := records[2]
	assert.Equal(t, "Unassigned", beta[8])
	assert.Equal(t, "", beta[9])
	assert.Equal(t, "false", beta[13])
}

func TestExportLeads_RoundTripsThroughImport(t *testing.T) {
	exportRepo := new(MockLeadRepository)
	followUp := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	exportRepo.On("Select", mock.Anything, entity.LeadFilter{}).Return([]*entity.Lead{
		{
			ID:           "l1",
			Name:         "Acme Corp",
			Status:       entity.StatusQualified,
			FollowUpDate: &followUp,
			Temperature:  entity.TemperatureWarm,
			Interests:    []entity.Interest{entity.InterestCRM},
			EmailSent:    true,
			CreatedAt:    followUp,
			UpdatedAt:    followUp,
		},
	}, nil)

	exported, err := NewExportLeadsUseCase(exportRepo).
		Execute(context.Background(), entity.LeadFilter{}, time.Now())
	assert.NoError(t, err)

	importRepo := new(MockLeadRepository)
	var captured []*entity.Lead
	importRepo.On("ReplaceAll", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]*entity.Lead)
		}).
		Return(nil)

	output, err := NewImportLeadsUseCase(importRepo).
		Execute(context.Background(), bytes.NewReader(exported.Data))

	assert.NoError(t, err)
	assert.Equal(t, 1, output.Imported)
	assert.Equal(t, "Acme Corp", captured[0].Name)
	assert.Equal(t, entity.StatusQualified, captured[0].Status)
	assert.Equal(t, entity.TemperatureWarm, captured[0].Temperature)
	assert.Equal(t, []entity.Interest{entity.InterestCRM}, captured[0].Interests)
	assert.True(t, captured[0].EmailSent)
	assert.True(t, captured[0].FollowUpDate.Equal(followUp))
}
