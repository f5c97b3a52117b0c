package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

const importHeader = "Lead Name,Phone,Email,Industry,Service,Source,Type,Status,Assigned BDA,Follow-up Date,Temperature,Interests,Remarks,WhatsApp Sent,Email Sent,Quotation Sent,Sample Work Sent,Created At,Updated At"

func TestImportLeads_ParsesValidRows(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewImportLeadsUseCase(leadRepo)

	csvData := importHeader + "\n" +
		"Acme Corp,555-0100,acme@example.com,Retail,Website,Referral,B2B,contacted,,2026-04-01,hot,\"website, app\",Key account,TRUE,false,true,,2026-01-15T10:00:00Z,2026-02-01T09:30:00Z\n" +
		"Beta LLC,,,,,,,,,,,,,,,,,,\n"

	var captured []*entity.Lead
	leadRepo.On("ReplaceAll", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]*entity.Lead)
		}).
		Return(nil)

	output, err := uc.Execute(context.Background(), strings.NewReader(csvData))

	assert.NoError(t, err)
	assert.Equal(t, 2, output.Imported)
	assert.Equal(t, 0, output.Dropped)

	acme := captured[0]
	assert.Equal(t, "Acme Corp", acme.Name)
	assert.Equal(t, entity.StatusContacted, acme.Status)
	assert.Equal(t, entity.TemperatureHot, acme.Temperature)
	assert.Equal(t, []entity.Interest{entity.InterestWebsite, entity.InterestApp}, acme.Interests)
	assert.True(t, acme.WhatsappSent)
	assert.False(t, acme.EmailSent)
	assert.True(t, acme.QuotationSent)
	assert.False(t, acme.SampleWorkSent)
	assert.NotNil(t, acme.FollowUpDate)
	assert.Nil(t, acme.AssignedAgentID)

	// A bare name is still a valid row; everything else defaults.
	beta := captured[1]
	assert.Equal(t, "Beta LLC", beta.Name)
	assert.Equal(t, entity.StatusNew, beta.Status)
	assert.Nil(t, beta.FollowUpDate)
	assert.False(t, beta.CreatedAt.IsZero())
}

func TestImportLeads_DropsNamelessRows(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewImportLeadsUseCase(leadRepo)

	csvData := importHeader + "\n" +
		",555-0100,nobody@example.com,,,,,,,,,,,,,,,,\n" +
		"Gamma Inc,,,,,,,,,,,,,,,,,,\n"

	leadRepo.On("ReplaceAll", mock.Anything, mock.Anything).Return(nil)

	output, err := uc.Execute(context.Background(), strings.NewReader(csvData))

	assert.NoError(t, err)
	assert.Equal(t, 1, output.Imported)
	assert.Equal(t, 1, output.Dropped)
}

func TestImportLeads_UnknownStatusFallsBackToNew(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewImportLeadsUseCase(leadRepo)

	csvData := importHeader + "\n" +
		"Delta Co,,,,,,,in progress,,,,,,,,,,,\n"

	var captured []*entity.Lead
	leadRepo.On("ReplaceAll", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]*entity.Lead)
		}).
		Return(nil)

	_, err := uc.Execute(context.Background(), strings.NewReader(csvData))

	assert.NoError(t, err)
	assert.Equal(t, entity.StatusNew, captured[0].Status)
}

func TestImportLeads_MalformedFollowUpBecomesNil(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewImportLeadsUseCase(leadRepo)

	csvData := importHeader + "\n" +
		"Echo Ltd,,,,,,,,,next tuesday,,,,,,,,,\n"

	var captured []*entity.Lead
	leadRepo.On("ReplaceAll", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]*entity.Lead)
		}).
		Return(nil)

	_, err := uc.Execute(context.Background(), strings.NewReader(csvData))

	assert.NoError(t, err)
	assert.Nil(t, captured[0].FollowUpDate)
}

func TestImportLeads_NoValidRowsRejected(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewImportLeadsUseCase(leadRepo)

	csvData := importHeader + "\n" +
		",555-0100,,,,,,,,,,,,,,,,,\n"

	_, err := uc.Execute(context.Background(), strings.NewReader(csvData))

	var domainErr *DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeImportNoValidRows, domainErr.Code)
	leadRepo.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
}

func TestImportLeads_EmptyFileRejected(t *testing.T) {
	uc := NewImportLeadsUseCase(new(MockLeadRepository))

	_, err := uc.Execute(context.Background(), strings.NewReader(""))

	var domainErr *DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeImportNoValidRows, domainErr.Code)
}
