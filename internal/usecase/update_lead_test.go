package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func storedLead(id string) *entity.Lead {
	return &entity.Lead{
		ID:        id,
		Name:      "Acme Corp",
		Status:    entity.StatusNew,
		CreatedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestUpdateLead_AppliesOnlyProvidedFields(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewUpdateLeadUseCase(leadRepo)

	lead := storedLead("l1")
	leadRepo.On("FindByID", mock.Anything, "l1").Return(lead, nil)

	var saved *entity.Lead
	leadRepo.On("Upsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.Lead)
		}).
		Return(nil)

	_, err := uc.Execute(context.Background(), "l1", UpdateLeadInput{
		Status:        strPtr("qualified"),
		QuotationSent: boolPtr(true),
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.StatusQualified, saved.Status)
	assert.True(t, saved.QuotationSent)
	// Untouched fields keep their stored values.
	assert.Equal(t, "Acme Corp", saved.Name)
	assert.False(t, saved.WhatsappSent)
	// Every update refreshes updatedAt.
	assert.True(t, saved.UpdatedAt.After(saved.CreatedAt))
}

func TestUpdateLead_StatusStoredInCanonicalCase(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewUpdateLeadUseCase(leadRepo)

	leadRepo.On("FindByID", mock.Anything, "l1").Return(storedLead("l1"), nil)

	var saved *entity.Lead
	leadRepo.On("Upsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.Lead)
		}).
		Return(nil)

	_, err := uc.Execute(context.Background(), "l1", UpdateLeadInput{
		Status: strPtr("New"),
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.StatusNew, saved.Status)

	// The aggregates must keep counting the lead under the canonical enum.
	m := AggregateMetrics([]*entity.Lead{saved}, nil, time.Now())
	assert.Equal(t, 1, m.NewLeads)
	assert.Equal(t, 1, m.LeadsByStatus[entity.StatusNew])
	assert.Len(t, m.LeadsByStatus, 1)
}

func TestUpdateLead_EmptyFollowUpDateClears(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewUpdateLeadUseCase(leadRepo)

	lead := storedLead("l1")
	followUp := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	lead.FollowUpDate = &followUp

	leadRepo.On("FindByID", mock.Anything, "l1").Return(lead, nil)

	var saved *entity.Lead
	leadRepo.On("Upsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*entity.Lead)
		}).
		Return(nil)

	_, err := uc.Execute(context.Background(), "l1", UpdateLeadInput{
		FollowUpDate: strPtr(""),
	})

	assert.NoError(t, err)
	assert.Nil(t, saved.FollowUpDate)
}

func TestUpdateLead_InvalidStatusRejected(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewUpdateLeadUseCase(leadRepo)

	_, err := uc.Execute(context.Background(), "l1", UpdateLeadInput{
		Status: strPtr("in progress"),
	})

	assert.True(t, IsDomainError(err))
	leadRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUpdateLead_NotFound(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewUpdateLeadUseCase(leadRepo)

	leadRepo.On("FindByID", mock.Anything, "ghost").Return(nil, entity.ErrLeadNotFound)

	_, err := uc.Execute(context.Background(), "ghost", UpdateLeadInput{})

	var domainErr *DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeLeadNotFound, domainErr.Code)
}

func TestUpdateLead_ReturnsRefetchedLead(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	uc := NewUpdateLeadUseCase(leadRepo)

	lead := storedLead("l1")
	leadRepo.On("FindByID", mock.Anything, "l1").Return(lead, nil)
	leadRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	saved, err := uc.Execute(context.Background(), "l1", UpdateLeadInput{
		Remarks: strPtr("called twice"),
	})

	assert.NoError(t, err)
	assert.NotNil(t, saved)
	leadRepo.AssertNumberOfCalls(t, "FindByID", 2)
}
