package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

type AssignLeadsUseCase struct {
	LeadRepo    entity.LeadRepositoryInterface
	ProfileRepo entity.ProfileRepositoryInterface
}

func NewAssignLeadsUseCase(leadRepo entity.LeadRepositoryInterface, profileRepo entity.ProfileRepositoryInterface) *AssignLeadsUseCase {
	return &AssignLeadsUseCase{
		LeadRepo:    leadRepo,
		ProfileRepo: profileRepo,
	}
}

// Execute assigns the selected leads to a BDA and re-reads them before
// reporting success, so the caller always sees its own write (fresh
// assignee and updatedAt) rather than a stale cache.
func (uc *AssignLeadsUseCase) Execute(ctx context.Context, input AssignLeadsInput) (*AssignLeadsOutput, error) {
	if len(input.LeadIDs) == 0 {
		return nil, &DomainError{Code: CodeNoLeadsSelected, Message: "select at least one lead to assign"}
	}

	agent, err := uc.ProfileRepo.FindByID(ctx, input.AgentID)
	if err != nil {
		if errors.Is(err, entity.ErrProfileNotFound) {
			return nil, &DomainError{Code: CodeAgentNotFound, Message: "agent does not exist"}
		}
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "failed to load agent profile"}
	}
	if agent.Role != entity.RoleBDA {
		return nil, &DomainError{Code: CodeAgentNotBDA, Message: "leads can only be assigned to a BDA"}
	}

	now := time.Now()
	count, err := uc.LeadRepo.Assign(ctx, input.LeadIDs, agent.ID, agent.Name, now)
	if err != nil {
		log.Printf("assign leads: write failed: %v", err)
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "failed to assign leads"}
	}

	// Read-your-writes: success is only reported after the re-fetch
	// observes the assignment.
	agentID := agent.ID
	leads, err := uc.LeadRepo.Select(ctx, entity.LeadFilter{AssignedAgentID: &agentID})
	if err != nil {
		log.Printf("assign leads: re-fetch failed: %v", err)
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "assignment saved but could not be re-read"}
	}

	return &AssignLeadsOutput{
		AssignedCount: count,
		AgentName:     agent.Name,
		Leads:         leads,
	}, nil
}
