package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

type UpdateLeadUseCase struct {
	LeadRepo entity.LeadRepositoryInterface
}

func NewUpdateLeadUseCase(leadRepo entity.LeadRepositoryInterface) *UpdateLeadUseCase {
	return &UpdateLeadUseCase{LeadRepo: leadRepo}
}

// Execute applies the lead detail form. Only fields present in the input
// change; updatedAt is always refreshed. The saved lead is re-read from the
// store before success is reported.
func (uc *UpdateLeadUseCase) Execute(ctx context.Context, leadID string, input UpdateLeadInput) (*entity.Lead, error) {
	if errs := ValidateUpdateLeadInput(input); len(errs) > 0 {
		return nil, &DomainError{Code: "INVALID_LEAD_UPDATE", Message: errs[0].Error()}
	}

	lead, err := uc.LeadRepo.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, &DomainError{Code: CodeLeadNotFound, Message: "lead does not exist"}
		}
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "failed to load lead"}
	}

	if input.Status != nil {
		// Validation was case-insensitive; store the canonical form so the
		// aggregates never see a casing variant of a valid status.
		lead.Status = entity.ParseStatus(*input.Status)
	}
	if input.Temperature != nil {
		lead.Temperature = entity.ParseTemperature(*input.Temperature)
	}
	if input.Remarks != nil {
		lead.Remarks = *input.Remarks
	}
	if input.Interests != nil {
		lead.Interests = input.Interests
	}
	if input.FollowUpDate != nil {
		if *input.FollowUpDate == "" {
			lead.FollowUpDate = nil
		} else {
			parsed, ok := parseFlexibleTime(*input.FollowUpDate)
			if !ok {
				return nil, &DomainError{Code: "INVALID_LEAD_UPDATE", Message: "follow_up_date must be RFC3339 or YYYY-MM-DD"}
			}
			lead.FollowUpDate = &parsed
		}
	}
	if input.WhatsappSent != nil {
		lead.WhatsappSent = *input.WhatsappSent
	}
	if input.EmailSent != nil {
		lead.EmailSent = *input.EmailSent
	}
	if input.QuotationSent != nil {
		lead.QuotationSent = *input.QuotationSent
	}
	if input.SampleWorkSent != nil {
		lead.SampleWorkSent = *input.SampleWorkSent
	}

	lead.Touch(time.Now())

	if err := uc.LeadRepo.Upsert(ctx, lead); err != nil {
		log.Printf("update lead %s: write failed: %v", leadID, err)
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "failed to save lead"}
	}

	saved, err := uc.LeadRepo.FindByID(ctx, leadID)
	if err != nil {
		log.Printf("update lead %s: re-fetch failed: %v", leadID, err)
		return nil, &TechnicalError{Code: CodeStoreFailure, Message: "lead saved but could not be re-read"}
	}

	return saved, nil
}
