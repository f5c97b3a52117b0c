package usecase

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/begari-sampath/crm-backend/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateUpdateLeadInput(input UpdateLeadInput) []ValidationError {
	var errors []ValidationError

	if input.Status != nil && !isValidStatus(*input.Status) {
		errors = append(errors, ValidationError{"status", "is not a valid lead status"})
	}

	if input.Temperature != nil {
		t := strings.ToLower(strings.TrimSpace(*input.Temperature))
		if t != "" && t != "hot" && t != "warm" && t != "cold" {
			errors = append(errors, ValidationError{"temperature", "must be hot, warm, cold or empty"})
		}
	}

	for _, interest := range input.Interests {
		if !isValidInterest(interest) {
			errors = append(errors, ValidationError{"interests", "must be website, app, crm or both"})
		}
	}

	if input.Remarks != nil && len(*input.Remarks) > 2000 {
		errors = append(errors, ValidationError{"remarks", "must not exceed 2000 characters"})
	}

	return errors
}

func ValidateLoginInput(email, password string) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if strings.TrimSpace(password) == "" {
		errors = append(errors, ValidationError{"password", "is required"})
	}

	return errors
}

func isValidStatus(s string) bool {
	candidate := entity.LeadStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range entity.AllStatuses {
		if candidate == valid {
			return true
		}
	}
	return false
}

func isValidInterest(i entity.Interest) bool {
	switch i {
	case entity.InterestWebsite, entity.InterestApp, entity.InterestCRM, entity.InterestBoth:
		return true
	}
	return false
}

// parseFlexibleTime accepts the formats the dashboard and CSV files use:
// RFC3339 with or without nanoseconds, or a bare calendar date.
func parseFlexibleTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseCSVBool follows the import rule: only a case-insensitive "true"
// counts, everything else is false.
func parseCSVBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
