package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/WujsST/roi-sheet/internal/domain"
)

// validateWebhook checks every field and returns the complete list of
// violations, so a sender can fix its payload in one round trip.
func validateWebhook(req WebhookRequest) []FieldError {
	var errs []FieldError

	if req.WorkflowID == "" {
		errs = append(errs, FieldError{Field: "workflow_id", Message: "workflow_id is required"})
	}

	if req.Status == "" {
		errs = append(errs, FieldError{Field: "status", Message: "status is required"})
	} else if !domain.ValidExecutionStatus(req.Status) {
		errs = append(errs, FieldError{Field: "status", Message: "status must be one of: success, error, running, waiting"})
	}

	if req.Platform != "" && !domain.ValidPlatform(req.Platform) {
		errs = append(errs, FieldError{Field: "platform", Message: "platform must be one of: n8n, zapier, make, retell, custom, other"})
	}

	if req.StartedAt != "" {
		if _, err := time.Parse(time.RFC3339, req.StartedAt); err != nil {
			errs = append(errs, FieldError{Field: "started_at", Message: "started_at must be an RFC 3339 timestamp"})
		}
	}
	if req.FinishedAt != "" {
		if _, err := time.Parse(time.RFC3339, req.FinishedAt); err != nil {
			errs = append(errs, FieldError{Field: "finished_at", Message: "finished_at must be an RFC 3339 timestamp"})
		}
	}

	if req.ExecutionTimeMS != nil && *req.ExecutionTimeMS <= 0 {
		errs = append(errs, FieldError{Field: "execution_time_ms", Message: "execution_time_ms must be a positive integer"})
	}

	return errs
}

const (
	maxNameLength = 100
	maxLogoLength = 2
	maxHourlyRate = 10000
)

func validateCreateClient(req CreateClientRequest) []FieldError {
	var errs []FieldError

	if req.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(req.Name) > maxNameLength {
		errs = append(errs, FieldError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)})
	}

	if len([]rune(req.Logo)) > maxLogoLength {
		errs = append(errs, FieldError{Field: "logo", Message: fmt.Sprintf("logo must be at most %d characters", maxLogoLength)})
	}

	for i, id := range req.AutomationIDs {
		if _, err := uuid.Parse(id); err != nil {
			errs = append(errs, FieldError{Field: fmt.Sprintf("automation_ids[%d]", i), Message: "must be a valid uuid"})
		}
	}

	return errs
}

func validateUpdateClient(req UpdateClientRequest) []FieldError {
	var errs []FieldError

	if req.Name != nil {
		if *req.Name == "" {
			errs = append(errs, FieldError{Field: "name", Message: "name must not be empty"})
		} else if len(*req.Name) > maxNameLength {
			errs = append(errs, FieldError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)})
		}
	}
	if req.Logo != nil && len([]rune(*req.Logo)) > maxLogoLength {
		errs = append(errs, FieldError{Field: "logo", Message: fmt.Sprintf("logo must be at most %d characters", maxLogoLength)})
	}
	if req.Status != nil && !domain.ValidClientStatus(*req.Status) {
		errs = append(errs, FieldError{Field: "status", Message: "status must be one of: active, warning, inactive"})
	}

	return errs
}

func validateAutomations(req CreateAutomationsRequest) []FieldError {
	var errs []FieldError

	if len(req.Automations) == 0 {
		errs = append(errs, FieldError{Field: "automations", Message: "at least one automation is required"})
		return errs
	}

	for i, a := range req.Automations {
		field := func(name string) string { return fmt.Sprintf("automations[%d].%s", i, name) }

		if a.WorkflowID == "" {
			errs = append(errs, FieldError{Field: field("workflow_id"), Message: "workflow_id is required"})
		}
		if len(a.Name) > maxNameLength {
			errs = append(errs, FieldError{Field: field("name"), Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)})
		}
		if a.ClientID != "" {
			if _, err := uuid.Parse(a.ClientID); err != nil {
				errs = append(errs, FieldError{Field: field("client_id"), Message: "must be a valid uuid"})
			}
		}
		if a.HourlyRate != nil && (*a.HourlyRate < 0 || *a.HourlyRate > maxHourlyRate) {
			errs = append(errs, FieldError{Field: field("hourly_rate"), Message: fmt.Sprintf("hourly_rate must be between 0 and %d", maxHourlyRate)})
		}
		if a.SecondsSavedPerExecution != nil && *a.SecondsSavedPerExecution < 0 {
			errs = append(errs, FieldError{Field: field("seconds_saved_per_execution"), Message: "seconds_saved_per_execution must not be negative"})
		}
		if a.MonthlyCost != nil && *a.MonthlyCost < 0 {
			errs = append(errs, FieldError{Field: field("monthly_cost"), Message: "monthly_cost must not be negative"})
		}
	}

	return errs
}

func validateUpdateAutomation(req UpdateAutomationRequest) []FieldError {
	var errs []FieldError

	if req.Name != nil && len(*req.Name) > maxNameLength {
		errs = append(errs, FieldError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)})
	}
	if req.ClientID != nil && *req.ClientID != "" {
		if _, err := uuid.Parse(*req.ClientID); err != nil {
			errs = append(errs, FieldError{Field: "client_id", Message: "must be a valid uuid"})
		}
	}
	if req.Status != nil {
		switch domain.AutomationStatus(*req.Status) {
		case domain.AutomationStatusHealthy, domain.AutomationStatusError, domain.AutomationStatusPaused:
		default:
			errs = append(errs, FieldError{Field: "status", Message: "status must be one of: healthy, error, paused"})
		}
	}
	if req.HourlyRate != nil && (*req.HourlyRate < 0 || *req.HourlyRate > maxHourlyRate) {
		errs = append(errs, FieldError{Field: "hourly_rate", Message: fmt.Sprintf("hourly_rate must be between 0 and %d", maxHourlyRate)})
	}
	if req.SecondsSavedPerExecution != nil && *req.SecondsSavedPerExecution < 0 {
		errs = append(errs, FieldError{Field: "seconds_saved_per_execution", Message: "seconds_saved_per_execution must not be negative"})
	}
	if req.MonthlyCost != nil && *req.MonthlyCost < 0 {
		errs = append(errs, FieldError{Field: "monthly_cost", Message: "monthly_cost must not be negative"})
	}

	return errs
}
