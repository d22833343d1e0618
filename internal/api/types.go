package api

import (
	"time"

	"github.com/WujsST/roi-sheet/internal/domain"
)

// WebhookRequest is the execution report posted by automation platforms.
// Timestamps arrive as RFC 3339 strings so schema validation can report them
// as field errors instead of failing the JSON decode.
type WebhookRequest struct {
	WorkflowID      string         `json:"workflow_id"`
	Status          string         `json:"status"`
	ExecutionID     string         `json:"execution_id,omitempty"`
	Platform        string         `json:"platform,omitempty"`
	StartedAt       string         `json:"started_at,omitempty"`
	FinishedAt      string         `json:"finished_at,omitempty"`
	ExecutionTimeMS *int64         `json:"execution_time_ms,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// FieldError locates one schema violation in a request body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse carries the complete list of schema violations.
type ValidationErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details"`
}

type WebhookResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	ExecutionID string             `json:"execution_id,omitempty"`
	WorkflowID  string             `json:"workflow_id,omitempty"`
	RecordedAt  string             `json:"recorded_at,omitempty"`
	Execution   *ExecutionResponse `json:"execution,omitempty"`
}

type ExecutionResponse struct {
	ID              string         `json:"id"`
	WorkflowID      string         `json:"workflow_id"`
	WorkflowName    string         `json:"workflow_name,omitempty"`
	ExecutionID     string         `json:"execution_id"`
	Status          string         `json:"status"`
	Platform        string         `json:"platform"`
	StartedAt       string         `json:"started_at"`
	FinishedAt      string         `json:"finished_at,omitempty"`
	ExecutionTimeMS *int64         `json:"execution_time_ms,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

type ListExecutionsResponse struct {
	Executions []ExecutionResponse `json:"executions"`
}

type CreateClientRequest struct {
	Name          string   `json:"name"`
	Industry      string   `json:"industry,omitempty"`
	Logo          string   `json:"logo,omitempty"`
	AutomationIDs []string `json:"automation_ids"`
}

type UpdateClientRequest struct {
	Name     *string `json:"name,omitempty"`
	Industry *string `json:"industry,omitempty"`
	Logo     *string `json:"logo,omitempty"`
	Status   *string `json:"status,omitempty"`
}

type ClientResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Industry         string  `json:"industry"`
	Logo             string  `json:"logo"`
	Status           string  `json:"status"`
	AutomationsCount int     `json:"automations_count"`
	SavedAmount      float64 `json:"saved_amount"`
	ROIPercentage    float64 `json:"roi_percentage"`
	CreatedAt        string  `json:"created_at"`
}

type ListClientsResponse struct {
	Clients []ClientResponse `json:"clients"`
}

// CreateAutomationsRequest registers one or more workflows for billing in a
// single call.
type CreateAutomationsRequest struct {
	Automations []AutomationRequest `json:"automations"`
}

type AutomationRequest struct {
	Name                     string   `json:"name,omitempty"`
	Icon                     string   `json:"icon,omitempty"`
	ClientID                 string   `json:"client_id,omitempty"`
	WorkflowID               string   `json:"workflow_id"`
	HourlyRate               *float64 `json:"hourly_rate,omitempty"`
	SecondsSavedPerExecution *int     `json:"seconds_saved_per_execution,omitempty"`
	MonthlyCost              *float64 `json:"monthly_cost,omitempty"`
}

type UpdateAutomationRequest struct {
	Name                     *string  `json:"name,omitempty"`
	Icon                     *string  `json:"icon,omitempty"`
	ClientID                 *string  `json:"client_id,omitempty"` // empty string detaches
	Status                   *string  `json:"status,omitempty"`
	HourlyRate               *float64 `json:"hourly_rate,omitempty"`
	SecondsSavedPerExecution *int     `json:"seconds_saved_per_execution,omitempty"`
	MonthlyCost              *float64 `json:"monthly_cost,omitempty"`
}

type AutomationResponse struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	Icon                     string  `json:"icon"`
	ClientID                 string  `json:"client_id,omitempty"`
	WorkflowID               string  `json:"workflow_id"`
	Status                   string  `json:"status"`
	HourlyRate               float64 `json:"hourly_rate"`
	SecondsSavedPerExecution int     `json:"seconds_saved_per_execution"`
	MonthlyCost              float64 `json:"monthly_cost"`
	CreatedAt                string  `json:"created_at"`
}

type ListAutomationsResponse struct {
	Automations []AutomationResponse `json:"automations"`
}

type UnlinkedWorkflowResponse struct {
	WorkflowID     string `json:"workflow_id"`
	ExecutionCount int    `json:"execution_count"`
	LastSeen       string `json:"last_seen"`
}

type ListUnlinkedWorkflowsResponse struct {
	Workflows []UnlinkedWorkflowResponse `json:"workflows"`
}

// IssueKeyResponse is the only response that ever carries raw key material.
type IssueKeyResponse struct {
	Key       string `json:"key"`
	ID        string `json:"id"`
	Prefix    string `json:"prefix"`
	CreatedAt string `json:"created_at"`
}

type KeyResponse struct {
	ID         string `json:"id"`
	Prefix     string `json:"prefix"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}

type ListKeysResponse struct {
	Keys []KeyResponse `json:"keys"`
}

type MonthlySavingsResponse struct {
	Year  int                    `json:"year"`
	Month int                    `json:"month"`
	Weeks []domain.WeeklySavings `json:"weeks"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
