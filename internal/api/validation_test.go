package api

import (
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }

func TestValidateWebhook_Valid(t *testing.T) {
	req := WebhookRequest{
		WorkflowID:      "wf-1",
		Status:          "success",
		Platform:        "n8n",
		StartedAt:       "2026-03-01T12:00:00Z",
		FinishedAt:      "2026-03-01T12:00:05Z",
		ExecutionTimeMS: int64Ptr(5000),
	}

	if errs := validateWebhook(req); len(errs) != 0 {
		t.Errorf("expected no errors, got %+v", errs)
	}
}

func TestValidateWebhook_MinimalValid(t *testing.T) {
	req := WebhookRequest{WorkflowID: "wf-1", Status: "error"}

	if errs := validateWebhook(req); len(errs) != 0 {
		t.Errorf("expected no errors for minimal payload, got %+v", errs)
	}
}

func TestValidateWebhook_FieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		req       WebhookRequest
		wantField string
	}{
		{
			name:      "missing workflow_id",
			req:       WebhookRequest{Status: "success"},
			wantField: "workflow_id",
		},
		{
			name:      "missing status",
			req:       WebhookRequest{WorkflowID: "wf-1"},
			wantField: "status",
		},
		{
			name:      "unknown status",
			req:       WebhookRequest{WorkflowID: "wf-1", Status: "exploded"},
			wantField: "status",
		},
		{
			name:      "unknown platform",
			req:       WebhookRequest{WorkflowID: "wf-1", Status: "success", Platform: "excel"},
			wantField: "platform",
		},
		{
			name:      "bad started_at",
			req:       WebhookRequest{WorkflowID: "wf-1", Status: "success", StartedAt: "yesterday"},
			wantField: "started_at",
		},
		{
			name:      "bad finished_at",
			req:       WebhookRequest{WorkflowID: "wf-1", Status: "success", FinishedAt: "03/01/2026"},
			wantField: "finished_at",
		},
		{
			name:      "negative execution_time_ms",
			req:       WebhookRequest{WorkflowID: "wf-1", Status: "success", ExecutionTimeMS: int64Ptr(-1)},
			wantField: "execution_time_ms",
		},
		{
			name:      "zero execution_time_ms",
			req:       WebhookRequest{WorkflowID: "wf-1", Status: "success", ExecutionTimeMS: int64Ptr(0)},
			wantField: "execution_time_ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateWebhook(tt.req)
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %+v", errs)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.wantField)
			}
			if errs[0].Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestValidateWebhook_CollectsAllErrors(t *testing.T) {
	req := WebhookRequest{
		Status:          "exploded",
		Platform:        "excel",
		StartedAt:       "yesterday",
		ExecutionTimeMS: int64Ptr(-1),
	}

	errs := validateWebhook(req)
	if len(errs) != 5 {
		t.Fatalf("expected 5 errors (workflow_id, status, platform, started_at, execution_time_ms), got %d: %+v", len(errs), errs)
	}
}

func TestValidateCreateClient(t *testing.T) {
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name     string
		req      CreateClientRequest
		wantErrs int
	}{
		{name: "valid", req: CreateClientRequest{Name: "Acme", Logo: "AC"}, wantErrs: 0},
		{name: "missing name", req: CreateClientRequest{}, wantErrs: 1},
		{name: "name too long", req: CreateClientRequest{Name: string(long)}, wantErrs: 1},
		{name: "logo too long", req: CreateClientRequest{Name: "Acme", Logo: "ABC"}, wantErrs: 1},
		{name: "bad automation id", req: CreateClientRequest{Name: "Acme", AutomationIDs: []string{"nope"}}, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := validateCreateClient(tt.req); len(errs) != tt.wantErrs {
				t.Errorf("expected %d errors, got %+v", tt.wantErrs, errs)
			}
		})
	}
}

func TestValidateCreateClient_MultiByteLogo(t *testing.T) {
	// Two emoji are two characters even though they are more than two bytes.
	req := CreateClientRequest{Name: "Acme", Logo: "🤖🦾"}

	if errs := validateCreateClient(req); len(errs) != 0 {
		t.Errorf("two-rune logo should pass, got %+v", errs)
	}
}

func TestValidateAutomations(t *testing.T) {
	rate := 45.0
	badRate := 50000.0
	negSeconds := -5

	tests := []struct {
		name     string
		req      CreateAutomationsRequest
		wantErrs int
	}{
		{
			name:     "empty list",
			req:      CreateAutomationsRequest{},
			wantErrs: 1,
		},
		{
			name: "valid",
			req: CreateAutomationsRequest{Automations: []AutomationRequest{
				{WorkflowID: "wf-1", HourlyRate: &rate},
			}},
			wantErrs: 0,
		},
		{
			name: "missing workflow id",
			req: CreateAutomationsRequest{Automations: []AutomationRequest{
				{HourlyRate: &rate},
			}},
			wantErrs: 1,
		},
		{
			name: "rate out of range",
			req: CreateAutomationsRequest{Automations: []AutomationRequest{
				{WorkflowID: "wf-1", HourlyRate: &badRate},
			}},
			wantErrs: 1,
		},
		{
			name: "negative seconds",
			req: CreateAutomationsRequest{Automations: []AutomationRequest{
				{WorkflowID: "wf-1", SecondsSavedPerExecution: &negSeconds},
			}},
			wantErrs: 1,
		},
		{
			name: "errors indexed per automation",
			req: CreateAutomationsRequest{Automations: []AutomationRequest{
				{WorkflowID: "wf-1"},
				{},
			}},
			wantErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := validateAutomations(tt.req); len(errs) != tt.wantErrs {
				t.Errorf("expected %d errors, got %+v", tt.wantErrs, errs)
			}
		})
	}
}

func TestValidateAutomations_ErrorFieldsAreIndexed(t *testing.T) {
	req := CreateAutomationsRequest{Automations: []AutomationRequest{
		{WorkflowID: "wf-1"},
		{},
	}}

	errs := validateAutomations(req)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %+v", errs)
	}
	if errs[0].Field != "automations[1].workflow_id" {
		t.Errorf("Field = %q, want automations[1].workflow_id", errs[0].Field)
	}
}

func TestValidateUpdateAutomation(t *testing.T) {
	empty := ""
	bad := "not-a-uuid"
	status := "paused"
	badStatus := "sleeping"

	tests := []struct {
		name     string
		req      UpdateAutomationRequest
		wantErrs int
	}{
		{name: "empty update", req: UpdateAutomationRequest{}, wantErrs: 0},
		{name: "detach client", req: UpdateAutomationRequest{ClientID: &empty}, wantErrs: 0},
		{name: "bad client id", req: UpdateAutomationRequest{ClientID: &bad}, wantErrs: 1},
		{name: "valid status", req: UpdateAutomationRequest{Status: &status}, wantErrs: 0},
		{name: "bad status", req: UpdateAutomationRequest{Status: &badStatus}, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := validateUpdateAutomation(tt.req); len(errs) != tt.wantErrs {
				t.Errorf("expected %d errors, got %+v", tt.wantErrs, errs)
			}
		})
	}
}
