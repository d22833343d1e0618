package domain

import (
	"time"

	"github.com/google/uuid"
)

type AutomationStatus string

const (
	AutomationStatusHealthy AutomationStatus = "healthy"
	AutomationStatusError   AutomationStatus = "error"
	AutomationStatusPaused  AutomationStatus = "paused"
)

// Automation is the billing configuration for one workflow: how much manual
// time each execution replaces and at what hourly rate. Executions reference
// automations only through WorkflowID; an execution may arrive before its
// automation exists (it then shows up as an unlinked workflow).
type Automation struct {
	ID uuid.UUID

	Name string // empty until the workflow is named
	Icon string

	ClientID   *uuid.UUID
	WorkflowID string

	Status AutomationStatus

	HourlyRate               float64 // currency per hour of manual work replaced
	SecondsSavedPerExecution int
	MonthlyCost              float64

	CreatedAt time.Time
}

// AutomationUpdate carries the mutable automation fields. Nil pointers leave
// the stored value untouched; ClientID uses NullUUID so an automation can be
// detached from its client.
type AutomationUpdate struct {
	Name                     *string
	Icon                     *string
	ClientID                 *uuid.NullUUID
	Status                   *AutomationStatus
	HourlyRate               *float64
	SecondsSavedPerExecution *int
	MonthlyCost              *float64
}

// UnlinkedWorkflow is a workflow id seen in executions that no automation
// claims yet.
type UnlinkedWorkflow struct {
	WorkflowID     string
	ExecutionCount int
	LastSeen       time.Time
}
