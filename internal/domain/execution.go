package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusError   ExecutionStatus = "error"
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusWaiting ExecutionStatus = "waiting"
)

// ValidExecutionStatus reports whether s is one of the accepted status values.
func ValidExecutionStatus(s string) bool {
	switch ExecutionStatus(s) {
	case ExecutionStatusSuccess, ExecutionStatusError, ExecutionStatusRunning, ExecutionStatusWaiting:
		return true
	}
	return false
}

type Platform string

const (
	PlatformN8N    Platform = "n8n"
	PlatformZapier Platform = "zapier"
	PlatformMake   Platform = "make"
	PlatformRetell Platform = "retell"
	PlatformCustom Platform = "custom"
	PlatformOther  Platform = "other"
)

// ValidPlatform reports whether s is one of the accepted platform values.
func ValidPlatform(s string) bool {
	switch Platform(s) {
	case PlatformN8N, PlatformZapier, PlatformMake, PlatformRetell, PlatformCustom, PlatformOther:
		return true
	}
	return false
}

// Execution records one reported run of an external automation workflow.
// ExecutionID is the natural key: the store enforces uniqueness on it and a
// duplicate delivery must not create a second row.
type Execution struct {
	ID uuid.UUID

	WorkflowID  string
	ExecutionID string

	Status   ExecutionStatus
	Platform Platform

	StartedAt       time.Time
	FinishedAt      *time.Time
	ExecutionTimeMS *int64

	Metadata map[string]any

	AccountID *uuid.UUID

	CreatedAt time.Time
}

// ExecutionLog is an execution joined with the name of the automation that
// owns its workflow id, for the logs and error-alert views.
type ExecutionLog struct {
	Execution
	WorkflowName string
}
