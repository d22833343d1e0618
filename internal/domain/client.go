package domain

import (
	"time"

	"github.com/google/uuid"
)

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusWarning  ClientStatus = "warning"
	ClientStatusInactive ClientStatus = "inactive"
)

// ValidClientStatus reports whether s is one of the accepted client statuses.
func ValidClientStatus(s string) bool {
	switch ClientStatus(s) {
	case ClientStatusActive, ClientStatusWarning, ClientStatusInactive:
		return true
	}
	return false
}

// Client is an agency customer. Automations are attributed to at most one
// client; savings roll up per client for reports.
type Client struct {
	ID uuid.UUID

	Name     string
	Industry string
	Logo     string // one or two display characters

	Status ClientStatus

	AutomationsCount int
	SavedAmount      float64
	ROIPercentage    float64

	CreatedAt time.Time
}

// ClientUpdate carries the mutable client fields. Nil pointers leave the
// stored value untouched.
type ClientUpdate struct {
	Name     *string
	Industry *string
	Logo     *string
	Status   *ClientStatus
}
