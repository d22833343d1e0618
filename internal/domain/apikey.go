package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a webhook credential issued to an account. Only a SHA-256 digest
// of the key material is stored; the raw key is shown once at issuance.
// At most one key per account is active: issuing a new key deactivates all
// prior keys for that account.
type APIKey struct {
	ID        uuid.UUID
	AccountID uuid.UUID

	Digest string // hex SHA-256 of the raw key
	Prefix string // leading chars of the raw key, for display

	Active bool

	CreatedAt  time.Time
	LastUsedAt *time.Time
}
