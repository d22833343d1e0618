package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/WujsST/roi-sheet/internal/domain"
)

// ErrKeyNotFound is returned when no active key matches the presented
// credential. The store maps its no-rows condition to this sentinel.
var ErrKeyNotFound = errors.New("api key not found")

// Identity is the resolved owner of a valid credential.
type Identity struct {
	KeyID     uuid.UUID
	AccountID uuid.UUID
}

// Store is the credential lookup surface the validator needs.
type Store interface {
	GetActiveKeyByDigest(ctx context.Context, digest string) (domain.APIKey, error)
	TouchKey(ctx context.Context, id uuid.UUID, usedAt time.Time) error
}

// Validator resolves presented key material to the owning account.
type Validator struct {
	store Store
	now   func() time.Time
}

func NewValidator(store Store) *Validator {
	return &Validator{store: store, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate checks raw key material against the credential store.
// Returns ErrKeyNotFound when no active key matches. On success the key's
// last-used timestamp is updated best-effort: a failed update is logged and
// never fails the request.
func (v *Validator) Validate(ctx context.Context, raw string) (Identity, error) {
	key, err := v.store.GetActiveKeyByDigest(ctx, Digest(raw))
	if err != nil {
		return Identity{}, err
	}

	if err := v.store.TouchKey(ctx, key.ID, v.now().UTC()); err != nil {
		log.Printf("auth: last-used update failed for key %s: %v", key.ID, err)
	}

	return Identity{KeyID: key.ID, AccountID: key.AccountID}, nil
}
