package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/WujsST/roi-sheet/internal/domain"
)

// IssuerStore is the persistence surface for key issuance.
// IssueKey must deactivate the account's prior keys and insert the new one in
// a single transaction, so at most one key per account is ever active.
type IssuerStore interface {
	IssueKey(ctx context.Context, key domain.APIKey) error
	ListKeys(ctx context.Context, accountID uuid.UUID) ([]domain.APIKey, error)
}

// Issuer creates API keys for accounts.
type Issuer struct {
	store IssuerStore
	now   func() time.Time
}

func NewIssuer(store IssuerStore) *Issuer {
	return &Issuer{store: store, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue generates a key for the account, persists its digest, and returns the
// raw key material. The raw key is not stored and cannot be recovered later.
func (i *Issuer) Issue(ctx context.Context, accountID uuid.UUID) (string, domain.APIKey, error) {
	raw, err := GenerateKey()
	if err != nil {
		return "", domain.APIKey{}, err
	}

	key := domain.APIKey{
		ID:        uuid.New(),
		AccountID: accountID,
		Digest:    Digest(raw),
		Prefix:    DisplayPrefix(raw),
		Active:    true,
		CreatedAt: i.now().UTC(),
	}

	if err := i.store.IssueKey(ctx, key); err != nil {
		return "", domain.APIKey{}, err
	}

	return raw, key, nil
}

// List returns the account's keys, newest first, digests included only as
// display prefixes at the API layer.
func (i *Issuer) List(ctx context.Context, accountID uuid.UUID) ([]domain.APIKey, error) {
	return i.store.ListKeys(ctx, accountID)
}
