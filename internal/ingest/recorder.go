// Package ingest turns validated execution reports into stored execution
// records. The recorder owns the idempotency contract: at most one row exists
// per execution id, and a redelivery is a successful no-op.
package ingest

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/WujsST/roi-sheet/internal/domain"
)

// ErrDuplicateExecution is returned by the store when an insert hits the
// unique constraint on execution id. The recorder absorbs it; callers of
// Record never see it.
var ErrDuplicateExecution = errors.New("duplicate execution id")

// Payload is a validated, normalized execution report as produced by the API
// layer's schema validation.
type Payload struct {
	WorkflowID      string
	ExecutionID     string // empty means the recorder synthesizes one
	Status          domain.ExecutionStatus
	Platform        domain.Platform
	StartedAt       *time.Time
	FinishedAt      *time.Time
	ExecutionTimeMS *int64
	Metadata        map[string]any
}

// Store is the persistence surface the recorder needs.
type Store interface {
	InsertExecution(ctx context.Context, exec domain.Execution) error
}

// Result reports what Record did. Duplicate means a row with the same
// execution id already existed and no new row was created.
type Result struct {
	Execution domain.Execution
	Duplicate bool
}

// Recorder builds canonical execution records and persists them exactly once
// per execution id.
type Recorder struct {
	store  Store
	now    func() time.Time
	suffix func() string
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now, suffix: randomSuffix}
}

// WithClock overrides the time source, for tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// WithSuffix overrides the synthesized-id suffix source, for tests.
func (r *Recorder) WithSuffix(suffix func() string) *Recorder {
	r.suffix = suffix
	return r
}

// Record persists one execution. If the payload carries no execution id one
// is synthesized so every record has a natural key. A uniqueness conflict at
// the store is reported as a successful duplicate, not an error; the store,
// not the application, serializes concurrent deliveries of the same id.
func (r *Recorder) Record(ctx context.Context, p Payload, accountID *uuid.UUID) (Result, error) {
	now := r.now().UTC()

	execID := p.ExecutionID
	if execID == "" {
		execID = fmt.Sprintf("webhook-%d-%s", now.UnixMilli(), r.suffix())
	}

	startedAt := now
	if p.StartedAt != nil {
		startedAt = p.StartedAt.UTC()
	}

	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	platform := p.Platform
	if platform == "" {
		platform = domain.PlatformCustom
	}

	exec := domain.Execution{
		ID:              uuid.New(),
		WorkflowID:      p.WorkflowID,
		ExecutionID:     execID,
		Status:          p.Status,
		Platform:        platform,
		StartedAt:       startedAt,
		FinishedAt:      p.FinishedAt,
		ExecutionTimeMS: p.ExecutionTimeMS,
		Metadata:        metadata,
		AccountID:       accountID,
		CreatedAt:       now,
	}

	err := r.store.InsertExecution(ctx, exec)
	if errors.Is(err, ErrDuplicateExecution) {
		return Result{Execution: exec, Duplicate: true}, nil
	}
	if err != nil {
		return Result{}, err
	}

	return Result{Execution: exec}, nil
}

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// randomSuffix returns 9 random base36 characters.
func randomSuffix() string {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand on supported platforms does not fail; fall back to the
		// timestamp already embedded in the synthesized id.
		return "000000000"
	}
	for i, b := range buf {
		buf[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(buf)
}
