package idempotency

import (
	"context"
	"time"
)

// Record statuses. A claim is in progress until the guarded call succeeds.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Record remembers the outcome of a processed request.
type Record struct {
	RequestID   string
	Status      string
	Result      []byte
	ProcessedAt time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the record is past its TTL at now.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// InProgress reports whether the record is a claim whose call has not
// finished yet.
func (r *Record) InProgress() bool {
	return r.Status == StatusInProgress
}

// Repository stores idempotency records.
type Repository interface {
	// Get returns domain.ErrNotFound when the id was never recorded.
	Get(ctx context.Context, requestID string) (*Record, error)
	// Create inserts rec and returns domain.ErrAlreadyExists when a row for
	// its request id is already present.
	Create(ctx context.Context, rec *Record) error
	// Put inserts or replaces the record for its request id.
	Put(ctx context.Context, rec *Record) error
	// Delete removes the record for requestID. Missing rows are not an error.
	Delete(ctx context.Context, requestID string) error
}
