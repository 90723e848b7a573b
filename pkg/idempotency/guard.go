// Package idempotency deduplicates requests by caller-supplied request id
// for a bounded retention window.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/repository/idempotency"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a processed request id is remembered.
const DefaultTTL = 24 * time.Hour

// DefaultClaimTTL bounds how long an unfinished claim blocks retries after
// its owner died mid-call.
const DefaultClaimTTL = 5 * time.Minute

// Guard answers "was this request already processed" and replays stored
// results for duplicates.
type Guard struct {
	store    Store
	ttl      time.Duration
	claimTTL time.Duration
	now      func() time.Time
	inflight singleflight.Group
	logger   *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithClaimTTL overrides DefaultClaimTTL.
func WithClaimTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.claimTTL = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// New creates a Guard over store.
func New(store Store, logger *slog.Logger, opts ...Option) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Guard{
		store:    store,
		ttl:      DefaultTTL,
		claimTTL: DefaultClaimTTL,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With("component", "idempotency"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TTL returns the retention window applied when Record gets ttl <= 0.
func (g *Guard) TTL() time.Duration {
	return g.ttl
}

// Lookup returns the live record for requestID, or nil when none exists or
// it has expired.
func (g *Guard) Lookup(ctx context.Context, requestID string) (*idempotency.Record, error) {
	rec, err := g.store.Get(ctx, requestID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if rec.Expired(g.now()) {
		return nil, nil
	}
	return rec, nil
}

// IsDuplicate reports whether requestID was processed within its TTL or is
// being processed right now.
func (g *Guard) IsDuplicate(ctx context.Context, requestID string) (bool, error) {
	rec, err := g.Lookup(ctx, requestID)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Record stores result as JSON under requestID unless a live record exists.
// ttl <= 0 uses the guard's default.
func (g *Guard) Record(ctx context.Context, requestID string, result any, ttl time.Duration) error {
	rec, err := g.completed(requestID, result, ttl)
	if err != nil {
		return err
	}
	if err := g.store.Claim(ctx, rec); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return err
	}
	return nil
}

// Run executes fn at most once per requestID across every guard sharing the
// store. The id is claimed before fn runs; a live claim or record
// short-circuits with a DuplicateRequest error carrying the stored result, if
// any. Only successful results are kept, so failed requests may be retried.
// Concurrent callers in this process share the leader's execution and get a
// DuplicateRequest error carrying its result. An empty id disables the guard.
func (g *Guard) Run(ctx context.Context, requestID string, fn func(ctx context.Context) (any, error)) (any, error) {
	if requestID == "" {
		return fn(ctx)
	}
	leader := false
	v, err, shared := g.inflight.Do(requestID, func() (any, error) {
		leader = true
		return g.run(ctx, requestID, fn)
	})
	if shared && !leader && err == nil {
		g.logger.Debug("🔁 coalesced concurrent request", "request_id", requestID)
		return nil, domain.NewDuplicateRequestError(requestID, v)
	}
	return v, err
}

func (g *Guard) run(ctx context.Context, requestID string, fn func(ctx context.Context) (any, error)) (any, error) {
	now := g.now()
	claim := &idempotency.Record{
		RequestID:   requestID,
		Status:      idempotency.StatusInProgress,
		ProcessedAt: now,
		ExpiresAt:   now.Add(g.claimTTL),
	}
	if err := g.store.Claim(ctx, claim); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, g.duplicate(ctx, requestID)
		}
		return nil, err
	}

	result, err := fn(ctx)
	// The claim must be settled even when the caller has gone away.
	ctx = context.WithoutCancel(ctx)
	if err != nil {
		if rerr := g.store.Release(ctx, requestID); rerr != nil {
			g.logger.Error("❌ failed to release idempotency claim", "request_id", requestID, "error", rerr)
		}
		return nil, err
	}
	rec, err := g.completed(requestID, result, 0)
	if err == nil {
		err = g.store.Complete(ctx, rec)
	}
	if err != nil {
		g.logger.Error("❌ failed to record idempotency result", "request_id", requestID, "error", err)
	}
	return result, nil
}

func (g *Guard) duplicate(ctx context.Context, requestID string) error {
	rec, err := g.Lookup(ctx, requestID)
	if err != nil {
		return err
	}
	if rec == nil || rec.InProgress() {
		return domain.NewDuplicateRequestError(requestID, nil)
	}
	return domain.NewDuplicateRequestError(requestID, decodeResult(rec.Result))
}

func (g *Guard) completed(requestID string, result any, ttl time.Duration) (*idempotency.Record, error) {
	if ttl <= 0 {
		ttl = g.ttl
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("idempotency: encode result: %w", err)
	}
	now := g.now()
	return &idempotency.Record{
		RequestID:   requestID,
		Status:      idempotency.StatusCompleted,
		Result:      raw,
		ProcessedAt: now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

func decodeResult(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
