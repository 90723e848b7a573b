package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/google/uuid"
)

type correlationKey struct{}

// WithCorrelationID returns a context carrying the correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored on ctx, or "" when none is set.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}

// EnsureCorrelationID returns id when set, otherwise a fresh UUID.
func EnsureCorrelationID(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return uuid.NewString()
}

// MinIDLength is the shortest accepted user or account id.
const MinIDLength = 3

// ValidateID checks that an identifier is present and long enough.
func ValidateID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(fmt.Sprintf("Invalid %s", field))
	}
	if len(value) < MinIDLength {
		return domain.NewValidationError(fmt.Sprintf("%s too short", field))
	}
	return nil
}

// MaskAccountID keeps only the last four characters of an account id.
func MaskAccountID(id string) string {
	if len(id) <= 4 {
		return "***"
	}
	return "***" + id[len(id)-4:]
}

// Sleep waits d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
