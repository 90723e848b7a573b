package utils

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationID(ctx))

	ctx = WithCorrelationID(ctx, "corr-1")
	assert.Equal(t, "corr-1", CorrelationID(ctx))

	assert.Equal(t, "corr-1", EnsureCorrelationID("corr-1"))
	generated := EnsureCorrelationID(" ")
	assert.Len(t, generated, 36)
}

func TestValidateID(t *testing.T) {
	require.NoError(t, ValidateID("account_id", "acc"))

	err := ValidateID("account_id", "")
	require.Error(t, err)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid account_id", de.Message)

	err = ValidateID("user_id", "ab")
	de, _ = domain.AsError(err)
	assert.Equal(t, "user_id too short", de.Message)
}

func TestMaskAccountID(t *testing.T) {
	assert.Equal(t, "***5678", MaskAccountID("acc-12345678"))
	assert.Equal(t, "***", MaskAccountID("abcd"))
	assert.Equal(t, "***", MaskAccountID(""))
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}
