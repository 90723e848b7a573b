package main

import (
	"bytes"
	"strings"
	"testing"

	infrabus "github.com/amirasaad/ledgercore/infra/eventbus"
	"github.com/amirasaad/ledgercore/pkg/app"
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/idempotency"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/amirasaad/ledgercore/pkg/testutils"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true

	cfg := config.Default()
	cfg.Ledger.RetryDelay = 0
	logger := testutils.DiscardLogger()
	uow := testutils.NewTestUoW(t)
	bus := infrabus.NewWithMemory(logger)
	a, err := app.New(config.Deps{
		Uow:         uow,
		EventBus:    bus,
		Publisher:   publisher.New(bus, logger, publisher.DefaultBreakerConfig()),
		Idempotency: idempotency.New(idempotency.NewSQLStore(uow), logger),
		Logger:      logger,
		Config:      cfg,
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return newCLI(a, out), out
}

func (c *cli) mustRun(t *testing.T, out *bytes.Buffer, args ...string) string {
	t.Helper()
	out.Reset()
	code := c.run(args)
	require.Equal(t, exitOK, code, out.String())
	return out.String()
}

func TestRun_Usage(t *testing.T) {
	c, out := newTestCLI(t)

	assert.Equal(t, exitUsage, c.run(nil))
	assert.Contains(t, out.String(), "Usage: cli <command>")

	out.Reset()
	assert.Equal(t, exitUsage, c.run([]string{"withdraw"}))
	assert.Contains(t, out.String(), `Unknown command "withdraw"`)

	out.Reset()
	assert.Equal(t, exitUsage, c.run([]string{"transfer", "user-1"}))
	assert.Contains(t, out.String(), commands["transfer"].usage)
}

func TestRun_TransferFlow(t *testing.T) {
	c, out := newTestCLI(t)

	got := c.mustRun(t, out, "open-account", "user-1", "acc-1", "1000", "mxn")
	assert.True(t, strings.HasPrefix(got, "✔ 200"))
	assert.Contains(t, got, `"balance": "1000"`)
	c.mustRun(t, out, "open-account", "user-2", "acc-2")
	c.mustRun(t, out, "beneficiary", "user-1", "Juan", "Juanito", "acc-2")

	got = c.mustRun(t, out, "resolve", "user-1", "juanito")
	assert.Contains(t, got, `"account_id": "acc-2"`)

	got = c.mustRun(t, out, "transfer", "user-1", "acc-1", "acc-2", "250.50", "rent")
	assert.Contains(t, got, `"status": "completed"`)

	got = c.mustRun(t, out, "balance", "user-1", "acc-1")
	assert.Contains(t, got, `"balance": "749.5"`)

	got = c.mustRun(t, out, "history", "user-2", "acc-2")
	assert.Contains(t, got, `"description": "rent"`)
}

func TestRun_FailuresExitNonZero(t *testing.T) {
	c, out := newTestCLI(t)
	c.mustRun(t, out, "open-account", "user-1", "acc-1", "100")
	c.mustRun(t, out, "open-account", "user-2", "acc-2")

	out.Reset()
	assert.Equal(t, exitFailed, c.run([]string{"transfer", "user-1", "acc-1", "acc-2", "500"}))
	assert.Contains(t, out.String(), "✖ 422 INSUFFICIENT_FUNDS")

	out.Reset()
	assert.Equal(t, exitFailed, c.run([]string{"transfer", "user-1", "acc-1", "acc-2", "ten"}))
	assert.Contains(t, out.String(), `invalid amount "ten"`)

	out.Reset()
	assert.Equal(t, exitFailed, c.run([]string{"resolve", "user-1", "nobody"}))
	assert.Contains(t, out.String(), "✖ 422")
}

func TestRun_PurchaseFlow(t *testing.T) {
	c, out := newTestCLI(t)
	c.mustRun(t, out, "add-product", "prod-1", "10", "250", "msi_3")

	got := c.mustRun(t, out, "products")
	assert.Contains(t, got, `"prod-1"`)

	got = c.mustRun(t, out, "purchase", "user-1", "prod-1", "2", "MSI_3")
	assert.Contains(t, got, `"status": "pending"`)
	assert.Contains(t, got, `"total_amount": "500"`)

	idx := strings.Index(got, `"purchase_id": "`)
	require.GreaterOrEqual(t, idx, 0)
	rest := got[idx+len(`"purchase_id": "`):]
	purchaseID := rest[:strings.Index(rest, `"`)]

	got = c.mustRun(t, out, "fail", "user-1", purchaseID, "card declined")
	assert.Contains(t, got, `"compensation_applied": true`)

	got = c.mustRun(t, out, "complete", "user-1", purchaseID)
	assert.Contains(t, got, `"already_processed": true`)
}
