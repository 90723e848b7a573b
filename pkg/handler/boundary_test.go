package handler_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	infrabus "github.com/amirasaad/ledgercore/infra/eventbus"
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	"github.com/amirasaad/ledgercore/pkg/dto"
	"github.com/amirasaad/ledgercore/pkg/handler"
	"github.com/amirasaad/ledgercore/pkg/idempotency"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/amirasaad/ledgercore/pkg/service/transfer"
	"github.com/amirasaad/ledgercore/pkg/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ops  *handler.Operations
	bus  *infrabus.MemoryEventBus
	uow  repository.UnitOfWork
	deps config.Deps
}

func setup(t *testing.T) *fixture {
	t.Helper()
	uow := testutils.NewTestUoW(t)
	testutils.SeedAccount(t, uow, "user-1", "acc-1", "1000", currency.MXN)
	testutils.SeedAccount(t, uow, "user-2", "acc-2", "0", currency.MXN)
	testutils.SeedBeneficiary(t, uow, "user-1", "Juan Pérez", "juanito", "acc-2", time.Now().UTC())
	testutils.SeedProduct(t, uow, "prod-1", 10, "250", purchase.BenefitMSI3)

	logger := testutils.DiscardLogger()
	bus := infrabus.NewWithMemory(logger)
	deps := config.Deps{
		Uow:         uow,
		EventBus:    bus,
		Publisher:   publisher.New(bus, logger, publisher.DefaultBreakerConfig()),
		Idempotency: idempotency.New(idempotency.NewSQLStore(uow), logger),
		Logger:      logger,
	}
	svc := handler.NewServices(deps)
	svc.Transfers = transfer.NewProcessor(deps, transfer.WithRetry(3, time.Millisecond))
	return &fixture{ops: handler.NewOperations(deps, svc), bus: bus, uow: uow, deps: deps}
}

func (f *fixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	repo, err := f.uow.AccountRepository()
	require.NoError(t, err)
	acc, err := repo.Get(context.Background(), id, true)
	require.NoError(t, err)
	return acc.Balance
}

func TestTransfer_SuccessPublishesCompletion(t *testing.T) {
	f := setup(t)
	resp := f.ops.Transfer(context.Background(), dto.TransferRequest{
		UserID: "user-1", FromAccount: "acc-1", ToAccount: "acc-2", Amount: decimal.NewFromInt(100),
	})
	require.True(t, resp.Success, "%+v", resp.Error)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.NotEmpty(t, resp.CorrelationID, "a correlation id is generated")
	res, ok := resp.Data.(*transfer.Result)
	require.True(t, ok)

	completed := f.bus.PublishedOf(events.EventTypeTransferCompleted)
	require.Len(t, completed, 1)
	env := completed[0]
	assert.Equal(t, resp.CorrelationID, env.CorrelationID)
	assert.Equal(t, events.SourceCoreBanking, env.Source)
	assert.Equal(t, res.TransactionID, env.Data["transaction_id"])
	assert.Equal(t, "completed", env.Data["status"])
	assert.NotContains(t, env.Data, "Attempts")

	txRepo, err := f.uow.TransactionRepository()
	require.NoError(t, err)
	tx, err := txRepo.Get(context.Background(), res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, resp.CorrelationID, tx.CorrelationID)
}

func TestTransfer_FailuresMapToStatusAndEvent(t *testing.T) {
	tests := []struct {
		name   string
		req    dto.TransferRequest
		status int
		code   string
	}{
		{"same account", dto.TransferRequest{UserID: "user-1", FromAccount: "acc-1", ToAccount: "acc-1", Amount: decimal.NewFromInt(1)}, http.StatusBadRequest, domain.CodeValidation},
		{"unknown destination", dto.TransferRequest{UserID: "user-1", FromAccount: "acc-1", ToAccount: "acc-9", Amount: decimal.NewFromInt(1)}, http.StatusNotFound, domain.CodeResourceNotFound},
		{"insufficient funds", dto.TransferRequest{UserID: "user-1", FromAccount: "acc-1", ToAccount: "acc-2", Amount: decimal.NewFromInt(5000)}, http.StatusUnprocessableEntity, domain.CodeInsufficientFunds},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			tc.req.CorrelationID = "corr-fail"
			resp := f.ops.Transfer(context.Background(), tc.req)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.status, resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
			assert.Equal(t, "corr-fail", resp.CorrelationID)

			failed := f.bus.PublishedOf(events.EventTypeTransferFailed)
			require.Len(t, failed, 1)
			payload, ok := failed[0].Data["error"].(events.ErrorPayload)
			require.True(t, ok)
			assert.Equal(t, tc.code, payload.Code)
			assert.Equal(t, "corr-fail", payload.CorrelationID)
			assert.Empty(t, f.bus.PublishedOf(events.EventTypeTransferCompleted))
			assert.True(t, f.balance(t, "acc-1").Equal(decimal.NewFromInt(1000)))
		})
	}
}

func TestTransfer_DuplicateRequestShortCircuits(t *testing.T) {
	f := setup(t)
	req := dto.TransferRequest{
		UserID: "user-1", RequestID: "req-1", FromAccount: "acc-1", ToAccount: "acc-2",
		Amount: decimal.NewFromInt(100),
	}
	first := f.ops.Transfer(context.Background(), req)
	require.True(t, first.Success)
	original := first.Data.(*transfer.Result)

	second := f.ops.Transfer(context.Background(), req)
	assert.False(t, second.Success)
	assert.Equal(t, http.StatusConflict, second.Status)
	assert.Equal(t, domain.CodeDuplicateRequest, second.Error.Code)
	stored, ok := second.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, original.TransactionID, stored["transaction_id"])

	assert.True(t, f.balance(t, "acc-1").Equal(decimal.NewFromInt(900)), "debited once")
	assert.Len(t, f.bus.PublishedOf(events.EventTypeTransferCompleted), 1)
	assert.Empty(t, f.bus.PublishedOf(events.EventTypeTransferFailed))
}

func TestTransfer_ConcurrentDuplicatesPublishOnce(t *testing.T) {
	f := setup(t)
	req := dto.TransferRequest{
		UserID: "user-1", RequestID: "req-c", FromAccount: "acc-1", ToAccount: "acc-2",
		Amount: decimal.NewFromInt(100),
	}

	const callers = 6
	responses := make(chan handler.Response, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			responses <- f.ops.Transfer(context.Background(), req)
		}()
	}
	wg.Wait()
	close(responses)

	var succeeded, conflicts int
	for resp := range responses {
		switch {
		case resp.Success:
			succeeded++
		case resp.Status == http.StatusConflict:
			conflicts++
		default:
			t.Errorf("unexpected response: %+v", resp.Error)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, conflicts)
	assert.Len(t, f.bus.PublishedOf(events.EventTypeTransferCompleted), 1)
	assert.True(t, f.balance(t, "acc-1").Equal(decimal.NewFromInt(900)), "debited once")
}

func TestBoundary_UnexpectedErrorIsMasked(t *testing.T) {
	f := setup(t)
	b := handler.NewBoundary(f.deps)
	resp := b.Run(context.Background(), handler.Call{
		Operation:    "explode",
		UserID:       "user-1",
		Source:       events.SourceCoreBanking,
		FailureEvent: events.EventTypeTransferFailed,
		Exec: func(context.Context) (any, error) {
			return nil, errors.New("pq: connection reset by peer")
		},
	})
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, domain.CodeInternal, resp.Error.Code)
	assert.Equal(t, "Internal server error", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)

	failed := f.bus.PublishedOf(events.EventTypeTransferFailed)
	require.Len(t, failed, 1)
	payload := failed[0].Data["error"].(events.ErrorPayload)
	assert.Equal(t, "Internal server error", payload.Message)
}

func TestResolveAlias(t *testing.T) {
	f := setup(t)
	resp := f.ops.ResolveAlias(context.Background(), dto.ResolveAliasRequest{UserID: "user-1", Alias: "Juanito"})
	require.True(t, resp.Success)
	responses := f.bus.PublishedOf(events.EventTypeAliasResolutionResponse)
	require.Len(t, responses, 1)
	assert.Equal(t, "acc-2", responses[0].Data["account_id"])
	assert.Equal(t, events.SourceCRM, responses[0].Source)

	resp = f.ops.ResolveAlias(context.Background(), dto.ResolveAliasRequest{UserID: "user-1", Alias: "tía rosa"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Equal(t, domain.CodeAliasNotFound, resp.Error.Code)
	failed := f.bus.PublishedOf(events.EventTypeAliasResolutionFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "tía rosa", failed[0].Data["alias"])
}

func TestPurchaseOperations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resp := f.ops.RequestPurchase(ctx, dto.PurchaseRequest{UserID: "user-1", ProductID: "prod-1", Quantity: 2})
	require.True(t, resp.Success, "%+v", resp.Error)
	assert.Len(t, f.bus.PublishedOf(events.EventTypePaymentRequest), 1)

	resp = f.ops.RequestPurchase(ctx, dto.PurchaseRequest{UserID: "user-1", ProductID: "prod-1", Quantity: 20})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Equal(t, domain.CodeInsufficientStock, resp.Error.Code)
	assert.Equal(t, 8, resp.Error.Details["available"])

	resp = f.ops.CompletePurchase(ctx, dto.CompletePurchaseRequest{UserID: "user-1", PurchaseID: "missing"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, domain.CodePurchaseNotFound, resp.Error.Code)

	resp = f.ops.FailPurchase(ctx, dto.FailPurchaseRequest{UserID: "user-1", PurchaseID: "missing"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestQueryOperations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resp := f.ops.GetBalance(ctx, dto.BalanceQuery{UserID: "user-1", AccountID: "acc-1"})
	require.True(t, resp.Success)
	require.Len(t, f.bus.PublishedOf(events.EventTypeBalanceResponse), 1)

	resp = f.ops.GetBalance(ctx, dto.BalanceQuery{UserID: "user-1", AccountID: "acc-2"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
	require.Len(t, f.bus.PublishedOf(events.EventTypeBalanceQueryFailed), 1)

	resp = f.ops.ListTransactions(ctx, dto.TransactionsQuery{UserID: "user-1"})
	require.True(t, resp.Success)
	require.Len(t, f.bus.PublishedOf(events.EventTypeTransactionsResponse), 1)

	resp = f.ops.ListBeneficiaries(ctx, dto.BeneficiariesQuery{UserID: "user-1"})
	require.True(t, resp.Success)
	list, ok := resp.Data.(dto.BeneficiaryList)
	require.True(t, ok)
	assert.Equal(t, 1, list.Count)

	resp = f.ops.AddBeneficiary(ctx, dto.AddBeneficiaryRequest{UserID: "user-1", Name: "Rosa", Alias: "Juanito", AccountID: "acc-3"})
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, domain.CodeAliasAlreadyExists, resp.Error.Code)
	require.Len(t, f.bus.PublishedOf(events.EventTypeAddBeneficiaryFailed), 1)

	resp = f.ops.AddBeneficiary(ctx, dto.AddBeneficiaryRequest{UserID: "user-1", Name: "Rosa", Alias: "Tía Rosa", AccountID: "acc-3"})
	require.True(t, resp.Success)
	added := f.bus.PublishedOf(events.EventTypeBeneficiaryAdded)
	require.Len(t, added, 1)
	assert.Equal(t, "Rosa", added[0].Data["name"])

	resp = f.ops.ListProducts(ctx, dto.CatalogQuery{UserID: "user-1"})
	require.True(t, resp.Success)
	require.Len(t, f.bus.PublishedOf(events.EventTypeCatalogResponse), 1)

	resp = f.ops.GetBenefits(ctx, dto.BenefitsQuery{UserID: "user-1", ProductID: "prod-1"})
	require.True(t, resp.Success)
	benefits := f.bus.PublishedOf(events.EventTypeBenefitsResponse)
	require.Len(t, benefits, 1)
	options, ok := benefits[0].Data["benefit_options"].([]any)
	require.True(t, ok)
	assert.Len(t, options, 1)

	resp = f.ops.GetBenefits(ctx, dto.BenefitsQuery{UserID: "user-1", ProductID: "nope"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
	require.Len(t, f.bus.PublishedOf(events.EventTypeBenefitsQueryFailed), 1)
}

func TestStatusFor(t *testing.T) {
	cases := map[domain.Kind]int{
		domain.KindValidation:        http.StatusBadRequest,
		domain.KindNotFound:          http.StatusNotFound,
		domain.KindInsufficientFunds: http.StatusUnprocessableEntity,
		domain.KindInsufficientStock: http.StatusUnprocessableEntity,
		domain.KindAliasNotFound:     http.StatusUnprocessableEntity,
		domain.KindConcurrentUpdate:  http.StatusConflict,
		domain.KindDuplicateRequest:  http.StatusConflict,
		domain.KindConflict:          http.StatusConflict,
		domain.KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, handler.StatusFor(kind), string(kind))
	}
}

func TestInboundHandlers(t *testing.T) {
	f := setup(t)
	logger := testutils.DiscardLogger()
	f.bus.Register(events.EventTypeTransferRequest, handler.HandleTransferRequest(f.ops, logger))
	f.bus.Register(events.EventTypeAliasResolutionRequest, handler.HandleAliasResolutionRequest(f.ops, logger))
	ctx := context.Background()

	require.NoError(t, f.bus.Emit(ctx, events.New(events.EventTypeTransferRequest, "agent", "corr-in", "user-1", map[string]any{
		"from_account": "acc-1",
		"to_account":   "acc-2",
		"amount":       "40",
	})))
	completed := f.bus.PublishedOf(events.EventTypeTransferCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "corr-in", completed[0].CorrelationID)
	assert.True(t, f.balance(t, "acc-2").Equal(decimal.NewFromInt(40)))

	require.NoError(t, f.bus.Emit(ctx, events.New(events.EventTypeAliasResolutionRequest, "agent", "corr-al", "user-1", map[string]any{
		"alias": "juanito",
	})))
	require.Len(t, f.bus.PublishedOf(events.EventTypeAliasResolutionResponse), 1)

	malformed := events.New(events.EventTypeTransferRequest, "agent", "corr-bad", "user-1", map[string]any{"amount": "forty"})
	assert.Error(t, handler.HandleTransferRequest(f.ops, logger)(ctx, malformed))
}
