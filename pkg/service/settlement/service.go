// Package settlement charges purchases in-process. It stands in for the
// external payment subsystem: a PAYMENT_REQUEST is settled as a ledger
// transfer from the buyer to the merchant account and answered with
// PAYMENT_COMPLETED or PAYMENT_FAILED.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/account"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	"github.com/amirasaad/ledgercore/pkg/idempotency"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/amirasaad/ledgercore/pkg/repository"
	"github.com/amirasaad/ledgercore/pkg/service/transfer"
)

// ErrNotConfigured reports that settlement is enabled without a merchant
// account.
var ErrNotConfigured = errors.New("settlement: merchant account not configured")

// Result is the outcome of one settlement.
type Result struct {
	PurchaseID    string `json:"purchase_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	Paid          bool   `json:"paid"`
	ErrorCode     string `json:"error_code,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	// InProgress is set when another delivery of the same request is still
	// being settled; nothing is charged or published.
	InProgress bool `json:"-"`
}

type Service struct {
	uow             repository.UnitOfWork
	transfers       *transfer.Processor
	publisher       *publisher.Publisher
	guard           *idempotency.Guard
	merchantAccount string
	logger          *slog.Logger
}

// NewService creates a settlement service that pays into the merchant
// account configured under PAYMENT_SETTLEMENT. Without a configured guard,
// settlements are deduplicated in the relational store.
func NewService(deps config.Deps, transfers *transfer.Processor) *Service {
	s := &Service{
		uow:       deps.Uow,
		transfers: transfers,
		publisher: deps.Publisher,
		guard:     deps.Idempotency,
		logger:    deps.Logger.With("service", "settlement"),
	}
	if s.guard == nil {
		s.guard = idempotency.New(idempotency.NewSQLStore(deps.Uow), deps.Logger)
	}
	if deps.Config != nil && deps.Config.Payment != nil {
		s.merchantAccount = deps.Config.Payment.MerchantAccount
	}
	return s
}

// Configured reports whether a merchant account is set.
func (s *Service) Configured() bool {
	return s.merchantAccount != ""
}

// HandlePaymentRequest is the bus handler for PAYMENT_REQUEST. Undecodable
// payloads and an unavailable idempotency store are returned as errors so the
// bus can redeliver; settlement failures are answered with PAYMENT_FAILED.
func (s *Service) HandlePaymentRequest(ctx context.Context, env *events.Envelope) error {
	var req events.PaymentRequest
	if err := env.Decode(&req); err != nil {
		return err
	}
	if env.UserID != "" {
		req.UserID = env.UserID
	}
	_, err := s.Settle(ctx, req, env.CorrelationID)
	return err
}

// Settle charges req.Amount to the user's first active account in the
// request currency and publishes the payment outcome. Each purchase is
// charged at most once: a redelivered request replays the recorded outcome
// event without moving money again.
func (s *Service) Settle(ctx context.Context, req events.PaymentRequest, correlationID string) (*Result, error) {
	log := s.logger.With("purchase_id", req.PurchaseID, "user_id", req.UserID, "correlation_id", correlationID)
	if strings.TrimSpace(req.PurchaseID) == "" {
		return nil, domain.NewValidationError("Invalid purchase_id")
	}

	out, err := s.guard.Run(ctx, settlementKey(req.PurchaseID), func(ctx context.Context) (any, error) {
		return s.charge(ctx, log, req, correlationID), nil
	})
	res := asResult(out)
	if err != nil {
		de, ok := domain.AsError(err)
		if !ok || de.Kind != domain.KindDuplicateRequest {
			log.Error("❌ settlement guard unavailable", "error", err)
			return nil, err
		}
		res = asResult(de.Details["result"])
		if res == nil {
			log.Info("⏳ settlement already in progress")
			return &Result{PurchaseID: req.PurchaseID, InProgress: true}, nil
		}
		log.Info("🔁 replaying settlement outcome", "paid", res.Paid)
	}
	s.publishOutcome(ctx, req, res, correlationID)
	return res, nil
}

// charge moves the money unless the purchase already left pending. Declines
// are returned as results so they are remembered like successes.
func (s *Service) charge(ctx context.Context, log *slog.Logger, req events.PaymentRequest, correlationID string) *Result {
	if res := s.settledPurchase(ctx, log, req.PurchaseID); res != nil {
		log.Info("⏭️ purchase already settled, not charging again", "paid", res.Paid)
		return res
	}
	tr, err := s.settle(ctx, req, correlationID)
	if err != nil {
		code, message := domain.CodeInternal, "Payment processing error"
		if de, ok := domain.AsError(err); ok && de.Kind != domain.KindInternal {
			code, message = de.Code, de.Message
		} else {
			log.Error("❌ settlement failed", "error", err)
		}
		log.Warn("⚠️ payment declined", "error_code", code)
		return &Result{PurchaseID: req.PurchaseID, ErrorCode: code, ErrorMessage: message}
	}
	log.Info("💳 payment settled", "transaction_id", tr.TransactionID)
	return &Result{PurchaseID: req.PurchaseID, TransactionID: tr.TransactionID, Paid: true}
}

// settledPurchase returns the outcome of a purchase that is no longer
// pending, or nil when it is pending or unknown to this ledger.
func (s *Service) settledPurchase(ctx context.Context, log *slog.Logger, purchaseID string) *Result {
	var p *purchase.Purchase
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.PurchaseRepository()
		if err != nil {
			return err
		}
		p, err = repo.Get(ctx, purchaseID)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("⚠️ could not read purchase before settling", "error", err)
		}
		return nil
	}
	switch p.Status {
	case purchase.StatusCompleted:
		return &Result{PurchaseID: purchaseID, TransactionID: p.TransactionID, Paid: true}
	case purchase.StatusFailed:
		message := p.ErrorMessage
		if message == "" {
			message = "Purchase already failed"
		}
		return &Result{PurchaseID: purchaseID, ErrorCode: domain.CodePaymentFailed, ErrorMessage: message}
	}
	return nil
}

func (s *Service) publishOutcome(ctx context.Context, req events.PaymentRequest, res *Result, correlationID string) {
	if res.Paid {
		s.publisher.PublishSuccess(ctx, events.EventTypePaymentCompleted, map[string]any{
			"purchase_id":    req.PurchaseID,
			"transaction_id": res.TransactionID,
		}, correlationID, events.SourcePayments, req.UserID)
		return
	}
	s.publisher.PublishFailure(ctx, events.EventTypePaymentFailed, res.ErrorCode, res.ErrorMessage,
		correlationID, events.SourcePayments, req.UserID, map[string]any{
			"purchase_id": req.PurchaseID,
		})
}

func settlementKey(purchaseID string) string {
	return "settle:" + purchaseID
}

// asResult accepts the live result or its stored JSON form.
func asResult(v any) *Result {
	switch r := v.(type) {
	case nil:
		return nil
	case *Result:
		return r
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil || res.PurchaseID == "" {
		return nil
	}
	return &res
}

func (s *Service) settle(ctx context.Context, req events.PaymentRequest, correlationID string) (*transfer.Result, error) {
	if s.merchantAccount == "" {
		return nil, domain.NewInternalError("", "Payment processing error", ErrNotConfigured)
	}
	code := currency.Normalize(req.Currency)
	payer, err := s.payerAccount(ctx, req.UserID, code)
	if err != nil {
		return nil, err
	}
	description := req.Description
	if description == "" {
		description = "Purchase " + req.PurchaseID
	}
	return s.transfers.Transfer(ctx, transfer.Input{
		UserID:        req.UserID,
		FromAccount:   payer.AccountID,
		ToAccount:     s.merchantAccount,
		Amount:        req.Amount,
		Currency:      code.String(),
		Description:   description,
		CorrelationID: correlationID,
	})
}

func (s *Service) payerAccount(ctx context.Context, userID string, code currency.Code) (*account.Account, error) {
	var payer *account.Account
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		owned, err := accounts.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, acc := range owned {
			if acc.IsActive() && acc.Currency == code && acc.AccountID != s.merchantAccount {
				payer = acc
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if payer == nil {
		return nil, domain.NewNotFoundError("Account", fmt.Sprintf("active %s account of %s", code, userID))
	}
	return payer, nil
}
