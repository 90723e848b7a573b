// Package purchase coordinates the three phases of a marketplace purchase:
// inventory reservation with a payment request, confirmation once the
// payment completes, and compensation when it fails.
//
// Stock is only ever changed through version-checked product updates and a
// purchase leaves the pending state at most once, so replayed payment
// events are acknowledged without touching stock again.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/amirasaad/ledgercore/pkg/repository"
	purchaserepo "github.com/amirasaad/ledgercore/pkg/repository/purchase"
	"github.com/amirasaad/ledgercore/pkg/utils"
	"github.com/shopspring/decimal"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 100 * time.Millisecond

	defaultFailureMessage = "Payment failed"
)

// RequestInput starts a purchase.
type RequestInput struct {
	UserID        string
	ProductID     string
	Quantity      int
	BenefitType   string
	CorrelationID string
}

// RequestResult describes a reserved, pending purchase.
type RequestResult struct {
	PurchaseID     string          `json:"purchase_id"`
	ProductID      string          `json:"product_id"`
	Quantity       int             `json:"quantity"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       currency.Code   `json:"currency"`
	BenefitApplied string          `json:"benefit_applied,omitempty"`
	Status         purchase.Status `json:"status"`
	Message        string          `json:"message"`
}

// CompleteInput confirms a purchase after its payment succeeded.
type CompleteInput struct {
	UserID        string
	PurchaseID    string
	TransactionID string
	CorrelationID string
}

// FailInput compensates a purchase after its payment failed.
type FailInput struct {
	UserID        string
	PurchaseID    string
	ErrorMessage  string
	CorrelationID string
}

// Outcome reports what a completion or compensation did. Found is false
// when the purchase does not exist; AlreadyProcessed is true when it had
// already left the pending state and nothing was changed.
type Outcome struct {
	PurchaseID          string          `json:"purchase_id"`
	Status              purchase.Status `json:"status,omitempty"`
	TransactionID       string          `json:"transaction_id,omitempty"`
	Found               bool            `json:"found"`
	AlreadyProcessed    bool            `json:"already_processed"`
	CompensationApplied bool            `json:"compensation_applied"`
	Message             string          `json:"message"`
}

// Orchestrator runs the purchase saga.
type Orchestrator struct {
	uow         repository.UnitOfWork
	publisher   *publisher.Publisher
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRetry overrides the conflict retry budget used for product and
// purchase updates.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(o *Orchestrator) {
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
		if delay >= 0 {
			o.retryDelay = delay
		}
	}
}

// NewOrchestrator creates an Orchestrator from deps.
func NewOrchestrator(deps config.Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		uow:         deps.Uow,
		publisher:   deps.Publisher,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      deps.Logger.With("service", "purchase"),
	}
	if deps.Config != nil && deps.Config.Ledger != nil {
		WithRetry(deps.Config.Ledger.MaxAttempts, deps.Config.Ledger.RetryDelay)(o)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RequestPurchase reserves stock, records a pending purchase and asks the
// payment subsystem to charge for it. If the payment request cannot be
// published the reservation is released, the purchase is marked failed and
// an EVENT_PUBLISH_FAILED error is returned.
func (o *Orchestrator) RequestPurchase(ctx context.Context, in RequestInput) (*RequestResult, error) {
	if err := utils.ValidateID("user_id", in.UserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, domain.NewValidationError("Invalid product_id")
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity must be positive")
	}
	in.BenefitType = strings.ToUpper(strings.TrimSpace(in.BenefitType))
	log := o.logger.With(
		"user_id", in.UserID,
		"product_id", in.ProductID,
		"quantity", in.Quantity,
		"correlation_id", in.CorrelationID,
	)

	var pu *purchase.Purchase
	var product *purchase.Product
	err := o.retry(ctx, log, "reserve inventory", func() error {
		return o.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			products, err := uow.ProductRepository()
			if err != nil {
				return err
			}
			purchases, err := uow.PurchaseRepository()
			if err != nil {
				return err
			}
			p, err := products.Get(ctx, in.ProductID, true)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewProductNotFoundError(in.ProductID)
			}
			if err != nil {
				return err
			}
			if in.BenefitType != "" && !p.Offers(in.BenefitType) {
				return domain.NewValidationError(fmt.Sprintf(
					"Benefit %s is not offered for product %s", in.BenefitType, in.ProductID,
				))
			}
			version := p.Version
			if err := p.Reserve(in.Quantity); err != nil {
				return err
			}
			if err := products.ConditionalUpdate(ctx, p, version); err != nil {
				return err
			}
			created := purchase.NewPending(in.UserID, p, in.Quantity, in.BenefitType, in.CorrelationID)
			if err := purchases.Create(ctx, created); err != nil {
				return err
			}
			pu, product = created, p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	log = log.With("purchase_id", pu.PurchaseID)
	log.Info("📦 inventory reserved", "stock", product.Stock, "reserved", product.Reserved)

	ok := o.publisher.PublishSuccess(ctx, events.EventTypePaymentRequest, map[string]any{
		"purchase_id": pu.PurchaseID,
		"product_id":  pu.ProductID,
		"amount":      pu.TotalAmount,
		"currency":    pu.Currency.String(),
		"description": "Purchase: " + product.Name,
	}, in.CorrelationID, events.SourceMarketplace, in.UserID)
	if !ok {
		log.Error("❌ payment request not published, compensating")
		// The caller may already be gone; the reservation must still be released.
		if _, err := o.compensate(context.WithoutCancel(ctx), FailInput{
			UserID:        in.UserID,
			PurchaseID:    pu.PurchaseID,
			ErrorMessage:  "Failed to publish payment request",
			CorrelationID: in.CorrelationID,
		}, domain.CodeEventPublishFailed); err != nil {
			log.Error("❌ compensation after publish failure did not complete", "error", err)
		}
		return nil, domain.NewInternalError(
			domain.CodeEventPublishFailed,
			"Failed to publish payment request",
			nil,
		)
	}

	return &RequestResult{
		PurchaseID:     pu.PurchaseID,
		ProductID:      pu.ProductID,
		Quantity:       pu.Quantity,
		TotalAmount:    pu.TotalAmount,
		Currency:       pu.Currency,
		BenefitApplied: pu.BenefitApplied,
		Status:         pu.Status,
		Message:        "Purchase initiated, awaiting payment",
	}, nil
}

// CompletePurchase moves a pending purchase to completed, storing the
// payment transaction id, and publishes PURCHASE_CONFIRMED. Stock stays
// reserved. A missing or already finished purchase is reported in the
// Outcome, not as an error.
func (o *Orchestrator) CompletePurchase(ctx context.Context, in CompleteInput) (*Outcome, error) {
	if strings.TrimSpace(in.PurchaseID) == "" {
		return nil, domain.NewValidationError("Invalid purchase_id")
	}
	log := o.logger.With("purchase_id", in.PurchaseID, "correlation_id", in.CorrelationID)

	var out *Outcome
	var pu *purchase.Purchase
	err := o.retry(ctx, log, "complete purchase", func() error {
		out, pu = nil, nil
		return o.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			purchases, err := uow.PurchaseRepository()
			if err != nil {
				return err
			}
			current, settled, err := o.loadPending(ctx, purchases, in.PurchaseID, in.UserID, log)
			if err != nil || settled != nil {
				out = settled
				return err
			}
			current.Status = purchase.StatusCompleted
			current.TransactionID = in.TransactionID
			if err := purchases.TransitionFromPending(ctx, current); err != nil {
				return err
			}
			pu = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		return out, nil
	}

	log.Info("✅ purchase completed", "transaction_id", pu.TransactionID)
	o.publisher.PublishSuccess(ctx, events.EventTypePurchaseConfirmed, map[string]any{
		"purchase_id":    pu.PurchaseID,
		"product_id":     pu.ProductID,
		"quantity":       pu.Quantity,
		"total_amount":   pu.TotalAmount,
		"transaction_id": pu.TransactionID,
		"status":         string(pu.Status),
	}, in.CorrelationID, events.SourceMarketplace, pu.UserID)

	return &Outcome{
		PurchaseID:    pu.PurchaseID,
		Status:        pu.Status,
		TransactionID: pu.TransactionID,
		Found:         true,
		Message:       "Purchase confirmed",
	}, nil
}

// FailPurchase marks a pending purchase failed and releases its
// reservation in the same transaction. PURCHASE_FAILED is published only
// after that commit.
func (o *Orchestrator) FailPurchase(ctx context.Context, in FailInput) (*Outcome, error) {
	if strings.TrimSpace(in.PurchaseID) == "" {
		return nil, domain.NewValidationError("Invalid purchase_id")
	}
	return o.compensate(ctx, in, domain.CodePaymentFailed)
}

func (o *Orchestrator) compensate(ctx context.Context, in FailInput, errorCode string) (*Outcome, error) {
	if strings.TrimSpace(in.ErrorMessage) == "" {
		in.ErrorMessage = defaultFailureMessage
	}
	log := o.logger.With("purchase_id", in.PurchaseID, "correlation_id", in.CorrelationID)

	var out *Outcome
	var pu *purchase.Purchase
	var released bool
	err := o.retry(ctx, log, "compensate purchase", func() error {
		out, pu, released = nil, nil, false
		return o.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			purchases, err := uow.PurchaseRepository()
			if err != nil {
				return err
			}
			products, err := uow.ProductRepository()
			if err != nil {
				return err
			}
			current, settled, err := o.loadPending(ctx, purchases, in.PurchaseID, in.UserID, log)
			if err != nil || settled != nil {
				out = settled
				return err
			}
			current.Status = purchase.StatusFailed
			current.ErrorMessage = in.ErrorMessage
			if err := purchases.TransitionFromPending(ctx, current); err != nil {
				return err
			}

			p, err := products.Get(ctx, current.ProductID, true)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				log.Warn("⚠️ product gone, nothing to release", "product_id", current.ProductID)
			case err != nil:
				return err
			default:
				version := p.Version
				p.Release(current.Quantity)
				if err := products.ConditionalUpdate(ctx, p, version); err != nil {
					return err
				}
				released = true
			}
			pu = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		return out, nil
	}

	message := "Purchase failed, compensation applied"
	if released {
		log.Info("↩️ purchase failed, reservation released", "product_id", pu.ProductID, "quantity", pu.Quantity)
	} else {
		message = "Purchase failed, no reservation to release"
	}
	o.publisher.PublishFailure(ctx, events.EventTypePurchaseFailed, errorCode, in.ErrorMessage,
		in.CorrelationID, events.SourceMarketplace, pu.UserID, map[string]any{
			"purchase_id":          pu.PurchaseID,
			"product_id":           pu.ProductID,
			"compensation_applied": released,
		})

	return &Outcome{
		PurchaseID:          pu.PurchaseID,
		Status:              pu.Status,
		Found:               true,
		CompensationApplied: released,
		Message:             message,
	}, nil
}

// loadPending returns the pending purchase, or a settled Outcome when the
// purchase is missing, belongs to another user or is already terminal.
func (o *Orchestrator) loadPending(
	ctx context.Context,
	purchases purchaserepo.Repository,
	purchaseID, userID string,
	log *slog.Logger,
) (*purchase.Purchase, *Outcome, error) {
	pu, err := purchases.Get(ctx, purchaseID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn("⚠️ purchase not found, event ignored")
		return nil, notFound(purchaseID), nil
	}
	if err != nil {
		return nil, nil, err
	}
	if userID != "" && pu.UserID != userID {
		log.Warn("⚠️ purchase belongs to another user, event ignored", "user_id", userID)
		return nil, notFound(purchaseID), nil
	}
	if pu.IsTerminal() {
		log.Info("ℹ️ purchase already processed, event ignored", "status", pu.Status)
		return nil, &Outcome{
			PurchaseID:       pu.PurchaseID,
			Status:           pu.Status,
			TransactionID:    pu.TransactionID,
			Found:            true,
			AlreadyProcessed: true,
			Message:          fmt.Sprintf("Purchase already %s", pu.Status),
		}, nil
	}
	return pu, nil, nil
}

func notFound(purchaseID string) *Outcome {
	return &Outcome{
		PurchaseID: purchaseID,
		Found:      false,
		Message:    fmt.Sprintf("Purchase not found: %s", purchaseID),
	}
}

// retry reruns op while it reports a version conflict, sleeping between
// attempts. Each run must start from fresh reads.
func (o *Orchestrator) retry(ctx context.Context, log *slog.Logger, what string, op func() error) error {
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		err := op()
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		log.Warn("⚠️ concurrent update, retrying", "operation", what, "attempt", attempt, "max_attempts", o.maxAttempts)
		if attempt == o.maxAttempts {
			break
		}
		if err := utils.Sleep(ctx, o.retryDelay); err != nil {
			return err
		}
	}
	log.Error("❌ retries exhausted", "operation", what, "max_attempts", o.maxAttempts)
	return domain.NewConcurrentUpdateError("Max retries exceeded for concurrent update")
}
