package handler

import (
	"context"
	"log/slog"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/eventbus"
	"github.com/amirasaad/ledgercore/pkg/mapper"
)

// Inbound bus handlers. A handler returns an error only when the event
// cannot be decoded; business failures are answered with failure events
// by the boundary and must not be redelivered.

// HandleTransferRequest runs a transfer for each TRANSFER_REQUEST.
func HandleTransferRequest(ops *Operations, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e *events.Envelope) error {
		log := inboundLogger(logger, "handler.HandleTransferRequest", e)
		req, err := mapper.MapTransferRequestEvent(e)
		if err != nil {
			log.Error("❌ [ERROR] malformed event", "error", err)
			return err
		}
		logResponse(log, ops.Transfer(ctx, req))
		return nil
	}
}

// HandleAliasResolutionRequest resolves the alias of each
// ALIAS_RESOLUTION_REQUEST.
func HandleAliasResolutionRequest(ops *Operations, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e *events.Envelope) error {
		log := inboundLogger(logger, "handler.HandleAliasResolutionRequest", e)
		req, err := mapper.MapAliasResolutionEvent(e)
		if err != nil {
			log.Error("❌ [ERROR] malformed event", "error", err)
			return err
		}
		logResponse(log, ops.ResolveAlias(ctx, req))
		return nil
	}
}

// HandlePurchaseRequest starts the purchase saga.
func HandlePurchaseRequest(ops *Operations, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e *events.Envelope) error {
		log := inboundLogger(logger, "handler.HandlePurchaseRequest", e)
		req, err := mapper.MapPurchaseRequestEvent(e)
		if err != nil {
			log.Error("❌ [ERROR] malformed event", "error", err)
			return err
		}
		logResponse(log, ops.RequestPurchase(ctx, req))
		return nil
	}
}

// HandlePaymentCompleted confirms the purchase a payment was made for.
func HandlePaymentCompleted(ops *Operations, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e *events.Envelope) error {
		log := inboundLogger(logger, "handler.HandlePaymentCompleted", e)
		req, err := mapper.MapPaymentCompletedEvent(e)
		if err != nil {
			log.Error("❌ [ERROR] malformed event", "error", err)
			return err
		}
		logResponse(log, ops.CompletePurchase(ctx, req))
		return nil
	}
}

// HandlePaymentFailed compensates the purchase a payment failed for.
func HandlePaymentFailed(ops *Operations, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e *events.Envelope) error {
		log := inboundLogger(logger, "handler.HandlePaymentFailed", e)
		req, err := mapper.MapPaymentFailedEvent(e)
		if err != nil {
			log.Error("❌ [ERROR] malformed event", "error", err)
			return err
		}
		logResponse(log, ops.FailPurchase(ctx, req))
		return nil
	}
}

func inboundLogger(logger *slog.Logger, name string, e *events.Envelope) *slog.Logger {
	log := logger.With(
		"handler", name,
		"event_type", e.Type(),
		"correlation_id", e.CorrelationID,
	)
	log.Info("🟢 [START] received event")
	return log
}

func logResponse(log *slog.Logger, resp Response) {
	if resp.Success {
		log.Info("✅ [DONE] event handled", "status", resp.Status)
		return
	}
	log.Warn("⚠️ [DONE] event handled with failure", "status", resp.Status, "error_code", resp.Error.Code)
}
