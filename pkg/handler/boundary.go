package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/idempotency"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/amirasaad/ledgercore/pkg/utils"
)

const internalErrorMessage = "Internal server error"

// ErrorBody is the error part of a Response.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Response is the structured result of every operation. No raw error
// crosses the boundary.
type Response struct {
	Success       bool       `json:"success"`
	Status        int        `json:"status"`
	Data          any        `json:"data,omitempty"`
	Error         *ErrorBody `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id"`
}

// Call describes one operation run through the boundary.
type Call struct {
	Operation     string
	UserID        string
	CorrelationID string
	// RequestID enables the idempotency guard when set.
	RequestID string
	Source    string
	// SuccessEvent and FailureEvent are skipped when empty.
	SuccessEvent events.EventType
	FailureEvent events.EventType
	FailureExtra map[string]any
	Exec         func(ctx context.Context) (any, error)
}

// Boundary executes operations and turns their outcome into a Response
// plus a success or failure event.
type Boundary struct {
	publisher *publisher.Publisher
	guard     *idempotency.Guard
	logger    *slog.Logger
}

// NewBoundary creates a Boundary. A nil guard disables idempotency.
func NewBoundary(deps config.Deps) *Boundary {
	return &Boundary{
		publisher: deps.Publisher,
		guard:     deps.Idempotency,
		logger:    deps.Logger.With("component", "boundary"),
	}
}

// Run executes c.Exec with a correlation id on ctx.
func (b *Boundary) Run(ctx context.Context, c Call) Response {
	correlationID := utils.EnsureCorrelationID(c.CorrelationID)
	ctx = utils.WithCorrelationID(ctx, correlationID)
	log := b.logger.With(
		"operation", c.Operation,
		"user_id", c.UserID,
		"correlation_id", correlationID,
	)
	if c.RequestID != "" {
		log = log.With("request_id", c.RequestID)
	}

	var (
		result any
		err    error
	)
	if c.RequestID != "" && b.guard != nil {
		result, err = b.guard.Run(ctx, c.RequestID, c.Exec)
	} else {
		result, err = c.Exec(ctx)
	}

	if err != nil {
		return b.fail(ctx, log, c, correlationID, err)
	}

	log.Debug("✅ operation succeeded")
	if c.SuccessEvent != "" {
		b.publisher.PublishSuccess(ctx, c.SuccessEvent, toEventData(result), correlationID, c.Source, c.UserID)
	}
	return Response{
		Success:       true,
		Status:        http.StatusOK,
		Data:          result,
		CorrelationID: correlationID,
	}
}

func (b *Boundary) fail(ctx context.Context, log *slog.Logger, c Call, correlationID string, err error) Response {
	de, ok := domain.AsError(err)
	if !ok {
		log.Error("❌ operation failed with unexpected error", "error", err)
		de = domain.NewInternalError(domain.CodeInternal, internalErrorMessage, err)
	}
	message := de.Message
	if de.Kind == domain.KindInternal {
		if ok {
			log.Error("❌ operation failed", "error_code", de.Code, "error", err)
		}
		if de.Code == domain.CodeInternal {
			message = internalErrorMessage
		}
	} else {
		log.Warn("⚠️ operation rejected", "error_code", de.Code, "error_message", de.Message)
	}

	resp := Response{
		Success:       false,
		Status:        StatusFor(de.Kind),
		Error:         &ErrorBody{Code: de.Code, Message: message},
		CorrelationID: correlationID,
	}
	if de.Kind == domain.KindDuplicateRequest {
		resp.Data = de.Details["result"]
		return resp
	}
	if de.Kind != domain.KindInternal {
		resp.Error.Details = de.Details
	}
	if c.FailureEvent != "" {
		b.publisher.PublishFailure(ctx, c.FailureEvent, de.Code, message, correlationID, c.Source, c.UserID, c.FailureExtra)
	}
	return resp
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInsufficientFunds, domain.KindInsufficientStock, domain.KindAliasNotFound:
		return http.StatusUnprocessableEntity
	case domain.KindConcurrentUpdate, domain.KindDuplicateRequest, domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// toEventData converts a result into event data through its JSON form.
func toEventData(result any) map[string]any {
	if result == nil {
		return map[string]any{}
	}
	if m, ok := result.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		// Not an object, e.g. a list.
		return map[string]any{"result": result}
	}
	return out
}
