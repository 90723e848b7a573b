// Package app wires the domain services to the operation boundary and
// registers the inbound event handlers on the bus.
package app

import (
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/handler"
	"github.com/amirasaad/ledgercore/pkg/utils"
)

// setupEventBus registers every inbound handler with the event bus.
func (a *App) setupEventBus() {
	a.setupTransferHandlers()
	a.setupPurchaseHandlers()

	if a.Settlement != nil {
		a.Deps.EventBus.Register(events.EventTypePaymentRequest, a.Settlement.HandlePaymentRequest)
		a.Deps.Logger.Info("💳 in-process settlement enabled",
			"merchant_account", utils.MaskAccountID(a.Config.Payment.MerchantAccount))
	}
}

func (a *App) setupTransferHandlers() {
	bus := a.Deps.EventBus
	bus.Register(
		events.EventTypeTransferRequest,
		handler.HandleTransferRequest(a.Operations, a.Deps.Logger),
	)
	bus.Register(
		events.EventTypeAliasResolutionRequest,
		handler.HandleAliasResolutionRequest(a.Operations, a.Deps.Logger),
	)
}

func (a *App) setupPurchaseHandlers() {
	bus := a.Deps.EventBus
	bus.Register(
		events.EventTypePurchaseRequest,
		handler.HandlePurchaseRequest(a.Operations, a.Deps.Logger),
	)
	bus.Register(
		events.EventTypePaymentCompleted,
		handler.HandlePaymentCompleted(a.Operations, a.Deps.Logger),
	)
	bus.Register(
		events.EventTypePaymentFailed,
		handler.HandlePaymentFailed(a.Operations, a.Deps.Logger),
	)
}
