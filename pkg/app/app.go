package app

import (
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/handler"
	"github.com/amirasaad/ledgercore/pkg/service/settlement"
)

type App struct {
	Deps       config.Deps
	Config     *config.App
	Services   handler.Services
	Operations *handler.Operations
	// Settlement is nil unless PAYMENT_SETTLEMENT_ENABLED is set.
	Settlement *settlement.Service
}

// New builds the services and operations and registers the inbound event
// handlers on deps.EventBus. A nil deps.Config is treated as the defaults.
func New(deps config.Deps) (*App, error) {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	app := &App{
		Deps:     deps,
		Config:   deps.Config,
		Services: handler.NewServices(deps),
	}
	app.Operations = handler.NewOperations(deps, app.Services)

	if deps.Config.Payment != nil && deps.Config.Payment.Enabled {
		app.Settlement = settlement.NewService(deps, app.Services.Transfers)
		if !app.Settlement.Configured() {
			return nil, settlement.ErrNotConfigured
		}
	}
	app.setupEventBus()
	return app, nil
}
