package config

import (
	"log/slog"

	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/eventbus"
	"github.com/amirasaad/ledgercore/pkg/idempotency"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/amirasaad/ledgercore/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Uow              repository.UnitOfWork
	EventBus         eventbus.Bus
	Publisher        *publisher.Publisher
	Idempotency      *idempotency.Guard
	CurrencyRegistry *currency.Registry
	Logger           *slog.Logger
	Config           *App
}
