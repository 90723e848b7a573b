// Package testutils runs the HTTP API against an in-memory store and bus.
package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	infrabus "github.com/amirasaad/ledgercore/infra/eventbus"
	infrarepo "github.com/amirasaad/ledgercore/infra/repository"
	"github.com/amirasaad/ledgercore/pkg/app"
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/currency"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	"github.com/amirasaad/ledgercore/pkg/handler"
	"github.com/amirasaad/ledgercore/pkg/idempotency"
	"github.com/amirasaad/ledgercore/pkg/publisher"
	"github.com/amirasaad/ledgercore/pkg/testutils"
	"github.com/amirasaad/ledgercore/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

const (
	UserID          = "user-1"
	OtherUserID     = "user-2"
	AccountID       = "acc-1"
	OtherAccountID  = "acc-2"
	MerchantAccount = "acc-merchant"
	ProductID       = "prod-1"
)

// E2ETestSuite serves the full route table over a fresh SQLite database
// seeded with two users, a beneficiary and one product.
type E2ETestSuite struct {
	suite.Suite
	Cfg   *config.App
	Uow   *infrarepo.UoW
	Bus   *infrabus.MemoryEventBus
	App   *app.App
	Fiber *fiber.App
}

func (s *E2ETestSuite) SetupTest() {
	s.setup(nil)
}

func (s *E2ETestSuite) setup(configure func(*config.App)) {
	t := s.T()
	s.Uow = testutils.NewTestUoW(t)
	testutils.SeedAccount(t, s.Uow, UserID, AccountID, "1000", currency.MXN)
	testutils.SeedAccount(t, s.Uow, OtherUserID, OtherAccountID, "0", currency.MXN)
	testutils.SeedAccount(t, s.Uow, "store", MerchantAccount, "0", currency.MXN)
	testutils.SeedBeneficiary(t, s.Uow, UserID, "Juan Pérez", "juanito", OtherAccountID, time.Now().UTC())
	testutils.SeedProduct(t, s.Uow, ProductID, 10, "250", purchase.BenefitMSI3, purchase.BenefitCashback5)

	s.Cfg = config.Default()
	s.Cfg.Env = "test"
	s.Cfg.RateLimit.MaxRequests = 0
	s.Cfg.Ledger.RetryDelay = time.Millisecond
	if configure != nil {
		configure(s.Cfg)
	}

	logger := testutils.DiscardLogger()
	s.Bus = infrabus.NewWithMemory(logger)
	a, err := app.New(config.Deps{
		Uow:         s.Uow,
		EventBus:    s.Bus,
		Publisher:   publisher.New(s.Bus, logger, publisher.DefaultBreakerConfig()),
		Idempotency: idempotency.New(idempotency.NewSQLStore(s.Uow), logger),
		Logger:      logger,
		Config:      s.Cfg,
	})
	s.Require().NoError(err)
	s.App = a
	s.Fiber = webapi.SetupApp(a)
}

// Reconfigure rebuilds the app and its database with configure applied
// to the default test configuration.
func (s *E2ETestSuite) Reconfigure(configure func(*config.App)) {
	s.setup(configure)
}

// Request sends an HTTP request as userID. An empty userID omits the
// X-User-ID header.
func (s *E2ETestSuite) Request(method, path, body, userID string, headers ...map[string]string) *http.Response {
	h := map[string]string{}
	if userID != "" {
		h["X-User-ID"] = userID
	}
	for _, extra := range headers {
		for k, v := range extra {
			h[k] = v
		}
	}
	return testutils.MakeRequestWithApp(s.Fiber, method, path, body, h)
}

// Response is handler.Response with Data left undecoded.
type Response struct {
	Success       bool               `json:"success"`
	Status        int                `json:"status"`
	Data          json.RawMessage    `json:"data"`
	Error         *handler.ErrorBody `json:"error"`
	CorrelationID string             `json:"correlation_id"`
}

// Decode reads and closes resp.Body.
func (s *E2ETestSuite) Decode(resp *http.Response) Response {
	defer resp.Body.Close() //nolint: errcheck
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	var out Response
	s.Require().NoError(json.Unmarshal(raw, &out), string(raw))
	return out
}

// DecodeData unmarshals the response data into v.
func (s *E2ETestSuite) DecodeData(r Response, v any) {
	s.Require().NoError(json.Unmarshal(r.Data, v), string(r.Data))
}
