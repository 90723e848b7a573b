package webapi_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/webapi/common"
	"github.com/amirasaad/ledgercore/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type AppTestSuite struct {
	testutils.E2ETestSuite
}

func TestAppTestSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func (s *AppTestSuite) TestHealth() {
	resp := s.Request(fiber.MethodGet, "/", "", "")
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *AppTestSuite) TestDebugRoutesListsEveryEndpoint() {
	resp := s.Request(fiber.MethodGet, "/debug/routes", "", "")
	defer resp.Body.Close() //nolint: errcheck
	var routes []map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&routes))

	paths := map[string]bool{}
	for _, r := range routes {
		paths[r["method"]+" "+r["path"]] = true
	}
	for _, want := range []string{
		"POST /transfers",
		"POST /aliases/resolve",
		"POST /purchases",
		"POST /purchases/:id/complete",
		"POST /purchases/:id/fail",
		"GET /accounts/:id/balance",
		"GET /transactions",
		"POST /beneficiaries",
		"GET /beneficiaries",
		"GET /products",
		"GET /products/:id/benefits",
	} {
		s.True(paths[want], want)
	}
}

func (s *AppTestSuite) TestUnknownRouteIsProblem() {
	resp := s.Request(fiber.MethodGet, "/nowhere", "", testutils.UserID)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(http.StatusNotFound, resp.StatusCode)
	var pd common.ProblemDetails
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&pd))
	s.Equal(http.StatusNotFound, pd.Status)
}

func (s *AppTestSuite) TestRateLimit() {
	s.Reconfigure(func(cfg *config.App) {
		cfg.RateLimit.MaxRequests = 5
		cfg.RateLimit.Window = time.Second
	})

	for i := range 6 {
		resp := s.Request(fiber.MethodGet, "/", "", "")
		_ = resp.Body.Close()
		if i < 5 {
			s.Equal(fiber.StatusOK, resp.StatusCode, "request %d", i+1)
		} else {
			s.Equal(fiber.StatusTooManyRequests, resp.StatusCode, "request %d", i+1)
		}
	}

	// Separate clients have separate budgets.
	resp := s.Request(fiber.MethodGet, "/", "", "", map[string]string{"X-Forwarded-For": "10.0.0.9, 10.0.0.1"})
	_ = resp.Body.Close()
	s.Equal(fiber.StatusOK, resp.StatusCode)

	time.Sleep(1100 * time.Millisecond)
	resp = s.Request(fiber.MethodGet, "/", "", "")
	_ = resp.Body.Close()
	s.Equal(fiber.StatusOK, resp.StatusCode, "budget resets after the window")
}
