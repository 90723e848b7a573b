package purchase_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/events"
	"github.com/amirasaad/ledgercore/pkg/domain/purchase"
	"github.com/amirasaad/ledgercore/pkg/service/catalog"
	saga "github.com/amirasaad/ledgercore/pkg/service/purchase"
	"github.com/amirasaad/ledgercore/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PurchaseTestSuite struct {
	testutils.E2ETestSuite
}

func TestPurchaseTestSuite(t *testing.T) {
	suite.Run(t, new(PurchaseTestSuite))
}

func (s *PurchaseTestSuite) stock() int {
	repo, err := s.Uow.ProductRepository()
	s.Require().NoError(err)
	p, err := repo.Get(context.Background(), testutils.ProductID, true)
	s.Require().NoError(err)
	return p.Stock
}

func (s *PurchaseTestSuite) request(body, userID string) (testutils.Response, saga.RequestResult) {
	r := s.Decode(s.Request(fiber.MethodPost, "/purchases", body, userID))
	var res saga.RequestResult
	if r.Success {
		s.DecodeData(r, &res)
	}
	return r, res
}

func (s *PurchaseTestSuite) outcome(r testutils.Response) saga.Outcome {
	var out saga.Outcome
	s.DecodeData(r, &out)
	return out
}

func (s *PurchaseTestSuite) TestRequestPurchase_Accepted() {
	resp := s.Request(fiber.MethodPost, "/purchases",
		`{"product_id":"prod-1","quantity":2,"benefit_type":"MSI_3"}`, testutils.UserID)
	s.Equal(http.StatusAccepted, resp.StatusCode)
	r := s.Decode(resp)
	var res saga.RequestResult
	s.DecodeData(r, &res)
	s.Equal(purchase.StatusPending, res.Status)
	s.True(res.TotalAmount.Equal(decimal.NewFromInt(500)))
	s.Equal(purchase.BenefitMSI3, res.BenefitApplied)
	s.Equal(8, s.stock())

	requests := s.Bus.PublishedOf(events.EventTypePaymentRequest)
	s.Require().Len(requests, 1)
	s.Equal(res.PurchaseID, requests[0].Data["purchase_id"])
}

func (s *PurchaseTestSuite) TestRequestPurchase_Rejected() {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"zero quantity", `{"product_id":"prod-1","quantity":0}`, http.StatusBadRequest, domain.CodeValidation},
		{"unknown benefit", `{"product_id":"prod-1","quantity":1,"benefit_type":"FREE"}`, http.StatusBadRequest, domain.CodeValidation},
		{"benefit not offered", `{"product_id":"prod-1","quantity":1,"benefit_type":"POINTS_2X"}`, http.StatusBadRequest, domain.CodeValidation},
		{"unknown product", `{"product_id":"prod-x","quantity":1}`, http.StatusNotFound, domain.CodeProductNotFound},
		{"not enough stock", `{"product_id":"prod-1","quantity":11}`, http.StatusUnprocessableEntity, domain.CodeInsufficientStock},
	}
	for _, tc := range tests {
		s.Run(tc.name, func() {
			r, _ := s.request(tc.body, testutils.UserID)
			s.Equal(tc.status, r.Status)
			s.Require().NotNil(r.Error)
			s.Equal(tc.code, r.Error.Code)
		})
	}
	s.Equal(10, s.stock())
	s.Empty(s.Bus.PublishedOf(events.EventTypePaymentRequest))
}

func (s *PurchaseTestSuite) TestCompletePurchase() {
	_, res := s.request(`{"product_id":"prod-1","quantity":1}`, testutils.UserID)
	path := "/purchases/" + res.PurchaseID + "/complete"

	r := s.Decode(s.Request(fiber.MethodPost, path, `{"transaction_id":"tx-ext-1"}`, testutils.UserID))
	s.Require().True(r.Success, "%+v", r.Error)
	out := s.outcome(r)
	s.Equal(purchase.StatusCompleted, out.Status)
	s.False(out.AlreadyProcessed)
	s.Len(s.Bus.PublishedOf(events.EventTypePurchaseConfirmed), 1)

	r = s.Decode(s.Request(fiber.MethodPost, path, "", testutils.UserID))
	s.Require().True(r.Success)
	s.True(s.outcome(r).AlreadyProcessed)

	r = s.Decode(s.Request(fiber.MethodPost, "/purchases/"+res.PurchaseID+"/fail", "", testutils.UserID))
	s.True(s.outcome(r).AlreadyProcessed, "a late failure does not undo a completion")
	s.Equal(9, s.stock())
	s.Empty(s.Bus.PublishedOf(events.EventTypePurchaseFailed))
}

func (s *PurchaseTestSuite) TestFailPurchase_ReleasesStock() {
	_, res := s.request(`{"product_id":"prod-1","quantity":3}`, testutils.UserID)
	s.Equal(7, s.stock())

	r := s.Decode(s.Request(fiber.MethodPost, "/purchases/"+res.PurchaseID+"/fail",
		`{"error_message":"Card declined"}`, testutils.UserID))
	s.Require().True(r.Success)
	out := s.outcome(r)
	s.Equal(purchase.StatusFailed, out.Status)
	s.True(out.CompensationApplied)
	s.Equal(10, s.stock())

	failed := s.Bus.PublishedOf(events.EventTypePurchaseFailed)
	s.Require().Len(failed, 1)
	payload, ok := failed[0].Data["error"].(events.ErrorPayload)
	s.Require().True(ok)
	s.Equal("Card declined", payload.Message)
}

func (s *PurchaseTestSuite) TestUnknownOrForeignPurchase() {
	_, res := s.request(`{"product_id":"prod-1","quantity":1}`, testutils.UserID)

	r := s.Decode(s.Request(fiber.MethodPost, "/purchases/nope/complete", "", testutils.UserID))
	s.Equal(http.StatusNotFound, r.Status)
	s.Equal(domain.CodePurchaseNotFound, r.Error.Code)

	r = s.Decode(s.Request(fiber.MethodPost, "/purchases/"+res.PurchaseID+"/fail", "", testutils.OtherUserID))
	s.Equal(http.StatusNotFound, r.Status)
	s.Equal(9, s.stock())
}

func (s *PurchaseTestSuite) TestSettlementCompletesTheSaga() {
	s.Reconfigure(func(cfg *config.App) {
		cfg.Payment.Enabled = true
		cfg.Payment.MerchantAccount = testutils.MerchantAccount
	})

	r, _ := s.request(`{"product_id":"prod-1","quantity":2}`, testutils.UserID)
	s.Require().True(r.Success)
	s.Require().Len(s.Bus.PublishedOf(events.EventTypePaymentCompleted), 1)
	s.Require().Len(s.Bus.PublishedOf(events.EventTypePurchaseConfirmed), 1)

	r, _ = s.request(`{"product_id":"prod-1","quantity":5}`, testutils.UserID)
	s.Require().True(r.Success, "the request itself is accepted")
	s.Require().Len(s.Bus.PublishedOf(events.EventTypePaymentFailed), 1)
	s.Require().Len(s.Bus.PublishedOf(events.EventTypePurchaseFailed), 1)
	s.Equal(8, s.stock())
}

func (s *PurchaseTestSuite) TestCatalog() {
	r := s.Decode(s.Request(fiber.MethodGet, "/products?category=electronics", "", testutils.UserID))
	s.Require().True(r.Success)
	var listing catalog.Listing
	s.DecodeData(r, &listing)
	s.Equal(1, listing.Count)
	s.ElementsMatch([]string{purchase.BenefitMSI3, purchase.BenefitCashback5}, listing.Products[0].Benefits)

	r = s.Decode(s.Request(fiber.MethodGet, "/products?category=books", "", testutils.UserID))
	s.DecodeData(r, &listing)
	s.Zero(listing.Count)

	r = s.Decode(s.Request(fiber.MethodGet, "/products?limit=101", "", testutils.UserID))
	s.Equal(http.StatusBadRequest, r.Status)
}

func (s *PurchaseTestSuite) TestBenefits() {
	r := s.Decode(s.Request(fiber.MethodGet, "/products/prod-1/benefits", "", testutils.UserID))
	s.Require().True(r.Success)
	var b catalog.Benefits
	s.DecodeData(r, &b)
	s.Len(b.BenefitOptions, 2)
	s.True(b.Price.Equal(decimal.NewFromInt(250)))

	r = s.Decode(s.Request(fiber.MethodGet, "/products/missing/benefits", "", testutils.UserID))
	s.Equal(http.StatusNotFound, r.Status)
	s.Equal(domain.CodeProductNotFound, r.Error.Code)
}
