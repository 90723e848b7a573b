package purchase

import (
	"github.com/amirasaad/ledgercore/pkg/dto"
	"github.com/amirasaad/ledgercore/pkg/handler"
	"github.com/amirasaad/ledgercore/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the marketplace endpoints.
//
// Routes:
//   - POST /purchases              : Reserve stock and request payment.
//   - POST /purchases/:id/complete : Confirm a paid purchase.
//   - POST /purchases/:id/fail     : Compensate a purchase whose payment failed.
//   - GET  /products               : Browse the catalog.
//   - GET  /products/:id/benefits  : Priced benefit options of a product.
func Routes(app fiber.Router, ops *handler.Operations) {
	app.Post("/purchases", RequestPurchase(ops))
	app.Post("/purchases/:id/complete", CompletePurchase(ops))
	app.Post("/purchases/:id/fail", FailPurchase(ops))
	app.Get("/products", ListProducts(ops))
	app.Get("/products/:id/benefits", GetBenefits(ops))
}

// RequestPurchase answers 202: the purchase stays pending until payment
// settles.
func RequestPurchase(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		input := common.BindAndValidate(c, caller, func(in *dto.PurchaseRequest) {
			in.UserID = caller.UserID
			in.CorrelationID = caller.CorrelationID
			if caller.IdempotencyKey != "" {
				in.RequestID = caller.IdempotencyKey
			}
		})
		if input == nil {
			return nil
		}
		resp := ops.RequestPurchase(c.UserContext(), *input)
		if resp.Success {
			resp.Status = fiber.StatusAccepted
		}
		return common.Respond(c, resp)
	}
}

func CompletePurchase(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		input := common.BindAndValidate(c, caller, func(in *dto.CompletePurchaseRequest) {
			in.UserID = caller.UserID
			in.PurchaseID = c.Params("id")
			in.CorrelationID = caller.CorrelationID
		})
		if input == nil {
			return nil
		}
		return common.Respond(c, ops.CompletePurchase(c.UserContext(), *input))
	}
}

func FailPurchase(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		input := common.BindAndValidate(c, caller, func(in *dto.FailPurchaseRequest) {
			in.UserID = caller.UserID
			in.PurchaseID = c.Params("id")
			in.CorrelationID = caller.CorrelationID
		})
		if input == nil {
			return nil
		}
		return common.Respond(c, ops.FailPurchase(c.UserContext(), *input))
	}
}

// ListProducts accepts retailer_id, category and limit query parameters.
func ListProducts(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		query := common.BindQuery(c, caller, func(q *dto.CatalogQuery) {
			q.UserID = caller.UserID
			q.CorrelationID = caller.CorrelationID
		})
		if query == nil {
			return nil
		}
		return common.Respond(c, ops.ListProducts(c.UserContext(), *query))
	}
}

func GetBenefits(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		return common.Respond(c, ops.GetBenefits(c.UserContext(), dto.BenefitsQuery{
			UserID:        caller.UserID,
			ProductID:     c.Params("id"),
			CorrelationID: caller.CorrelationID,
		}))
	}
}
