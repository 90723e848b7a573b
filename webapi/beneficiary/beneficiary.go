package beneficiary

import (
	"github.com/amirasaad/ledgercore/pkg/dto"
	"github.com/amirasaad/ledgercore/pkg/handler"
	"github.com/amirasaad/ledgercore/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the beneficiary endpoints.
//
// Routes:
//   - POST /aliases/resolve : Resolve an alias to a beneficiary account.
//   - POST /beneficiaries   : Add a beneficiary.
//   - GET  /beneficiaries   : List the caller's beneficiaries.
func Routes(app fiber.Router, ops *handler.Operations) {
	app.Post("/aliases/resolve", ResolveAlias(ops))
	app.Post("/beneficiaries", AddBeneficiary(ops))
	app.Get("/beneficiaries", ListBeneficiaries(ops))
}

func ResolveAlias(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		input := common.BindAndValidate(c, caller, func(in *dto.ResolveAliasRequest) {
			in.UserID = caller.UserID
			in.CorrelationID = caller.CorrelationID
		})
		if input == nil {
			return nil
		}
		return common.Respond(c, ops.ResolveAlias(c.UserContext(), *input))
	}
}

func AddBeneficiary(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		input := common.BindAndValidate(c, caller, func(in *dto.AddBeneficiaryRequest) {
			in.UserID = caller.UserID
			in.CorrelationID = caller.CorrelationID
			if caller.IdempotencyKey != "" {
				in.RequestID = caller.IdempotencyKey
			}
		})
		if input == nil {
			return nil
		}
		resp := ops.AddBeneficiary(c.UserContext(), *input)
		if resp.Success {
			resp.Status = fiber.StatusCreated
		}
		return common.Respond(c, resp)
	}
}

func ListBeneficiaries(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		return common.Respond(c, ops.ListBeneficiaries(c.UserContext(), dto.BeneficiariesQuery{
			UserID:        caller.UserID,
			CorrelationID: caller.CorrelationID,
		}))
	}
}
