package account

import (
	"github.com/amirasaad/ledgercore/pkg/dto"
	"github.com/amirasaad/ledgercore/pkg/handler"
	"github.com/amirasaad/ledgercore/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the core-banking endpoints.
//
// Routes:
//   - POST /transfers            : Move funds between accounts.
//   - GET  /accounts/:id/balance : Balance of one of the caller's accounts.
//   - GET  /transactions         : The caller's ledger entries, newest first.
func Routes(app fiber.Router, ops *handler.Operations) {
	app.Post("/transfers", Transfer(ops))
	app.Get("/accounts/:id/balance", GetBalance(ops))
	app.Get("/transactions", ListTransactions(ops))
}

// Transfer moves funds from one of the caller's accounts. An
// Idempotency-Key header makes retries safe.
func Transfer(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		input := common.BindAndValidate(c, caller, func(in *dto.TransferRequest) {
			in.UserID = caller.UserID
			in.CorrelationID = caller.CorrelationID
			if caller.IdempotencyKey != "" {
				in.RequestID = caller.IdempotencyKey
			}
		})
		if input == nil {
			return nil
		}
		return common.Respond(c, ops.Transfer(c.UserContext(), *input))
	}
}

func GetBalance(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		return common.Respond(c, ops.GetBalance(c.UserContext(), dto.BalanceQuery{
			UserID:        caller.UserID,
			AccountID:     c.Params("id"),
			CorrelationID: caller.CorrelationID,
		}))
	}
}

// ListTransactions accepts optional account_id and limit query parameters.
func ListTransactions(ops *handler.Operations) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := common.RequireCaller(c)
		if !ok {
			return nil
		}
		query := common.BindQuery(c, caller, func(q *dto.TransactionsQuery) {
			q.UserID = caller.UserID
			q.CorrelationID = caller.CorrelationID
		})
		if query == nil {
			return nil
		}
		return common.Respond(c, ops.ListTransactions(c.UserContext(), *query))
	}
}
