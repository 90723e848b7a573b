// Package webapi exposes the ledger operations over HTTP. Routes are
// grouped by domain:
//   - account: transfers, balances and ledger history
//   - beneficiary: alias resolution and the beneficiary book
//   - purchase: the marketplace catalog and the purchase saga
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/ledgercore/pkg/app"
	accountweb "github.com/amirasaad/ledgercore/webapi/account"
	beneficiaryweb "github.com/amirasaad/ledgercore/webapi/beneficiary"
	"github.com/amirasaad/ledgercore/webapi/common"
	purchaseweb "github.com/amirasaad/ledgercore/webapi/purchase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp initializes Fiber with the ledger routes.
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			return common.ProblemDetailsJSON(c, status, "Request failed", err)
		},
	})

	if rl := a.Config.RateLimit; rl != nil && rl.MaxRequests > 0 {
		fiberApp.Use(limiter.New(limiter.Config{
			Max:          rl.MaxRequests,
			Expiration:   rl.Window,
			KeyGenerator: clientKey,
			LimitReached: func(c *fiber.Ctx) error {
				return common.ProblemDetailsJSON(c, fiber.StatusTooManyRequests,
					"Too Many Requests", errors.New("rate limit exceeded"))
			},
		}))
	}
	fiberApp.Use(recover.New())
	if a.Config.Env == "development" {
		fiberApp.Use(logger.New())
	}

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Ledger API is running! 🚀")
	})
	fiberApp.Get("/debug/routes", func(c *fiber.Ctx) error {
		var routes []fiber.Map
		for _, r := range fiberApp.GetRoutes(true) {
			routes = append(routes, fiber.Map{"method": r.Method, "path": r.Path})
		}
		return c.JSON(routes)
	})

	accountweb.Routes(fiberApp, a.Operations)
	beneficiaryweb.Routes(fiberApp, a.Operations)
	purchaseweb.Routes(fiberApp, a.Operations)
	return fiberApp
}

// clientKey keys rate limiting on the first X-Forwarded-For hop, then
// X-Real-IP, then the peer address.
func clientKey(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
