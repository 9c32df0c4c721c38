// Package webapi provides the HTTP surface of the top-up service. Routes
// live in sub-packages per domain:
//   - auth: login
//   - catalog: games, packs and account validation
//   - order: purchases and admin order refunds
//   - wallet: balance, ledger, deposits and admin wallet operations
//   - payment: gateway webhooks
//   - leaderboard: weekly ranking
package webapi

import (
	"errors"
	"strings"

	_ "github.com/amirasaad/topup/cmd/server/swagger"
	"github.com/amirasaad/topup/pkg/app"
	authweb "github.com/amirasaad/topup/webapi/auth"
	catalogweb "github.com/amirasaad/topup/webapi/catalog"
	"github.com/amirasaad/topup/webapi/common"
	leaderboardweb "github.com/amirasaad/topup/webapi/leaderboard"
	orderweb "github.com/amirasaad/topup/webapi/order"
	paymentweb "github.com/amirasaad/topup/webapi/payment"
	walletweb "github.com/amirasaad/topup/webapi/wallet"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		AppName: "topup",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	// The gateway must always reach the webhook, so it is registered
	// before the limiter.
	paymentweb.Routes(fiberApp, a.PaymentService)
	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled:      true,
		PersistAuthorization: true,
	}))

	if rl := a.Config.RateLimit; rl != nil && rl.MaxRequests > 0 {
		fiberApp.Use(limiter.New(limiter.Config{
			Max:          rl.MaxRequests,
			Expiration:   rl.Window,
			KeyGenerator: clientIP,
			LimitReached: func(c *fiber.Ctx) error {
				return common.ProblemDetailsJSON(
					c,
					"Too Many Requests",
					errors.New("rate limit exceeded"),
					fiber.StatusTooManyRequests,
				)
			},
		}))
	}
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Top-up API is running! 🚀")
	})
	fiberApp.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authweb.Routes(fiberApp, a.AuthService)
	catalogweb.Routes(fiberApp, a.CatalogService, a.OrderService, a.Config)
	orderweb.Routes(fiberApp, a.OrderService, a.Config)
	walletweb.Routes(fiberApp, a.WalletService, a.PaymentService, a.Config)
	leaderboardweb.Routes(fiberApp, a.LeaderboardService)
	return fiberApp
}

// clientIP keys the limiter on the first X-Forwarded-For hop when behind a
// proxy, then X-Real-IP, then the socket address.
func clientIP(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
