package routes

import (
	"crypto/rsa"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tradecore/controllers"
	"github.com/zsmartex/tradecore/controllers/admin_controllers"
	"github.com/zsmartex/tradecore/controllers/market_controllers"
	"github.com/zsmartex/tradecore/orders"
	"github.com/zsmartex/tradecore/routes/middlewares"
)

type Options struct {
	PublicKey       *rsa.PublicKey
	RateLimitWindow time.Duration
	RateLimitMax    int
}

func SetupRouter(manager *orders.Manager, opts Options) *fiber.App {
	app := fiber.New()

	limiter := middlewares.NewRateLimiter(opts.RateLimitWindow, opts.RateLimitMax)

	public := app.Group("/api/v2/public", limiter.Handler)
	public.Get("/timestamp", controllers.GetTimestamp)
	public.Get("/markets/:base/:quote/depth", controllers.GetDepth(manager))
	public.Get("/markets/:base/:quote/trades", controllers.GetTrades(manager))
	public.Get("/markets/:base/:quote/stats", controllers.GetStats(manager))

	authenticate := middlewares.Authenticate(opts.PublicKey)

	account := app.Group("/api/v2/account", authenticate, limiter.Handler)
	account.Get("/balances/:currency", controllers.GetBalance(manager))

	market := app.Group("/api/v2/market", authenticate, limiter.Handler)
	market.Post("/orders", market_controllers.CreateOrder(manager))
	market.Get("/orders", market_controllers.GetOrders(manager))
	market.Get("/orders/:id", market_controllers.GetOrderByID(manager))
	market.Post("/orders/:id/cancel", market_controllers.CancelOrder(manager))

	admin := app.Group("/api/v2/admin", authenticate, middlewares.AdminVaildator, limiter.Handler)
	admin.Get("/risk_events", admin_controllers.GetRiskEvents(manager))
	admin.Post("/risk_events/:id/resolve", admin_controllers.ResolveRiskEvent(manager))
	admin.Post("/deposits", admin_controllers.CreateDeposit(manager))

	return app
}
