// Package server assembles the fiber application: error handling,
// middleware chain and routes.
package server

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chartsrv/internal/config"
	"chartsrv/internal/http/handlers"
	"chartsrv/internal/http/middleware"
	"chartsrv/internal/infra/logging"
	"chartsrv/internal/infra/ratelimit"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config  config.Config
	Charts  *handlers.ChartService
	QR      *handlers.QRService
	Stats   *handlers.StatsService
	Limiter *ratelimit.Limiter
}

// New builds the app with all middleware and routes mounted.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               deps.Config.Server.Prefork,
		DisableStartupMessage: true,
		ErrorHandler:          jsonErrorHandler,
	})

	middleware.Register(app)
	registerRoutes(app, deps)

	// All responses, including 404s, stay JSON.
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func registerRoutes(app *fiber.App, deps Deps) {
	// Rate limiting applies to the chart path only, never to QR.
	limited := ratelimit.Middleware(deps.Limiter)

	app.Get("/chart", limited, deps.Charts.HandleChart)
	app.Post("/chart", limited, deps.Charts.HandleChart)
	app.Get("/qr", deps.QR.HandleQR)

	app.Get("/chrome/stats", deps.Stats.HandleChromeStats)
	app.Get("/monitor", monitor.New())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
		},
	})
}
