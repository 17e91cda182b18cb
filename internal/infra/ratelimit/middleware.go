package ratelimit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"chartsrv/internal/infra/logging"
)

// Middleware guards a route group with the limiter. The chart path is the
// only consumer; QR stays unguarded on purpose. The bypass key is read
// from query or form, matching where the render parameters live.
func Middleware(lim *Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := lim.Check(c.IP(), c.FormValue("key"))
		if d.Allowed {
			return c.Next()
		}

		logging.Warn("Rate limit exceeded", "ip", c.IP(), "path", c.Path())
		retry := int(d.RetryAfter.Seconds())
		if retry < 1 {
			retry = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    fiber.StatusTooManyRequests,
				"message": "Too many requests, please try again later.",
			},
		})
	}
}
