package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"inflection-rewards/utils"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func SetupHealthRoutes(app *fiber.App, db Pinger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if db == nil {
			return utils.Fail(c, fiber.StatusServiceUnavailable, "Database not configured")
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			return utils.Fail(c, fiber.StatusServiceUnavailable, "Database unreachable")
		}
		return utils.OK(c, "OK", fiber.Map{"database": "up"})
	})
}
