package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"inflection-rewards/metrics"
)

// RequestLogger logs one line per request and records request metrics.
func RequestLogger(log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		entry := log.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		})
		c.Locals(loggerKey, entry)

		err := c.Next()
		if err != nil {
			// let the app error handler pick the status before we read it
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		metrics.ObserveHTTP(c.Method(), c.Route().Path, status, elapsed)

		fields := logrus.Fields{"status": status, "latency": elapsed.String()}
		if s := CurrentSession(c); s != nil {
			fields["user_id"] = s.UserID()
		}
		entry = entry.WithFields(fields)
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("[HTTP] request failed")
		case status >= fiber.StatusBadRequest:
			entry.Info("[HTTP] request rejected")
		default:
			entry.Debug("[HTTP] request served")
		}
		return nil
	}
}

func logger(c *fiber.Ctx) *logrus.Entry {
	if e, ok := c.Locals(loggerKey).(*logrus.Entry); ok {
		return e
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
