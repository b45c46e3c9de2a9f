package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Audit logs one line per request: method, path, status, elapsed time and
// the request id when present. Failed requests log at error level and the
// error is passed on to the fiber error handler.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		began := time.Now()
		err := c.Next()

		fields := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("elapsed", time.Since(began)),
		}
		if reqID, ok := c.Locals(requestIDHeader).(string); ok && reqID != "" {
			fields = append(fields, slog.String("request_id", reqID))
		}

		if err != nil {
			logger.Error("request", append(fields, slog.Any("error", err))...)
			return err
		}
		logger.Info("request", fields...)
		return nil
	}
}
