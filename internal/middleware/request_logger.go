package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/metrics"
	"github.com/ldm616/justus-sub000/pkg/logger"
)

// RequestLogger writes one structured line per request and records the HTTP
// metrics. It expects the requestid middleware to run first.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the app's error handler pick the status before we read it.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		route := c.Route().Path
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())

		fields := []interface{}{
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"ip", c.IP(),
		}
		if id := UserID(c); id != uuid.Nil {
			fields = append(fields, "user_id", id)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Log.Errorw("request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Log.Warnw("request", fields...)
		default:
			logger.Log.Infow("request", fields...)
		}
		return nil
	}
}
