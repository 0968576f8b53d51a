package main

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ldm616/justus-sub000/internal/config"
	"github.com/ldm616/justus-sub000/internal/middleware"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/pkg/logger"
)

// multipartOverhead leaves room for form fields and boundaries around the
// largest accepted photo.
const multipartOverhead = 1 << 20

// newApp builds the fiber app with the global middleware, health and metrics
// endpoints. API routes are mounted by the caller.
func newApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "justus",
		BodyLimit:    cfg.Upload.MaxBytes + multipartOverhead,
		ReadTimeout:  cfg.Upload.Timeout,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE",
	}))
	app.Use(limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return !strings.HasPrefix(c.Path(), "/api/") || c.Path() == "/api/changes"
		},
		Max:        cfg.RateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse("rate_limited", "Too many requests"))
		},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(models.SuccessResponse(fiber.Map{"status": "ok"}))
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}

// errorHandler renders errors that escaped a handler, such as unknown routes
// or oversized bodies, in the API envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	status, code, msg := fiber.StatusInternalServerError, "internal_error", "internal error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status, msg = fe.Code, fe.Message
		switch status {
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusRequestEntityTooLarge:
			code = "validation_error"
		case fiber.StatusMethodNotAllowed:
			code = "method_not_allowed"
		default:
			code = "http_error"
		}
	}
	if status >= fiber.StatusInternalServerError {
		logger.Log.Errorw("Unhandled error", "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(models.ErrorResponse(code, msg))
}
