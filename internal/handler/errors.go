package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/internal/service"
	"github.com/ldm616/justus-sub000/pkg/logger"
	"github.com/ldm616/justus-sub000/pkg/utils"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{service.ErrNotInFamily, fiber.StatusForbidden, "not_in_family"},
	{service.ErrNotAuthorized, fiber.StatusForbidden, "not_authorized"},
	{service.ErrForbidden, fiber.StatusForbidden, "forbidden"},
	{service.ErrNotFound, fiber.StatusNotFound, "not_found"},
	{service.ErrInvalidDate, fiber.StatusBadRequest, "invalid_date"},
	{service.ErrValidation, fiber.StatusBadRequest, "validation_error"},
	{service.ErrTagExists, fiber.StatusConflict, "tag_exists"},
	{service.ErrDerivativeFailed, fiber.StatusInternalServerError, "derivative_failed"},
	{service.ErrStorageWrite, fiber.StatusInternalServerError, "storage_error"},
	{service.ErrRowWrite, fiber.StatusInternalServerError, "row_write_failed"},
}

// writeError renders err as the JSON error envelope. Client errors carry the
// error text; server errors are logged and reported generically.
func writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "internal_error"
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			status, code = m.status, m.code
			break
		}
	}

	if status >= fiber.StatusInternalServerError {
		logger.Log.Errorw("Request failed",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"path", c.Path(),
			"code", code,
			"err", err,
		)
		return c.Status(status).JSON(models.ErrorResponse(code, "internal error"))
	}
	return c.Status(status).JSON(models.ErrorResponse(code, err.Error()))
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("bad_request", msg))
}

func validationFailed(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("validation_error", utils.Message(err)))
}
