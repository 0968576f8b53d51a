package handler

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/ldm616/justus-sub000/internal/middleware"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/pkg/utils"
)

type ProfileHandler struct {
	profiles ProfileService
	maxBytes int64
}

func NewProfileHandler(profiles ProfileService, maxBytes int64) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		maxBytes: maxBytes,
	}
}

func (h *ProfileHandler) GetMyProfile(c *fiber.Ctx) error {
	profile, err := h.profiles.GetProfile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.SuccessResponse(profile))
}

func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("photo")
	if err != nil {
		return badRequest(c, "photo file is required")
	}
	if file.Size > h.maxBytes {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("validation_error",
			fmt.Sprintf("photo exceeds %d bytes", h.maxBytes)))
	}

	data, err := readUpload(file, h.maxBytes)
	if err != nil {
		return badRequest(c, "could not read photo")
	}
	if !utils.SupportedImageTypes[mimetype.Detect(data).String()] {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("validation_error", "unsupported image type"))
	}

	url, err := h.profiles.UploadAvatar(c.UserContext(), middleware.UserID(c), data)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.SuccessResponse(fiber.Map{"avatar_url": url}))
}
