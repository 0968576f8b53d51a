package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/middleware"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/pkg/utils"
)

type TagHandler struct {
	tags      TagService
	validator *utils.Validator
}

func NewTagHandler(tags TagService, validator *utils.Validator) *TagHandler {
	return &TagHandler{
		tags:      tags,
		validator: validator,
	}
}

func (h *TagHandler) ListTags(c *fiber.Ctx) error {
	photoID, err := uuid.Parse(c.Query("photo_id"))
	if err != nil {
		return badRequest(c, "photo_id is required")
	}

	tags, err := h.tags.List(c.UserContext(), middleware.UserID(c), photoID)
	if err != nil {
		return writeError(c, err)
	}
	if tags == nil {
		tags = []models.PhotoTag{}
	}
	return c.JSON(models.SuccessResponse(tags))
}

func (h *TagHandler) CreateTag(c *fiber.Ctx) error {
	var req models.CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	tag, err := h.tags.Create(c.UserContext(), middleware.UserID(c), uuid.MustParse(req.PhotoID), req.Tag)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.CreatedResponse(tag.ID, tag))
}

func (h *TagHandler) DeleteTag(c *fiber.Ctx) error {
	tagID, err := uuid.Parse(c.Query("tag_id"))
	if err != nil {
		return badRequest(c, "tag_id is required")
	}

	if err := h.tags.Delete(c.UserContext(), middleware.UserID(c), tagID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.CreatedResponse(tagID, nil))
}
