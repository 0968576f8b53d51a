package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/middleware"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/pkg/utils"
)

type FamilyHandler struct {
	families  FamilyService
	validator *utils.Validator
}

func NewFamilyHandler(families FamilyService, validator *utils.Validator) *FamilyHandler {
	return &FamilyHandler{
		families:  families,
		validator: validator,
	}
}

func (h *FamilyHandler) GetFamily(c *fiber.Ctx) error {
	family, err := h.families.GetFamily(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.SuccessResponse(family))
}

func (h *FamilyHandler) UpdateFamily(c *fiber.Ctx) error {
	var req models.UpdateFamilyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	if req.Name == nil && req.Timezone == nil {
		return badRequest(c, "nothing to update")
	}

	family, err := h.families.UpdateFamily(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.SuccessResponse(family))
}

func (h *FamilyHandler) UpdateMember(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	var req models.UpdateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	if req.Role == nil && req.IsSuspended == nil {
		return badRequest(c, "nothing to update")
	}

	if err := h.families.UpdateMember(c.UserContext(), middleware.UserID(c), targetID, req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.CreatedResponse(targetID, nil))
}
