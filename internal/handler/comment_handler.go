package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/middleware"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/pkg/utils"
)

type CommentHandler struct {
	comments  CommentService
	validator *utils.Validator
}

func NewCommentHandler(comments CommentService, validator *utils.Validator) *CommentHandler {
	return &CommentHandler{
		comments:  comments,
		validator: validator,
	}
}

// ListComments: GET ?photo_id=
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	photoID, err := uuid.Parse(c.Query("photo_id"))
	if err != nil {
		return badRequest(c, "photo_id is required")
	}

	comments, err := h.comments.List(c.UserContext(), middleware.UserID(c), photoID)
	if err != nil {
		return writeError(c, err)
	}
	if comments == nil {
		comments = []models.CommentWithAuthor{}
	}
	return c.JSON(models.SuccessResponse(comments))
}

func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	var req models.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	comment, err := h.comments.Create(c.UserContext(), middleware.UserID(c), uuid.MustParse(req.PhotoID), req.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.CreatedResponse(comment.ID, comment))
}

func (h *CommentHandler) UpdateComment(c *fiber.Ctx) error {
	var req models.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	comment, err := h.comments.Update(c.UserContext(), middleware.UserID(c), uuid.MustParse(req.CommentID), req.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.CreatedResponse(comment.ID, comment))
}

// DeleteComment: DELETE ?comment_id=
func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	commentID, err := uuid.Parse(c.Query("comment_id"))
	if err != nil {
		return badRequest(c, "comment_id is required")
	}

	if err := h.comments.Delete(c.UserContext(), middleware.UserID(c), commentID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.CreatedResponse(commentID, nil))
}
