package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/middleware"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/internal/service"
	"github.com/ldm616/justus-sub000/pkg/utils"
)

type PhotoHandler struct {
	photos    PhotoService
	validator *utils.Validator
	maxBytes  int64
	timeout   time.Duration
}

func NewPhotoHandler(photos PhotoService, validator *utils.Validator, maxBytes int64, timeout time.Duration) *PhotoHandler {
	return &PhotoHandler{
		photos:    photos,
		validator: validator,
		maxBytes:  maxBytes,
		timeout:   timeout,
	}
}

// UploadDailyPhoto handles the multipart upload of today's photo. The family
// may be sent as family_id or its older name group_id.
func (h *PhotoHandler) UploadDailyPhoto(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

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

	req := models.UploadPhotoRequest{
		FamilyID: c.FormValue("family_id"),
		MimeType: mimetype.Detect(data).String(),
		Size:     int64(len(data)),
	}
	if req.FamilyID == "" {
		req.FamilyID = c.FormValue("group_id")
	}
	if v := c.FormValue("caption"); v != "" {
		req.Caption = &v
	}
	if v := c.FormValue("upload_date"); v != "" {
		req.Date = &v
	}
	if err := h.validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	in := service.UploadInput{
		UserID:  userID,
		Data:    data,
		Caption: req.Caption,
	}
	if req.FamilyID != "" {
		in.FamilyID, _ = uuid.Parse(req.FamilyID)
	}
	if req.Date != nil {
		d, _ := models.ParseDate(*req.Date)
		in.Date = &d
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	res, err := h.photos.UploadDailyPhoto(ctx, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(models.CreatedResponse(res.Photo.ID, models.UploadPhotoResponse{
		ID:         res.Photo.ID,
		Replaced:   res.Replaced,
		UploadDate: res.Photo.UploadDate,
		Photo:      res.Photo,
	}))
}

func (h *PhotoHandler) ListPhotos(c *fiber.Ctx) error {
	var q models.ListPhotosQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	if err := h.validator.Struct(q); err != nil {
		return validationFailed(c, err)
	}

	var familyID uuid.UUID
	if q.FamilyID != "" {
		familyID, _ = uuid.Parse(q.FamilyID)
	}

	photos, err := h.photos.ListFamilyPhotos(c.UserContext(), middleware.UserID(c), familyID, q.Limit, q.Offset)
	if err != nil {
		return writeError(c, err)
	}
	if photos == nil {
		photos = []models.PhotoWithUploader{}
	}
	return c.JSON(models.SuccessResponse(photos))
}

func (h *PhotoHandler) GetPhoto(c *fiber.Ctx) error {
	photoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid photo ID")
	}

	photo, err := h.photos.GetPhoto(c.UserContext(), middleware.UserID(c), photoID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.SuccessResponse(photo))
}

func (h *PhotoHandler) UpdatePhoto(c *fiber.Ctx) error {
	photoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid photo ID")
	}

	// An omitted caption is rejected; null or "" clears it.
	var fields map[string]json.RawMessage
	if err := c.App().Config().JSONDecoder(c.Body(), &fields); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if _, ok := fields["caption"]; !ok {
		return badRequest(c, "caption is required, send null to clear it")
	}

	var req models.UpdatePhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	if req.Caption != nil && strings.TrimSpace(*req.Caption) == "" {
		req.Caption = nil
	}

	photo, err := h.photos.UpdateCaption(c.UserContext(), middleware.UserID(c), photoID, req.Caption)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.SuccessResponse(photo))
}

func (h *PhotoHandler) DeletePhoto(c *fiber.Ctx) error {
	photoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid photo ID")
	}

	if err := h.photos.DeletePhoto(c.UserContext(), middleware.UserID(c), photoID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(models.CreatedResponse(photoID, nil))
}

// readUpload reads at most limit bytes of an uploaded file.
func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("upload exceeds %d bytes", limit)
	}
	return data, nil
}
