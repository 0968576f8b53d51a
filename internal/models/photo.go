package models

import (
	"time"

	"github.com/google/uuid"
)

// Photo is a user's single photo for one calendar date.
type Photo struct {
	ID           uuid.UUID `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID `json:"user_id" gorm:"column:user_id;type:uuid;not null"`
	FamilyID     uuid.UUID `json:"family_id" gorm:"column:family_id;type:uuid;not null"`
	UploadDate   Date      `json:"upload_date" gorm:"column:upload_date;type:date;not null"`
	OriginalURL  string    `json:"original_url" gorm:"column:original_url"`
	MediumURL    string    `json:"medium_url" gorm:"column:medium_url"`
	ThumbnailURL string    `json:"thumbnail_url" gorm:"column:thumbnail_url"`
	OriginalKey  string    `json:"-" gorm:"column:original_key"`
	MediumKey    string    `json:"-" gorm:"column:medium_key"`
	ThumbnailKey string    `json:"-" gorm:"column:thumbnail_key"`
	Width        int       `json:"width" gorm:"column:width"`
	Height       int       `json:"height" gorm:"column:height"`
	Caption      *string   `json:"caption" gorm:"column:caption"`
	// CreatedAt is bumped on every same-day replacement and drives feed order.
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Keys lists the storage keys the row currently references.
func (p *Photo) Keys() []string {
	keys := make([]string, 0, 3)
	for _, k := range []string{p.OriginalKey, p.MediumKey, p.ThumbnailKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// PhotoWithUploader is a feed row with the uploader's profile denormalised.
type PhotoWithUploader struct {
	Photo
	Username  string `json:"username" gorm:"column:username"`
	AvatarURL string `json:"avatar_url" gorm:"column:avatar_url"`
}

// DailyUpsert is the outcome of writing a user's photo for a date.
type DailyUpsert struct {
	Photo    *Photo
	Replaced bool
	// PreviousKeys are the blobs the row referenced before a replacement.
	PreviousKeys []string
}

type UploadPhotoRequest struct {
	FamilyID string  `form:"family_id" validate:"omitempty,uuid"`
	Caption  *string `form:"caption" validate:"omitempty,max=500"`
	Date     *string `form:"upload_date" validate:"omitempty,calendar_date"`
	MimeType string  `validate:"required,supported_image"`
	Size     int64   `validate:"gt=0"`
}

type UpdatePhotoRequest struct {
	Caption *string `json:"caption" validate:"omitempty,max=500"`
}

type ListPhotosQuery struct {
	FamilyID string `query:"family_id" validate:"omitempty,uuid"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset   int    `query:"offset" validate:"omitempty,min=0"`
}

type UploadPhotoResponse struct {
	ID         uuid.UUID `json:"id"`
	Replaced   bool      `json:"replaced"`
	UploadDate Date      `json:"upload_date"`
	Photo      *Photo    `json:"photo"`
}

func (Photo) TableName() string { return "photos" }
