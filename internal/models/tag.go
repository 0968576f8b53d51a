package models

import (
	"time"

	"github.com/google/uuid"
)

type PhotoTag struct {
	ID        uuid.UUID `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	PhotoID   uuid.UUID `json:"photo_id" gorm:"column:photo_id;type:uuid;not null"`
	Tag       string    `json:"tag" gorm:"column:tag;not null"`
	CreatedBy uuid.UUID `json:"created_by" gorm:"column:created_by;type:uuid;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

type CreateTagRequest struct {
	PhotoID string `json:"photo_id" validate:"required,uuid"`
	Tag     string `json:"tag" validate:"required,notblank,max=50"`
}

func (PhotoTag) TableName() string { return "photo_tags" }
