package models

import (
	"time"

	"github.com/google/uuid"
)

type PhotoComment struct {
	ID        uuid.UUID  `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	PhotoID   uuid.UUID  `json:"photo_id" gorm:"column:photo_id;type:uuid;not null"`
	UserID    uuid.UUID  `json:"user_id" gorm:"column:user_id;type:uuid;not null"`
	Comment   string     `json:"comment" gorm:"column:comment;not null"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at"`
	EditedAt  *time.Time `json:"edited_at" gorm:"column:edited_at"`
}

type CommentWithAuthor struct {
	PhotoComment
	Username  string `json:"username" gorm:"column:username"`
	AvatarURL string `json:"avatar_url" gorm:"column:avatar_url"`
}

type CreateCommentRequest struct {
	PhotoID string `json:"photo_id" validate:"required,uuid"`
	Comment string `json:"comment" validate:"required,notblank,max=2000"`
}

type UpdateCommentRequest struct {
	CommentID string `json:"comment_id" validate:"required,uuid"`
	Comment   string `json:"comment" validate:"required,notblank,max=2000"`
}

func (PhotoComment) TableName() string { return "photo_comments" }
