package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"gorm.io/gorm"
)

type CommentRepository struct {
	scope *Scope
}

func NewCommentRepository(scope *Scope) *CommentRepository {
	return &CommentRepository{scope: scope}
}

func (r *CommentRepository) ListByPhoto(ctx context.Context, actor, photoID uuid.UUID) ([]models.CommentWithAuthor, error) {
	comments := []models.CommentWithAuthor{}
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		return tx.Table("photo_comments AS c").
			Select("c.*, p.username, p.avatar_url").
			Joins("LEFT JOIN profiles p ON p.id = c.user_id").
			Where("c.photo_id = ?", photoID).
			Order("c.created_at ASC").
			Scan(&comments).Error
	})
	return comments, err
}

func (r *CommentRepository) GetByID(ctx context.Context, actor, id uuid.UUID) (*models.PhotoComment, error) {
	var comment models.PhotoComment
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).Take(&comment).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

func (r *CommentRepository) Create(ctx context.Context, c *models.PhotoComment) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return r.scope.AsUser(ctx, c.UserID, func(tx *gorm.DB) error {
		return tx.Create(c).Error
	})
}

// Update rewrites the text of the actor's own comment. A comment the actor
// does not own is reported as ErrNotFound, never as a silent no-op.
func (r *CommentRepository) Update(ctx context.Context, actor, id uuid.UUID, text string, editedAt time.Time) error {
	return r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		res := tx.Model(&models.PhotoComment{}).
			Where("id = ? AND user_id = ?", id, actor).
			Updates(map[string]interface{}{"comment": text, "edited_at": editedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *CommentRepository) Delete(ctx context.Context, actor, id uuid.UUID) error {
	return r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, actor).Delete(&models.PhotoComment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
