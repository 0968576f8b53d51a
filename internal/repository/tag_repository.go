package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"gorm.io/gorm"
)

type TagRepository struct {
	scope *Scope
}

func NewTagRepository(scope *Scope) *TagRepository {
	return &TagRepository{scope: scope}
}

func (r *TagRepository) ListByPhoto(ctx context.Context, actor, photoID uuid.UUID) ([]models.PhotoTag, error) {
	tags := []models.PhotoTag{}
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		return tx.Where("photo_id = ?", photoID).Order("created_at ASC").Find(&tags).Error
	})
	return tags, err
}

func (r *TagRepository) GetByID(ctx context.Context, actor, id uuid.UUID) (*models.PhotoTag, error) {
	var tag models.PhotoTag
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).Take(&tag).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &tag, nil
}

// Create inserts a tag. A second identical (photo_id, tag) pair fails with
// ErrDuplicateTag.
func (r *TagRepository) Create(ctx context.Context, t *models.PhotoTag) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	err := r.scope.AsUser(ctx, t.CreatedBy, func(tx *gorm.DB) error {
		return tx.Create(t).Error
	})
	if isUniqueViolation(err) {
		return ErrDuplicateTag
	}
	return err
}

func (r *TagRepository) Delete(ctx context.Context, actor, id uuid.UUID) error {
	return r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND created_by = ?", id, actor).Delete(&models.PhotoTag{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
