package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PhotoRepository struct {
	scope *Scope
	now   func() time.Time
}

func NewPhotoRepository(scope *Scope) *PhotoRepository {
	return &PhotoRepository{
		scope: scope,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// UpsertDaily writes the caller's photo for p.UploadDate. The existing row,
// if any, is locked and updated in place; its previous storage keys are
// returned for cleanup. A concurrent first insert for the same date loses on
// the (user_id, upload_date) constraint and gets ErrDuplicateDailyPhoto; the
// caller retries, which then takes the update branch.
func (r *PhotoRepository) UpsertDaily(ctx context.Context, p *models.Photo) (*models.DailyUpsert, error) {
	var result *models.DailyUpsert

	err := r.scope.AsUser(ctx, p.UserID, func(tx *gorm.DB) error {
		now := r.now()

		var existing models.Photo
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND upload_date = ?", p.UserID, p.UploadDate).
			Take(&existing).Error

		switch {
		case err == nil:
			previous := existing.Keys()

			updates := map[string]interface{}{
				"original_url":  p.OriginalURL,
				"medium_url":    p.MediumURL,
				"thumbnail_url": p.ThumbnailURL,
				"original_key":  p.OriginalKey,
				"medium_key":    p.MediumKey,
				"thumbnail_key": p.ThumbnailKey,
				"width":         p.Width,
				"height":        p.Height,
				"created_at":    now,
				"updated_at":    now,
			}
			if p.Caption != nil {
				updates["caption"] = *p.Caption
			}
			if err := tx.Model(&models.Photo{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return err
			}

			updated := *p
			updated.ID = existing.ID
			updated.FamilyID = existing.FamilyID
			updated.CreatedAt = now
			updated.UpdatedAt = now
			if p.Caption == nil {
				updated.Caption = existing.Caption
			}
			result = &models.DailyUpsert{Photo: &updated, Replaced: true, PreviousKeys: previous}
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			created := *p
			if created.ID == uuid.Nil {
				created.ID = uuid.New()
			}
			created.CreatedAt = now
			created.UpdatedAt = now
			if err := tx.Create(&created).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicateDailyPhoto
				}
				return err
			}
			result = &models.DailyUpsert{Photo: &created}
			return nil

		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListFamily returns the family feed, newest first.
func (r *PhotoRepository) ListFamily(ctx context.Context, actor, familyID uuid.UUID, limit, offset int) ([]models.PhotoWithUploader, error) {
	photos := []models.PhotoWithUploader{}
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		return tx.Table("photos AS p").
			Select("p.*, pr.username, pr.avatar_url").
			Joins("LEFT JOIN profiles pr ON pr.id = p.user_id").
			Where("p.family_id = ?", familyID).
			Order("p.created_at DESC, p.upload_date DESC").
			Limit(limit).
			Offset(offset).
			Scan(&photos).Error
	})
	return photos, err
}

func (r *PhotoRepository) GetByID(ctx context.Context, actor, id uuid.UUID) (*models.Photo, error) {
	var photo models.Photo
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).Take(&photo).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &photo, nil
}

// UpdateCaption changes the caption of the actor's own photo.
func (r *PhotoRepository) UpdateCaption(ctx context.Context, actor, id uuid.UUID, caption *string) (*models.Photo, error) {
	var photo models.Photo
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		res := tx.Model(&models.Photo{}).
			Where("id = ? AND user_id = ?", id, actor).
			Updates(map[string]interface{}{"caption": caption, "updated_at": r.now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).Take(&photo).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &photo, nil
}

// Delete removes the actor's own photo and returns the deleted row so its
// blobs can be cleaned up.
func (r *PhotoRepository) Delete(ctx context.Context, actor, id uuid.UUID) (*models.Photo, error) {
	var deleted []models.Photo
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		return tx.Clauses(clause.Returning{}).
			Where("id = ? AND user_id = ?", id, actor).
			Delete(&deleted).Error
	})
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, ErrNotFound
	}
	return &deleted[0], nil
}
