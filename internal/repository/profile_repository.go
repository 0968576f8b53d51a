package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	scope *Scope
}

func NewProfileRepository(scope *Scope) *ProfileRepository {
	return &ProfileRepository{scope: scope}
}

func (r *ProfileRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.scope.AsUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Where("id = ?", userID).Take(&profile).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (r *ProfileRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	return r.scope.AsUser(ctx, userID, func(tx *gorm.DB) error {
		res := tx.Model(&models.Profile{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{"avatar_url": avatarURL, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
