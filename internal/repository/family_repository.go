package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"gorm.io/gorm"
)

type FamilyRepository struct {
	scope *Scope
}

func NewFamilyRepository(scope *Scope) *FamilyRepository {
	return &FamilyRepository{scope: scope}
}

// ResolveMembership returns the caller's membership in the family their
// profile points at. A membership row for any other family is ignored.
// Suspended members cannot read the family row, so their Timezone is empty.
func (r *FamilyRepository) ResolveMembership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := r.scope.AsUser(ctx, userID, func(tx *gorm.DB) error {
		return tx.Table("family_memberships AS m").
			Select("m.user_id, m.family_id, m.role, m.is_suspended, COALESCE(f.timezone, '') AS timezone").
			Joins("JOIN profiles p ON p.id = m.user_id AND p.family_id = m.family_id").
			Joins("LEFT JOIN families f ON f.id = m.family_id").
			Where("m.user_id = ?", userID).
			Take(&m).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *FamilyRepository) GetFamily(ctx context.Context, actor, familyID uuid.UUID) (*models.Family, error) {
	var family models.Family
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		return tx.Where("id = ?", familyID).Take(&family).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &family, nil
}

func (r *FamilyRepository) ListMembers(ctx context.Context, actor, familyID uuid.UUID) ([]models.FamilyMember, error) {
	members := []models.FamilyMember{}
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		return tx.Table("family_memberships AS m").
			Select("m.user_id, p.username, p.avatar_url, m.role, m.is_suspended, m.joined_at").
			Joins("JOIN profiles p ON p.id = m.user_id").
			Where("m.family_id = ?", familyID).
			Order("m.joined_at ASC").
			Scan(&members).Error
	})
	return members, err
}

// UpdateFamily applies the non-nil fields of req.
func (r *FamilyRepository) UpdateFamily(ctx context.Context, actor, familyID uuid.UUID, req models.UpdateFamilyRequest) (*models.Family, error) {
	var family models.Family
	err := r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		updates := map[string]interface{}{"updated_at": time.Now().UTC()}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Timezone != nil {
			updates["timezone"] = *req.Timezone
		}
		res := tx.Model(&models.Family{}).Where("id = ?", familyID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", familyID).Take(&family).Error
	})
	if err != nil {
		return nil, notFound(err)
	}
	return &family, nil
}

// UpdateMember changes another member's role or suspension flag.
func (r *FamilyRepository) UpdateMember(ctx context.Context, actor, familyID, userID uuid.UUID, req models.UpdateMemberRequest) error {
	updates := map[string]interface{}{}
	if req.Role != nil {
		updates["role"] = string(*req.Role)
	}
	if req.IsSuspended != nil {
		updates["is_suspended"] = *req.IsSuspended
	}
	if len(updates) == 0 {
		return nil
	}

	return r.scope.AsUser(ctx, actor, func(tx *gorm.DB) error {
		res := tx.Model(&models.FamilyMembership{}).
			Where("family_id = ? AND user_id = ?", familyID, userID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
