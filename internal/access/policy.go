// Package access holds the family-scoped authorization rules. The same rules
// are mirrored as row-level security policies in migrations/002_rls.sql; a
// change here must be made there too.
package access

import (
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
)

// CanRead reports whether the member may see a photo of the given family.
func CanRead(m *models.Membership, familyID uuid.UUID) bool {
	if m == nil || m.IsSuspended {
		return false
	}
	return m.FamilyID == familyID
}

// CanReadPhoto is CanRead applied to a photo row.
func CanReadPhoto(m *models.Membership, p *models.Photo) bool {
	return p != nil && CanRead(m, p.FamilyID)
}

// CanWrite reports whether the member may create rows at all.
func CanWrite(m *models.Membership) bool {
	return m != nil && !m.IsSuspended && m.Role.Valid()
}

func CanMutatePhoto(userID uuid.UUID, p *models.Photo) bool {
	return p != nil && userID != uuid.Nil && p.UserID == userID
}

func CanMutateComment(userID uuid.UUID, c *models.PhotoComment) bool {
	return c != nil && userID != uuid.Nil && c.UserID == userID
}

func CanMutateTag(userID uuid.UUID, t *models.PhotoTag) bool {
	return t != nil && userID != uuid.Nil && t.CreatedBy == userID
}

// CanManageFamily is admin-only. Suspended admins lose management rights with
// the rest of their write access.
func CanManageFamily(m *models.Membership, familyID uuid.UUID) bool {
	if !CanWrite(m) {
		return false
	}
	return m.FamilyID == familyID && m.Role == models.RoleAdmin
}
