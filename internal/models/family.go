package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type Family struct {
	ID        uuid.UUID `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"column:name;not null"`
	CreatedBy uuid.UUID `json:"created_by" gorm:"column:created_by;type:uuid"`
	// Timezone is the IANA zone that defines the family's "today".
	Timezone  string    `json:"timezone" gorm:"column:timezone;not null;default:'UTC'"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

type Profile struct {
	ID        uuid.UUID  `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	Username  string     `json:"username" gorm:"column:username"`
	AvatarURL string     `json:"avatar_url" gorm:"column:avatar_url"`
	FamilyID  *uuid.UUID `json:"family_id" gorm:"column:family_id;type:uuid"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

type FamilyMembership struct {
	FamilyID    uuid.UUID `json:"family_id" gorm:"column:family_id;type:uuid"`
	UserID      uuid.UUID `json:"user_id" gorm:"column:user_id;type:uuid"`
	Role        Role      `json:"role" gorm:"column:role"`
	IsSuspended bool      `json:"is_suspended" gorm:"column:is_suspended"`
	JoinedAt    time.Time `json:"joined_at" gorm:"column:joined_at"`
}

// Membership is the resolved view of a caller: the family their profile points
// at, joined with their membership row in that family.
type Membership struct {
	UserID      uuid.UUID `json:"user_id" gorm:"column:user_id"`
	FamilyID    uuid.UUID `json:"family_id" gorm:"column:family_id"`
	Role        Role      `json:"role" gorm:"column:role"`
	IsSuspended bool      `json:"is_suspended" gorm:"column:is_suspended"`
	Timezone    string    `json:"timezone" gorm:"column:timezone"`
}

type FamilyMember struct {
	UserID      uuid.UUID `json:"user_id" gorm:"column:user_id"`
	Username    string    `json:"username" gorm:"column:username"`
	AvatarURL   string    `json:"avatar_url" gorm:"column:avatar_url"`
	Role        Role      `json:"role" gorm:"column:role"`
	IsSuspended bool      `json:"is_suspended" gorm:"column:is_suspended"`
	JoinedAt    time.Time `json:"joined_at" gorm:"column:joined_at"`
}

type FamilyResponse struct {
	Family  Family         `json:"family"`
	Members []FamilyMember `json:"members"`
}

type UpdateFamilyRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Timezone *string `json:"timezone" validate:"omitempty,timezone"`
}

type UpdateMemberRequest struct {
	Role        *Role `json:"role" validate:"omitempty,oneof=admin member"`
	IsSuspended *bool `json:"is_suspended"`
}

func (Family) TableName() string           { return "families" }
func (Profile) TableName() string          { return "profiles" }
func (FamilyMembership) TableName() string { return "family_memberships" }
