package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/access"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/internal/repository"
	"github.com/ldm616/justus-sub000/pkg/logger"
)

type FamilyService struct {
	families  FamilyRepository
	members   MembershipResolver
	publisher ChangePublisher
}

func NewFamilyService(families FamilyRepository, members MembershipResolver, publisher ChangePublisher) *FamilyService {
	return &FamilyService{
		families:  families,
		members:   members,
		publisher: publisher,
	}
}

// Membership exposes the resolved caller for handlers that only need it.
func (s *FamilyService) Membership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	return resolveMembership(ctx, s.members, userID)
}

func (s *FamilyService) GetFamily(ctx context.Context, userID uuid.UUID) (*models.FamilyResponse, error) {
	m, err := resolveMembership(ctx, s.members, userID)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(m, m.FamilyID) {
		return nil, ErrNotAuthorized
	}

	family, err := s.families.GetFamily(ctx, userID, m.FamilyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	members, err := s.families.ListMembers(ctx, userID, m.FamilyID)
	if err != nil {
		return nil, err
	}
	return &models.FamilyResponse{Family: *family, Members: members}, nil
}

// UpdateFamily renames the family or changes its timezone. Admins only.
func (s *FamilyService) UpdateFamily(ctx context.Context, userID uuid.UUID, req models.UpdateFamilyRequest) (*models.Family, error) {
	m, err := resolveMembership(ctx, s.members, userID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageFamily(m, m.FamilyID) {
		return nil, ErrNotAuthorized
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", ErrValidation, *req.Timezone)
		}
	}

	family, err := s.families.UpdateFamily(ctx, userID, m.FamilyID, req)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "families", m.FamilyID, m.FamilyID)
	logger.Log.Infow("Family updated", "family_id", m.FamilyID, "by", userID)
	return family, nil
}

// UpdateMember changes another member's role or suspension. Admins cannot
// demote or suspend themselves.
func (s *FamilyService) UpdateMember(ctx context.Context, userID, targetID uuid.UUID, req models.UpdateMemberRequest) error {
	m, err := resolveMembership(ctx, s.members, userID)
	if err != nil {
		return err
	}
	if !access.CanManageFamily(m, m.FamilyID) {
		return ErrNotAuthorized
	}
	if targetID == userID {
		return ErrForbidden
	}
	if req.Role != nil && !req.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, *req.Role)
	}

	err = s.families.UpdateMember(ctx, userID, m.FamilyID, targetID, req)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.publish(ctx, "family_memberships", m.FamilyID, targetID)
	logger.Log.Infow("Family member updated", "family_id", m.FamilyID, "member", targetID, "by", userID)
	return nil
}

func (s *FamilyService) publish(ctx context.Context, table string, familyID, rowID uuid.UUID) {
	change := models.Change{Table: table, FamilyID: familyID, Op: models.OpUpdate, RowID: rowID, At: time.Now().UTC()}
	if err := s.publisher.Publish(ctx, change); err != nil {
		logger.Log.Warnw("Change publish failed", "table", table, "family_id", familyID, "err", err)
	}
}
