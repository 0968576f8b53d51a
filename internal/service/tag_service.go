package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/access"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/internal/repository"
	"github.com/ldm616/justus-sub000/pkg/logger"
)

const maxTagLength = 50

type TagService struct {
	tags      TagRepository
	photos    PhotoReader
	members   MembershipResolver
	publisher ChangePublisher
	now       func() time.Time
}

func NewTagService(tags TagRepository, photos PhotoReader, members MembershipResolver, publisher ChangePublisher) *TagService {
	return &TagService{
		tags:      tags,
		photos:    photos,
		members:   members,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *TagService) List(ctx context.Context, userID, photoID uuid.UUID) ([]models.PhotoTag, error) {
	m, err := resolveMembership(ctx, s.members, userID)
	if err != nil {
		return nil, err
	}
	if _, err := readablePhoto(ctx, s.photos, m, photoID); err != nil {
		return nil, err
	}
	return s.tags.ListByPhoto(ctx, userID, photoID)
}

// Create tags the caller's own photo. Tagging the same photo twice with the
// same tag fails with ErrTagExists.
func (s *TagService) Create(ctx context.Context, userID, photoID uuid.UUID, tag string) (*models.PhotoTag, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || utf8.RuneCountInString(tag) > maxTagLength {
		return nil, fmt.Errorf("%w: tag must be 1-%d characters", ErrValidation, maxTagLength)
	}

	m, err := resolveWriter(ctx, s.members, userID)
	if err != nil {
		return nil, err
	}
	p, err := readablePhoto(ctx, s.photos, m, photoID)
	if err != nil {
		return nil, err
	}
	if !access.CanMutatePhoto(userID, p) {
		return nil, ErrForbidden
	}

	t := &models.PhotoTag{
		ID:        uuid.New(),
		PhotoID:   photoID,
		Tag:       tag,
		CreatedBy: userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.tags.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicateTag) {
			return nil, ErrTagExists
		}
		return nil, err
	}
	s.publish(ctx, p.FamilyID, models.OpInsert, t.ID)
	return t, nil
}

func (s *TagService) Delete(ctx context.Context, userID, tagID uuid.UUID) error {
	m, err := resolveWriter(ctx, s.members, userID)
	if err != nil {
		return err
	}
	t, err := s.tags.GetByID(ctx, userID, tagID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	p, err := readablePhoto(ctx, s.photos, m, t.PhotoID)
	if err != nil {
		return err
	}
	if !access.CanMutateTag(userID, t) {
		return ErrForbidden
	}

	if err := s.tags.Delete(ctx, userID, tagID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.publish(ctx, p.FamilyID, models.OpDelete, t.ID)
	return nil
}

func (s *TagService) publish(ctx context.Context, familyID uuid.UUID, op models.ChangeOp, rowID uuid.UUID) {
	change := models.Change{Table: "photo_tags", FamilyID: familyID, Op: op, RowID: rowID, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, change); err != nil {
		logger.Log.Warnw("Change publish failed", "table", change.Table, "family_id", familyID, "err", err)
	}
}
