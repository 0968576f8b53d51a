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

const maxCommentLength = 2000

type CommentService struct {
	comments  CommentRepository
	photos    PhotoReader
	members   MembershipResolver
	publisher ChangePublisher
	now       func() time.Time
}

func NewCommentService(comments CommentRepository, photos PhotoReader, members MembershipResolver, publisher ChangePublisher) *CommentService {
	return &CommentService{
		comments:  comments,
		photos:    photos,
		members:   members,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *CommentService) List(ctx context.Context, userID, photoID uuid.UUID) ([]models.CommentWithAuthor, error) {
	m, err := resolveMembership(ctx, s.members, userID)
	if err != nil {
		return nil, err
	}
	if _, err := readablePhoto(ctx, s.photos, m, photoID); err != nil {
		return nil, err
	}
	return s.comments.ListByPhoto(ctx, userID, photoID)
}

// Create adds a comment to any photo the caller can read.
func (s *CommentService) Create(ctx context.Context, userID, photoID uuid.UUID, text string) (*models.PhotoComment, error) {
	text, err := normalizeComment(text)
	if err != nil {
		return nil, err
	}
	m, err := resolveWriter(ctx, s.members, userID)
	if err != nil {
		return nil, err
	}
	p, err := readablePhoto(ctx, s.photos, m, photoID)
	if err != nil {
		return nil, err
	}

	c := &models.PhotoComment{
		ID:        uuid.New(),
		PhotoID:   photoID,
		UserID:    userID,
		Comment:   text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, p.FamilyID, models.OpInsert, c.ID)
	return c, nil
}

// Update edits the caller's own comment and stamps edited_at.
func (s *CommentService) Update(ctx context.Context, userID, commentID uuid.UUID, text string) (*models.PhotoComment, error) {
	text, err := normalizeComment(text)
	if err != nil {
		return nil, err
	}
	m, c, p, err := s.load(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if !access.CanMutateComment(m.UserID, c) {
		return nil, ErrForbidden
	}

	editedAt := s.now().UTC()
	if err := s.comments.Update(ctx, userID, commentID, text, editedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.Comment = text
	c.EditedAt = &editedAt
	s.publish(ctx, p.FamilyID, models.OpUpdate, c.ID)
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, userID, commentID uuid.UUID) error {
	m, c, p, err := s.load(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if !access.CanMutateComment(m.UserID, c) {
		return ErrForbidden
	}

	if err := s.comments.Delete(ctx, userID, commentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.publish(ctx, p.FamilyID, models.OpDelete, c.ID)
	return nil
}

// load resolves the writer, the comment and the photo it hangs off.
func (s *CommentService) load(ctx context.Context, userID, commentID uuid.UUID) (*models.Membership, *models.PhotoComment, *models.Photo, error) {
	m, err := resolveWriter(ctx, s.members, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := s.comments.GetByID(ctx, userID, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := readablePhoto(ctx, s.photos, m, c.PhotoID)
	if err != nil {
		return nil, nil, nil, err
	}
	return m, c, p, nil
}

func (s *CommentService) publish(ctx context.Context, familyID uuid.UUID, op models.ChangeOp, rowID uuid.UUID) {
	change := models.Change{Table: "photo_comments", FamilyID: familyID, Op: op, RowID: rowID, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, change); err != nil {
		logger.Log.Warnw("Change publish failed", "table", change.Table, "family_id", familyID, "err", err)
	}
}

func normalizeComment(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: comment is empty", ErrValidation)
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return "", fmt.Errorf("%w: comment exceeds %d characters", ErrValidation, maxCommentLength)
	}
	return text, nil
}
