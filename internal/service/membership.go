package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/access"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/internal/repository"
)

// resolveMembership maps a missing membership to ErrNotInFamily.
func resolveMembership(ctx context.Context, r MembershipResolver, userID uuid.UUID) (*models.Membership, error) {
	m, err := r.ResolveMembership(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotInFamily
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// resolveWriter is resolveMembership plus the active-membership check every
// write path starts with.
func resolveWriter(ctx context.Context, r MembershipResolver, userID uuid.UUID) (*models.Membership, error) {
	m, err := resolveMembership(ctx, r, userID)
	if err != nil {
		return nil, err
	}
	if !access.CanWrite(m) {
		return nil, ErrNotAuthorized
	}
	return m, nil
}

// readablePhoto loads a photo and hides it unless m may read it. A photo the
// caller cannot see is reported as not found.
func readablePhoto(ctx context.Context, photos PhotoReader, m *models.Membership, id uuid.UUID) (*models.Photo, error) {
	p, err := photos.GetByID(ctx, m.UserID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !access.CanReadPhoto(m, p) {
		return nil, ErrNotFound
	}
	return p, nil
}
