package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/internal/repository"
	"github.com/ldm616/justus-sub000/pkg/logger"
	"github.com/ldm616/justus-sub000/pkg/storage"
	"golang.org/x/sync/semaphore"
)

type ProfileService struct {
	profiles  ProfileRepository
	generator DerivativeGenerator
	store     BlobStore
	decode    *semaphore.Weighted
	now       func() time.Time
}

// NewProfileService expects a generator that renders a single square
// rendition for avatars. decode is shared with the photo pipeline; nil allows
// one decode at a time.
func NewProfileService(profiles ProfileRepository, generator DerivativeGenerator, store BlobStore, decode *semaphore.Weighted) *ProfileService {
	if decode == nil {
		decode = semaphore.NewWeighted(1)
	}
	return &ProfileService{
		profiles:  profiles,
		generator: generator,
		store:     store,
		decode:    decode,
		now:       time.Now,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// UploadAvatar overwrites the caller's avatar at its fixed key. The returned
// URL carries a version query so clients drop their cached copy.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte) (string, error) {
	if err := s.decode.Acquire(ctx, 1); err != nil {
		return "", err
	}
	res, err := s.generator.Generate(data)
	s.decode.Release(1)
	if err != nil {
		return "", imageError(err)
	}
	if len(res.Derivatives) == 0 {
		return "", ErrDerivativeFailed
	}

	key := storage.AvatarKey(userID)
	url, err := s.store.Put(ctx, key, res.Derivatives[0].Data, storage.PutOptions{ContentType: "image/jpeg", Upsert: true})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	versioned := fmt.Sprintf("%s?v=%d", url, s.now().Unix())
	if err := s.profiles.UpdateAvatar(ctx, userID, versioned); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRowWrite, err)
	}

	logger.Log.Infow("Avatar updated", "user_id", userID)
	return versioned, nil
}
