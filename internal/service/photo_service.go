package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/access"
	"github.com/ldm616/justus-sub000/internal/metrics"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/internal/repository"
	"github.com/ldm616/justus-sub000/pkg/derivative"
	"github.com/ldm616/justus-sub000/pkg/logger"
	"github.com/ldm616/justus-sub000/pkg/storage"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// dailyTiers are the renditions every daily photo row points at.
var dailyTiers = []derivative.Tier{derivative.TierOriginal, derivative.TierMobile, derivative.TierSquare}

type PhotoOptions struct {
	// DecodeConcurrency bounds how many uploads decode at once.
	DecodeConcurrency int
	// DecodeSlots, when set, is used instead of DecodeConcurrency so other
	// image paths can share the same bound.
	DecodeSlots *semaphore.Weighted
	// DefaultLocation defines "today" for families without a timezone.
	DefaultLocation *time.Location
	Now             func() time.Time
}

type PhotoService struct {
	photos    PhotoRepository
	members   MembershipResolver
	generator DerivativeGenerator
	store     BlobStore
	cleaner   BlobCleaner
	publisher ChangePublisher

	decode     *semaphore.Weighted
	defaultLoc *time.Location
	now        func() time.Time
}

func NewPhotoService(
	photos PhotoRepository,
	members MembershipResolver,
	generator DerivativeGenerator,
	store BlobStore,
	cleaner BlobCleaner,
	publisher ChangePublisher,
	opts PhotoOptions,
) *PhotoService {
	if opts.DecodeConcurrency <= 0 {
		opts.DecodeConcurrency = 1
	}
	if opts.DecodeSlots == nil {
		opts.DecodeSlots = semaphore.NewWeighted(int64(opts.DecodeConcurrency))
	}
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PhotoService{
		photos:     photos,
		members:    members,
		generator:  generator,
		store:      store,
		cleaner:    cleaner,
		publisher:  publisher,
		decode:     opts.DecodeSlots,
		defaultLoc: opts.DefaultLocation,
		now:        opts.Now,
	}
}

type UploadInput struct {
	UserID uuid.UUID
	// FamilyID is optional; when set it must be the caller's family.
	FamilyID uuid.UUID
	Data     []byte
	Caption  *string
	// Date is optional; when set it must be the family's today.
	Date *models.Date
}

type UploadResult struct {
	Photo    *models.Photo
	Replaced bool
}

// UploadDailyPhoto stores data as the caller's photo for today, replacing an
// earlier upload of the same day. Derivatives are written under a fresh token
// before the row changes; superseded blobs are queued for deletion only after
// the row commits.
func (s *PhotoService) UploadDailyPhoto(ctx context.Context, in UploadInput) (*UploadResult, error) {
	res, err := s.uploadDailyPhoto(ctx, in)
	if err != nil {
		metrics.PhotoUploads.WithLabelValues(metrics.ResultFailed).Inc()
		return nil, err
	}
	if res.Replaced {
		metrics.PhotoUploads.WithLabelValues(metrics.ResultReplaced).Inc()
	} else {
		metrics.PhotoUploads.WithLabelValues(metrics.ResultCreated).Inc()
	}
	return res, nil
}

func (s *PhotoService) uploadDailyPhoto(ctx context.Context, in UploadInput) (*UploadResult, error) {
	m, err := resolveWriter(ctx, s.members, in.UserID)
	if err != nil {
		return nil, err
	}
	if in.FamilyID != uuid.Nil && in.FamilyID != m.FamilyID {
		return nil, ErrNotAuthorized
	}

	today := s.today(m.Timezone)
	if in.Date != nil && *in.Date != today {
		return nil, ErrInvalidDate
	}

	rendered, err := s.render(ctx, in.Data)
	if err != nil {
		return nil, err
	}

	token := storage.NewToken()
	keys := storage.DailyKeys(dailyTiers, m.FamilyID, m.UserID, today.String(), token)
	urls, err := s.putAll(ctx, rendered, keys)
	if err != nil {
		logger.Log.Errorw("Storage write failed", "user_id", m.UserID, "token", token, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	photo := &models.Photo{
		UserID:       m.UserID,
		FamilyID:     m.FamilyID,
		UploadDate:   today,
		OriginalURL:  urls[derivative.TierOriginal],
		MediumURL:    urls[derivative.TierMobile],
		ThumbnailURL: urls[derivative.TierSquare],
		OriginalKey:  keys[derivative.TierOriginal],
		MediumKey:    keys[derivative.TierMobile],
		ThumbnailKey: keys[derivative.TierSquare],
		Width:        rendered.Width,
		Height:       rendered.Height,
		Caption:      in.Caption,
	}

	up, err := s.photos.UpsertDaily(ctx, photo)
	if errors.Is(err, repository.ErrDuplicateDailyPhoto) {
		// Lost a first-insert race for this date; the row exists now.
		up, err = s.photos.UpsertDaily(ctx, photo)
	}
	if err != nil {
		// The new blobs stay: the row may have committed before the error
		// reached us.
		logger.Log.Errorw("Photo row write failed", "user_id", m.UserID, "upload_date", today, "token", token, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrRowWrite, err)
	}

	op := models.OpInsert
	if up.Replaced {
		op = models.OpUpdate
		s.cleaner.Enqueue("replaced", up.PreviousKeys)
	}
	s.publish(ctx, models.Change{Table: "photos", FamilyID: m.FamilyID, Op: op, RowID: up.Photo.ID})

	logger.Log.Infow("Daily photo stored",
		"user_id", m.UserID,
		"family_id", m.FamilyID,
		"photo_id", up.Photo.ID,
		"upload_date", today,
		"replaced", up.Replaced,
	)
	return &UploadResult{Photo: up.Photo, Replaced: up.Replaced}, nil
}

// render runs the generator under the decode semaphore.
func (s *PhotoService) render(ctx context.Context, data []byte) (*derivative.Result, error) {
	if err := s.decode.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := s.generator.Generate(data)
	s.decode.Release(1)
	metrics.DerivativeSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, imageError(err)
	}
	for _, t := range dailyTiers {
		if _, ok := res.Get(t); !ok {
			return nil, fmt.Errorf("%w: missing %s rendition", ErrDerivativeFailed, t)
		}
	}
	return res, nil
}

// imageError maps generator failures caused by the upload itself to
// ErrValidation and everything else to ErrDerivativeFailed.
func imageError(err error) error {
	if errors.Is(err, derivative.ErrEmptyInput) ||
		errors.Is(err, derivative.ErrUnsupportedFormat) ||
		errors.Is(err, derivative.ErrTooLarge) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return fmt.Errorf("%w: %v", ErrDerivativeFailed, err)
}

// putAll writes every daily rendition in parallel. On failure the blobs that
// did land are handed to the cleaner.
func (s *PhotoService) putAll(ctx context.Context, res *derivative.Result, keys map[derivative.Tier]string) (map[derivative.Tier]string, error) {
	var (
		mu      sync.Mutex
		urls    = make(map[derivative.Tier]string, len(dailyTiers))
		written []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range dailyTiers {
		d, _ := res.Get(t)
		key := keys[t]
		g.Go(func() error {
			url, err := s.store.Put(gctx, key, d.Data, storage.PutOptions{ContentType: "image/jpeg"})
			if err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
			mu.Lock()
			urls[d.Tier] = url
			written = append(written, key)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.cleaner.Enqueue("aborted upload", written)
		return nil, err
	}
	return urls, nil
}

// today is the calendar date in the family's timezone.
func (s *PhotoService) today(tz string) models.Date {
	loc := s.defaultLoc
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			logger.Log.Warnw("Unknown family timezone, using default", "timezone", tz, "err", err)
		}
	}
	return models.DateOf(s.now().In(loc))
}

func (s *PhotoService) publish(ctx context.Context, change models.Change) {
	if change.At.IsZero() {
		change.At = s.now().UTC()
	}
	if err := s.publisher.Publish(ctx, change); err != nil {
		metrics.ChangePublishFailures.Inc()
		logger.Log.Warnw("Change publish failed", "table", change.Table, "family_id", change.FamilyID, "err", err)
	}
}

// ListFamilyPhotos returns the feed of familyID, or of the caller's own family
// when familyID is nil.
func (s *PhotoService) ListFamilyPhotos(ctx context.Context, userID, familyID uuid.UUID, limit, offset int) ([]models.PhotoWithUploader, error) {
	m, err := resolveMembership(ctx, s.members, userID)
	if err != nil {
		return nil, err
	}
	if familyID == uuid.Nil {
		familyID = m.FamilyID
	}
	if !access.CanRead(m, familyID) {
		return nil, ErrNotAuthorized
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.photos.ListFamily(ctx, userID, familyID, limit, offset)
}

func (s *PhotoService) GetPhoto(ctx context.Context, userID, photoID uuid.UUID) (*models.Photo, error) {
	m, err := resolveMembership(ctx, s.members, userID)
	if err != nil {
		return nil, err
	}
	return readablePhoto(ctx, s.photos, m, photoID)
}

func (s *PhotoService) UpdateCaption(ctx context.Context, userID, photoID uuid.UUID, caption *string) (*models.Photo, error) {
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

	updated, err := s.photos.UpdateCaption(ctx, userID, photoID, caption)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.publish(ctx, models.Change{Table: "photos", FamilyID: p.FamilyID, Op: models.OpUpdate, RowID: p.ID})
	return updated, nil
}

// DeletePhoto removes the caller's own photo; its blobs are cleaned up after
// the row is gone.
func (s *PhotoService) DeletePhoto(ctx context.Context, userID, photoID uuid.UUID) error {
	m, err := resolveWriter(ctx, s.members, userID)
	if err != nil {
		return err
	}
	p, err := readablePhoto(ctx, s.photos, m, photoID)
	if err != nil {
		return err
	}
	if !access.CanMutatePhoto(userID, p) {
		return ErrForbidden
	}

	deleted, err := s.photos.Delete(ctx, userID, photoID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	s.cleaner.Enqueue("deleted", deleted.Keys())
	s.publish(ctx, models.Change{Table: "photos", FamilyID: deleted.FamilyID, Op: models.OpDelete, RowID: deleted.ID})
	logger.Log.Infow("Photo deleted", "user_id", userID, "photo_id", photoID)
	return nil
}
