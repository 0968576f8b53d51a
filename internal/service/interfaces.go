package service

//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/pkg/derivative"
	"github.com/ldm616/justus-sub000/pkg/storage"
)

// MembershipResolver looks up the caller's family membership.
type MembershipResolver interface {
	ResolveMembership(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
}

// PhotoReader loads a single photo as seen by actor.
type PhotoReader interface {
	GetByID(ctx context.Context, actor, id uuid.UUID) (*models.Photo, error)
}

type PhotoRepository interface {
	PhotoReader
	UpsertDaily(ctx context.Context, p *models.Photo) (*models.DailyUpsert, error)
	ListFamily(ctx context.Context, actor, familyID uuid.UUID, limit, offset int) ([]models.PhotoWithUploader, error)
	UpdateCaption(ctx context.Context, actor, id uuid.UUID, caption *string) (*models.Photo, error)
	Delete(ctx context.Context, actor, id uuid.UUID) (*models.Photo, error)
}

type CommentRepository interface {
	ListByPhoto(ctx context.Context, actor, photoID uuid.UUID) ([]models.CommentWithAuthor, error)
	GetByID(ctx context.Context, actor, id uuid.UUID) (*models.PhotoComment, error)
	Create(ctx context.Context, c *models.PhotoComment) error
	Update(ctx context.Context, actor, id uuid.UUID, text string, editedAt time.Time) error
	Delete(ctx context.Context, actor, id uuid.UUID) error
}

type TagRepository interface {
	ListByPhoto(ctx context.Context, actor, photoID uuid.UUID) ([]models.PhotoTag, error)
	GetByID(ctx context.Context, actor, id uuid.UUID) (*models.PhotoTag, error)
	Create(ctx context.Context, t *models.PhotoTag) error
	Delete(ctx context.Context, actor, id uuid.UUID) error
}

type FamilyRepository interface {
	GetFamily(ctx context.Context, actor, familyID uuid.UUID) (*models.Family, error)
	ListMembers(ctx context.Context, actor, familyID uuid.UUID) ([]models.FamilyMember, error)
	UpdateFamily(ctx context.Context, actor, familyID uuid.UUID, req models.UpdateFamilyRequest) (*models.Family, error)
	UpdateMember(ctx context.Context, actor, familyID, userID uuid.UUID, req models.UpdateMemberRequest) error
}

type ProfileRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
}

// DerivativeGenerator renders the fixed rendition set from raw image bytes.
type DerivativeGenerator interface {
	Generate(data []byte) (*derivative.Result, error)
}

// BlobStore is the object storage gateway.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, opts storage.PutOptions) (string, error)
	Delete(ctx context.Context, keys []string) error
	PublicURL(key string) string
}

// BlobCleaner deletes superseded blobs in the background.
type BlobCleaner interface {
	Enqueue(reason string, keys []string) bool
}

// ChangePublisher emits refetch hints to a family's subscribers.
type ChangePublisher interface {
	Publish(ctx context.Context, change models.Change) error
}
