package handler

//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/internal/service"
)

type PhotoService interface {
	UploadDailyPhoto(ctx context.Context, in service.UploadInput) (*service.UploadResult, error)
	ListFamilyPhotos(ctx context.Context, userID, familyID uuid.UUID, limit, offset int) ([]models.PhotoWithUploader, error)
	GetPhoto(ctx context.Context, userID, photoID uuid.UUID) (*models.Photo, error)
	UpdateCaption(ctx context.Context, userID, photoID uuid.UUID, caption *string) (*models.Photo, error)
	DeletePhoto(ctx context.Context, userID, photoID uuid.UUID) error
}

type CommentService interface {
	List(ctx context.Context, userID, photoID uuid.UUID) ([]models.CommentWithAuthor, error)
	Create(ctx context.Context, userID, photoID uuid.UUID, text string) (*models.PhotoComment, error)
	Update(ctx context.Context, userID, commentID uuid.UUID, text string) (*models.PhotoComment, error)
	Delete(ctx context.Context, userID, commentID uuid.UUID) error
}

type TagService interface {
	List(ctx context.Context, userID, photoID uuid.UUID) ([]models.PhotoTag, error)
	Create(ctx context.Context, userID, photoID uuid.UUID, tag string) (*models.PhotoTag, error)
	Delete(ctx context.Context, userID, tagID uuid.UUID) error
}

type FamilyService interface {
	Membership(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
	GetFamily(ctx context.Context, userID uuid.UUID) (*models.FamilyResponse, error)
	UpdateFamily(ctx context.Context, userID uuid.UUID, req models.UpdateFamilyRequest) (*models.Family, error)
	UpdateMember(ctx context.Context, userID, targetID uuid.UUID, req models.UpdateMemberRequest) error
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte) (string, error)
}

// ChangeSubscriber streams a family's change notifications until ctx ends.
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, familyID uuid.UUID) (<-chan models.Change, error)
}
