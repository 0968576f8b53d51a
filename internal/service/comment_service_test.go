package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/ldm616/justus-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type socialFixture struct {
	family    uuid.UUID
	owner     *models.Membership
	relative  *models.Membership
	outsider  *models.Membership
	photo     *models.Photo
	members   *MockMembershipResolver
	photos    *MockPhotoReader
	publisher *MockChangePublisher
	ctrl      *gomock.Controller
}

func newSocialFixture(t *testing.T) *socialFixture {
	ctrl := gomock.NewController(t)
	family := uuid.New()
	f := &socialFixture{
		family:    family,
		owner:     member(family, models.RoleMember),
		relative:  member(family, models.RoleAdmin),
		outsider:  member(uuid.New(), models.RoleMember),
		members:   NewMockMembershipResolver(ctrl),
		photos:    NewMockPhotoReader(ctrl),
		publisher: NewMockChangePublisher(ctrl),
		ctrl:      ctrl,
	}
	f.photo = &models.Photo{ID: uuid.New(), UserID: f.owner.UserID, FamilyID: family}
	return f
}

// as makes m the resolved caller and lets it load the fixture photo.
func (f *socialFixture) as(m *models.Membership) {
	f.members.EXPECT().ResolveMembership(gomock.Any(), m.UserID).Return(m, nil)
	f.photos.EXPECT().GetByID(gomock.Any(), m.UserID, f.photo.ID).Return(f.photo, nil)
}

func TestCommentService_Create(t *testing.T) {
	f := newSocialFixture(t)
	comments := NewMockCommentRepository(f.ctrl)
	svc := NewCommentService(comments, f.photos, f.members, f.publisher)
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	f.as(f.relative)
	comments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *models.PhotoComment) error {
		assert.Equal(t, "lovely", c.Comment)
		assert.Equal(t, f.relative.UserID, c.UserID)
		assert.Equal(t, f.photo.ID, c.PhotoID)
		return nil
	})
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c models.Change) error {
		assert.Equal(t, "photo_comments", c.Table)
		assert.Equal(t, f.family, c.FamilyID)
		return nil
	})

	c, err := svc.Create(context.Background(), f.relative.UserID, f.photo.ID, "  lovely \n")
	require.NoError(t, err)
	assert.Equal(t, fixed, c.CreatedAt)
	assert.Nil(t, c.EditedAt)
}

func TestCommentService_CreateValidation(t *testing.T) {
	f := newSocialFixture(t)
	svc := NewCommentService(NewMockCommentRepository(f.ctrl), f.photos, f.members, f.publisher)

	for _, text := range []string{"", "   ", strings.Repeat("é", maxCommentLength+1)} {
		_, err := svc.Create(context.Background(), f.owner.UserID, f.photo.ID, text)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestCommentService_CreateOutsideFamily(t *testing.T) {
	f := newSocialFixture(t)
	svc := NewCommentService(NewMockCommentRepository(f.ctrl), f.photos, f.members, f.publisher)

	f.as(f.outsider)
	_, err := svc.Create(context.Background(), f.outsider.UserID, f.photo.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentService_EditOwnOnly(t *testing.T) {
	f := newSocialFixture(t)
	comments := NewMockCommentRepository(f.ctrl)
	svc := NewCommentService(comments, f.photos, f.members, f.publisher)
	fixed := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	comment := &models.PhotoComment{ID: uuid.New(), PhotoID: f.photo.ID, UserID: f.relative.UserID, Comment: "old"}

	// The photo owner cannot rewrite someone else's comment on it.
	f.members.EXPECT().ResolveMembership(gomock.Any(), f.owner.UserID).Return(f.owner, nil)
	comments.EXPECT().GetByID(gomock.Any(), f.owner.UserID, comment.ID).Return(comment, nil)
	f.photos.EXPECT().GetByID(gomock.Any(), f.owner.UserID, f.photo.ID).Return(f.photo, nil)
	_, err := svc.Update(context.Background(), f.owner.UserID, comment.ID, "new")
	assert.ErrorIs(t, err, ErrForbidden)

	f.members.EXPECT().ResolveMembership(gomock.Any(), f.relative.UserID).Return(f.relative, nil)
	comments.EXPECT().GetByID(gomock.Any(), f.relative.UserID, comment.ID).Return(comment, nil)
	f.photos.EXPECT().GetByID(gomock.Any(), f.relative.UserID, f.photo.ID).Return(f.photo, nil)
	comments.EXPECT().Update(gomock.Any(), f.relative.UserID, comment.ID, "new", fixed).Return(nil)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	updated, err := svc.Update(context.Background(), f.relative.UserID, comment.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Comment)
	require.NotNil(t, updated.EditedAt)
	assert.Equal(t, fixed, *updated.EditedAt)
}

func TestCommentService_DeleteMissing(t *testing.T) {
	f := newSocialFixture(t)
	comments := NewMockCommentRepository(f.ctrl)
	svc := NewCommentService(comments, f.photos, f.members, f.publisher)
	id := uuid.New()

	f.members.EXPECT().ResolveMembership(gomock.Any(), f.owner.UserID).Return(f.owner, nil)
	comments.EXPECT().GetByID(gomock.Any(), f.owner.UserID, id).Return(nil, repository.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), f.owner.UserID, id), ErrNotFound)
}

func TestCommentService_SuspendedCannotWrite(t *testing.T) {
	f := newSocialFixture(t)
	svc := NewCommentService(NewMockCommentRepository(f.ctrl), f.photos, f.members, f.publisher)
	suspended := *f.relative
	suspended.IsSuspended = true

	f.members.EXPECT().ResolveMembership(gomock.Any(), suspended.UserID).Return(&suspended, nil)
	_, err := svc.Create(context.Background(), suspended.UserID, f.photo.ID, "hi")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestTagService_Create(t *testing.T) {
	t.Run("owner tags own photo", func(t *testing.T) {
		f := newSocialFixture(t)
		tags := NewMockTagRepository(f.ctrl)
		svc := NewTagService(tags, f.photos, f.members, f.publisher)

		f.as(f.owner)
		tags.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tag *models.PhotoTag) error {
			assert.Equal(t, "beach", tag.Tag)
			assert.Equal(t, f.owner.UserID, tag.CreatedBy)
			return nil
		})
		f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		_, err := svc.Create(context.Background(), f.owner.UserID, f.photo.ID, " beach ")
		assert.NoError(t, err)
	})

	t.Run("relative cannot tag", func(t *testing.T) {
		f := newSocialFixture(t)
		svc := NewTagService(NewMockTagRepository(f.ctrl), f.photos, f.members, f.publisher)

		f.as(f.relative)
		_, err := svc.Create(context.Background(), f.relative.UserID, f.photo.ID, "beach")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("duplicate tag", func(t *testing.T) {
		f := newSocialFixture(t)
		tags := NewMockTagRepository(f.ctrl)
		svc := NewTagService(tags, f.photos, f.members, f.publisher)

		f.as(f.owner)
		tags.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repository.ErrDuplicateTag)

		_, err := svc.Create(context.Background(), f.owner.UserID, f.photo.ID, "beach")
		assert.ErrorIs(t, err, ErrTagExists)
	})

	t.Run("too long", func(t *testing.T) {
		f := newSocialFixture(t)
		svc := NewTagService(NewMockTagRepository(f.ctrl), f.photos, f.members, f.publisher)

		_, err := svc.Create(context.Background(), f.owner.UserID, f.photo.ID, strings.Repeat("x", maxTagLength+1))
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTagService_DeleteCreatorOnly(t *testing.T) {
	f := newSocialFixture(t)
	tags := NewMockTagRepository(f.ctrl)
	svc := NewTagService(tags, f.photos, f.members, f.publisher)
	tag := &models.PhotoTag{ID: uuid.New(), PhotoID: f.photo.ID, Tag: "beach", CreatedBy: f.owner.UserID}

	f.members.EXPECT().ResolveMembership(gomock.Any(), f.relative.UserID).Return(f.relative, nil)
	tags.EXPECT().GetByID(gomock.Any(), f.relative.UserID, tag.ID).Return(tag, nil)
	f.photos.EXPECT().GetByID(gomock.Any(), f.relative.UserID, f.photo.ID).Return(f.photo, nil)
	assert.ErrorIs(t, svc.Delete(context.Background(), f.relative.UserID, tag.ID), ErrForbidden)

	f.members.EXPECT().ResolveMembership(gomock.Any(), f.owner.UserID).Return(f.owner, nil)
	tags.EXPECT().GetByID(gomock.Any(), f.owner.UserID, tag.ID).Return(tag, nil)
	f.photos.EXPECT().GetByID(gomock.Any(), f.owner.UserID, f.photo.ID).Return(f.photo, nil)
	tags.EXPECT().Delete(gomock.Any(), f.owner.UserID, tag.ID).Return(nil)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	assert.NoError(t, svc.Delete(context.Background(), f.owner.UserID, tag.ID))
}

func TestTagService_ListNeedsReadablePhoto(t *testing.T) {
	f := newSocialFixture(t)
	tags := NewMockTagRepository(f.ctrl)
	svc := NewTagService(tags, f.photos, f.members, f.publisher)

	f.as(f.outsider)
	_, err := svc.List(context.Background(), f.outsider.UserID, f.photo.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	f.as(f.relative)
	tags.EXPECT().ListByPhoto(gomock.Any(), f.relative.UserID, f.photo.ID).Return([]models.PhotoTag{{Tag: "beach"}}, nil)
	got, err := svc.List(context.Background(), f.relative.UserID, f.photo.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
