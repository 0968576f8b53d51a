package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var photoColumns = []string{
	"id", "user_id", "family_id", "upload_date",
	"original_url", "medium_url", "thumbnail_url",
	"original_key", "medium_key", "thumbnail_key",
	"width", "height", "caption", "created_at", "updated_at",
}

func newDailyPhoto(userID, familyID uuid.UUID, token string) *models.Photo {
	return &models.Photo{
		UserID:       userID,
		FamilyID:     familyID,
		UploadDate:   models.Date{Year: 2025, Month: time.June, Day: 1},
		OriginalURL:  "https://cdn/original/" + token + ".jpg",
		MediumURL:    "https://cdn/mobile/" + token + ".jpg",
		ThumbnailURL: "https://cdn/square400/" + token + ".jpg",
		OriginalKey:  "original/" + token + ".jpg",
		MediumKey:    "mobile/" + token + ".jpg",
		ThumbnailKey: "square400/" + token + ".jpg",
		Width:        2048,
		Height:       1536,
	}
}

func fixedClock(repo *PhotoRepository, at time.Time) {
	repo.now = func() time.Time { return at }
}

func TestPhotoRepository_UpsertDaily_Insert(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewPhotoRepository(scope)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fixedClock(repo, now)

	userID, familyID := uuid.New(), uuid.New()
	p := newDailyPhoto(userID, familyID, "tok1")

	expectScope(mock, userID)
	mock.ExpectQuery(`SELECT \* FROM "photos" WHERE .*user_id.*upload_date.*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(photoColumns))
	mock.ExpectExec(`INSERT INTO "photos"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.UpsertDaily(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, res.Replaced)
	assert.Empty(t, res.PreviousKeys)
	assert.NotEqual(t, uuid.Nil, res.Photo.ID)
	assert.Equal(t, now, res.Photo.CreatedAt)
	assert.Equal(t, "original/tok1.jpg", res.Photo.OriginalKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_UpsertDaily_Replace(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewPhotoRepository(scope)
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	fixedClock(repo, now)

	userID, familyID, photoID := uuid.New(), uuid.New(), uuid.New()
	earlier := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	expectScope(mock, userID)
	mock.ExpectQuery(`SELECT \* FROM "photos" WHERE .*user_id.*upload_date.*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(photoColumns).AddRow(
			photoID.String(), userID.String(), familyID.String(), "2025-06-01",
			"u1", "u2", "u3",
			"original/old.jpg", "mobile/old.jpg", "square400/old.jpg",
			1000, 800, "morning walk", earlier, earlier,
		))
	mock.ExpectExec(`UPDATE "photos" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.UpsertDaily(context.Background(), newDailyPhoto(userID, familyID, "tok2"))
	require.NoError(t, err)
	assert.True(t, res.Replaced)
	assert.Equal(t, photoID, res.Photo.ID)
	assert.Equal(t, []string{"original/old.jpg", "mobile/old.jpg", "square400/old.jpg"}, res.PreviousKeys)
	assert.Equal(t, "original/tok2.jpg", res.Photo.OriginalKey)
	assert.Equal(t, now, res.Photo.CreatedAt)
	require.NotNil(t, res.Photo.Caption)
	assert.Equal(t, "morning walk", *res.Photo.Caption)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_UpsertDaily_ReplaceWithCaption(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewPhotoRepository(scope)

	userID, familyID := uuid.New(), uuid.New()
	p := newDailyPhoto(userID, familyID, "tok3")
	caption := "evening"
	p.Caption = &caption

	expectScope(mock, userID)
	mock.ExpectQuery(`SELECT \* FROM "photos"`).
		WillReturnRows(sqlmock.NewRows(photoColumns).AddRow(
			uuid.New().String(), userID.String(), familyID.String(), "2025-06-01",
			"u1", "u2", "u3", "o", "m", "s", 1, 1, "morning", time.Now(), time.Now(),
		))
	mock.ExpectExec(`UPDATE "photos" SET .*"caption"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.UpsertDaily(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "evening", *res.Photo.Caption)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_UpsertDaily_ConcurrentInsert(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewPhotoRepository(scope)
	userID := uuid.New()

	expectScope(mock, userID)
	mock.ExpectQuery(`SELECT \* FROM "photos"`).
		WillReturnRows(sqlmock.NewRows(photoColumns))
	mock.ExpectExec(`INSERT INTO "photos"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "photos_user_date_key"})
	mock.ExpectRollback()

	_, err := repo.UpsertDaily(context.Background(), newDailyPhoto(userID, uuid.New(), "tok"))
	assert.ErrorIs(t, err, ErrDuplicateDailyPhoto)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_GetByID_NotFound(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewPhotoRepository(scope)
	actor := uuid.New()

	expectScope(mock, actor)
	mock.ExpectQuery(`SELECT \* FROM "photos" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(photoColumns))
	mock.ExpectRollback()

	_, err := repo.GetByID(context.Background(), actor, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_ListFamily(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewPhotoRepository(scope)
	actor, familyID := uuid.New(), uuid.New()

	cols := append(append([]string{}, photoColumns...), "username", "avatar_url")
	now := time.Now()

	expectScope(mock, actor)
	mock.ExpectQuery(`SELECT p\.\*, pr\.username, pr\.avatar_url FROM photos AS p LEFT JOIN profiles pr .* ORDER BY p\.created_at DESC, p\.upload_date DESC`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.New().String(), actor.String(), familyID.String(), "2025-06-02",
				"a", "b", "c", "", "", "", 1, 1, nil, now, now, "ana", "https://cdn/avatars/a.jpg").
			AddRow(uuid.New().String(), actor.String(), familyID.String(), "2025-06-01",
				"d", "e", "f", "", "", "", 1, 1, nil, now.Add(-time.Hour), now, "ana", ""))
	mock.ExpectCommit()

	photos, err := repo.ListFamily(context.Background(), actor, familyID, 50, 0)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "ana", photos[0].Username)
	assert.Equal(t, "2025-06-02", photos[0].UploadDate.String())
	assert.Nil(t, photos[1].Caption)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_UpdateCaption_NotOwner(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewPhotoRepository(scope)
	actor := uuid.New()
	caption := "mine now"

	expectScope(mock, actor)
	mock.ExpectExec(`UPDATE "photos" SET .* WHERE id = \$\d+ AND user_id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.UpdateCaption(context.Background(), actor, uuid.New(), &caption)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_Delete(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewPhotoRepository(scope)
	actor, familyID, photoID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	expectScope(mock, actor)
	mock.ExpectQuery(`DELETE FROM "photos" WHERE id = \$1 AND user_id = \$2 RETURNING`).
		WithArgs(photoID.String(), actor.String()).
		WillReturnRows(sqlmock.NewRows(photoColumns).AddRow(
			photoID.String(), actor.String(), familyID.String(), "2025-06-01",
			"a", "b", "c", "original/x.jpg", "mobile/x.jpg", "square400/x.jpg", 1, 1, nil, now, now))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), actor, photoID)
	require.NoError(t, err)
	assert.Equal(t, photoID, deleted.ID)
	assert.Len(t, deleted.Keys(), 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_Delete_NotOwner(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewPhotoRepository(scope)
	actor := uuid.New()

	expectScope(mock, actor)
	mock.ExpectQuery(`DELETE FROM "photos"`).
		WillReturnRows(sqlmock.NewRows(photoColumns))
	mock.ExpectCommit()

	_, err := repo.Delete(context.Background(), actor, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
