package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyRepository_ResolveMembership(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewFamilyRepository(scope)
	userID, familyID := uuid.New(), uuid.New()

	expectScope(mock, userID)
	mock.ExpectQuery(`SELECT m\.user_id, m\.family_id, m\.role, m\.is_suspended, COALESCE\(f\.timezone, ''\) AS timezone FROM family_memberships AS m JOIN profiles p ON p\.id = m\.user_id AND p\.family_id = m\.family_id LEFT JOIN families f`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "family_id", "role", "is_suspended", "timezone"}).
			AddRow(userID.String(), familyID.String(), "member", false, "Europe/Istanbul"))
	mock.ExpectCommit()

	m, err := repo.ResolveMembership(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, familyID, m.FamilyID)
	assert.Equal(t, models.RoleMember, m.Role)
	assert.Equal(t, "Europe/Istanbul", m.Timezone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyRepository_ResolveMembership_NotInFamily(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewFamilyRepository(scope)
	userID := uuid.New()

	expectScope(mock, userID)
	mock.ExpectQuery(`FROM family_memberships AS m`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "family_id", "role", "is_suspended", "timezone"}))
	mock.ExpectRollback()

	_, err := repo.ResolveMembership(context.Background(), userID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyRepository_ListMembers(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewFamilyRepository(scope)
	actor, familyID := uuid.New(), uuid.New()

	expectScope(mock, actor)
	mock.ExpectQuery(`FROM family_memberships AS m JOIN profiles p ON p\.id = m\.user_id WHERE m\.family_id = \$1 ORDER BY m\.joined_at ASC`).
		WithArgs(familyID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "avatar_url", "role", "is_suspended", "joined_at"}).
			AddRow(actor.String(), "ana", "", "admin", false, time.Now()).
			AddRow(uuid.New().String(), "bo", "", "member", true, time.Now()))
	mock.ExpectCommit()

	members, err := repo.ListMembers(context.Background(), actor, familyID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, models.RoleAdmin, members[0].Role)
	assert.True(t, members[1].IsSuspended)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyRepository_UpdateFamily(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewFamilyRepository(scope)
	actor, familyID := uuid.New(), uuid.New()
	name := "The Smiths"

	expectScope(mock, actor)
	mock.ExpectExec(`UPDATE "families" SET "name"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "families" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_by", "timezone", "created_at", "updated_at"}).
			AddRow(familyID.String(), name, actor.String(), "UTC", time.Now(), time.Now()))
	mock.ExpectCommit()

	family, err := repo.UpdateFamily(context.Background(), actor, familyID, models.UpdateFamilyRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, family.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyRepository_UpdateFamily_NotAdmin(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewFamilyRepository(scope)
	actor := uuid.New()
	name := "x"

	// Row-level security hides the row from non-admins.
	expectScope(mock, actor)
	mock.ExpectExec(`UPDATE "families"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.UpdateFamily(context.Background(), actor, uuid.New(), models.UpdateFamilyRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyRepository_UpdateMember(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewFamilyRepository(scope)
	actor, familyID, target := uuid.New(), uuid.New(), uuid.New()
	suspended := true

	expectScope(mock, actor)
	mock.ExpectExec(`UPDATE "family_memberships" SET "is_suspended"=\$1 WHERE family_id = \$2 AND user_id = \$3`).
		WithArgs(true, familyID.String(), target.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateMember(context.Background(), actor, familyID, target, models.UpdateMemberRequest{IsSuspended: &suspended})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyRepository_UpdateMember_NoChanges(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewFamilyRepository(scope)

	err := repo.UpdateMember(context.Background(), uuid.New(), uuid.New(), uuid.New(), models.UpdateMemberRequest{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_UpdateAvatar(t *testing.T) {
	scope, mock := newMockScope(t, "")
	repo := NewProfileRepository(scope)
	userID := uuid.New()

	expectScope(mock, userID)
	mock.ExpectExec(`UPDATE "profiles" SET "avatar_url"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateAvatar(context.Background(), userID, "https://cdn/avatars/u.jpg?v=1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
