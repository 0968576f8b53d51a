package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockScope(t *testing.T, role string) (*Scope, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return NewScope(db, role), mock
}

func expectScope(mock sqlmock.Sqlmock, userID uuid.UUID) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT set_config('app.user_id', $1, true)")).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestScope_AsUser(t *testing.T) {
	scope, mock := newMockScope(t, "justus_app")
	userID := uuid.New()

	expectScope(mock, userID)
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL ROLE justus_app")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT 1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := scope.AsUser(context.Background(), userID, func(tx *gorm.DB) error {
		return tx.Exec("SELECT 1").Error
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScope_AsUserRollsBack(t *testing.T) {
	scope, mock := newMockScope(t, "")
	userID := uuid.New()
	boom := errors.New("boom")

	expectScope(mock, userID)
	mock.ExpectRollback()

	err := scope.AsUser(context.Background(), userID, func(tx *gorm.DB) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
