package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateDailyPhoto = errors.New("photo already exists for this date")
	ErrDuplicateTag        = errors.New("tag already exists on photo")
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint failure. With
// TranslateError enabled gorm hides the driver error behind
// gorm.ErrDuplicatedKey, so both forms are checked.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
