package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope runs queries on behalf of a user. Each call is one transaction with
// app.user_id set locally, so the row-level security policies see the caller.
type Scope struct {
	db   *gorm.DB
	role string
}

// NewScope returns a Scope that switches to role inside each transaction.
// An empty role keeps the connecting role.
func NewScope(db *gorm.DB, role string) *Scope {
	return &Scope{db: db, role: role}
}

func (s *Scope) AsUser(ctx context.Context, userID uuid.UUID, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('app.user_id', ?, true)", userID.String()).Error; err != nil {
			return err
		}
		if s.role != "" {
			if err := tx.Exec("SET LOCAL ROLE " + s.role).Error; err != nil {
				return err
			}
		}
		return fn(tx)
	})
}
