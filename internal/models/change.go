package models

import (
	"time"

	"github.com/google/uuid"
)

type ChangeOp string

const (
	OpInsert ChangeOp = "insert"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// Change is a refetch hint for clients watching a family's feed. Delivery is
// best-effort; clients must never treat it as the source of truth.
type Change struct {
	Table    string    `json:"table"`
	FamilyID uuid.UUID `json:"family_id"`
	Op       ChangeOp  `json:"op"`
	RowID    uuid.UUID `json:"row_id"`
	At       time.Time `json:"at"`
}
