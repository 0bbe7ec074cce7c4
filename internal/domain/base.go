package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Model is the column set shared by every table. Append-only tables
// (pricing history, transaction logs, reviews) embed it directly;
// everything else embeds Tracked.
type Model struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	DeletedAt sql.NullTime `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Tracked adds the modification timestamp for tables whose rows are
// updated in place.
type Tracked struct {
	Model
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
