package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Record models the candidate_profiles row. The status/approved/visible
// columns are all nullable on purpose: legacy rows predate the status column
// and the canonical classifier has to cope with every combination.
type Record struct {
	bun.BaseModel `bun:"table:candidate_profiles"`

	ID          uuid.UUID      `bun:"id,pk,type:uuid"`
	Email       string         `bun:"email,notnull"`
	Status      *string        `bun:"status"`
	Approved    *bool          `bun:"approved"`
	Visible     *bool          `bun:"visible"`
	DisplayName string         `bun:"display_name"`
	Headline    string         `bun:"headline"`
	Bio         string         `bun:"bio"`
	Skills      []string       `bun:"skills,type:jsonb"`
	Metadata    map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt   time.Time      `bun:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at"`
}
