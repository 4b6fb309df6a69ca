package activity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogEntry models the persisted row in profile_activity.
type LogEntry struct {
	bun.BaseModel `bun:"table:profile_activity"`

	ID         uuid.UUID      `bun:",pk,type:uuid"`
	ProfileID  uuid.UUID      `bun:"profile_id,type:uuid"`
	ActorID    uuid.UUID      `bun:"actor_id,type:uuid"`
	Verb       string         `bun:"verb"`
	ObjectType string         `bun:"object_type"`
	ObjectID   string         `bun:"object_id"`
	Data       map[string]any `bun:"data,type:jsonb"`
	CreatedAt  time.Time      `bun:"created_at"`
}
