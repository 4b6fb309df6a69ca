package migrations

import (
	"github.com/goliatone/go-moderation/activity"
	"github.com/goliatone/go-moderation/profile"
	persistence "github.com/goliatone/go-persistence-bun"
)

// RegisterModels registers the moderation Bun models with go-persistence-bun
// so hosts using its fixture/migration tooling can resolve them by name.
func RegisterModels() {
	persistence.RegisterModel((*profile.Record)(nil))
	persistence.RegisterModel((*activity.LogEntry)(nil))
}
