package query

import (
	"github.com/goliatone/go-moderation/scope"
)

const (
	defaultQueueLimit = 50
	maxQueueLimit     = 200
	scanPageSize      = 200
)

func safeScopeGuard(g scope.Guard) scope.Guard {
	return scope.Ensure(g)
}
