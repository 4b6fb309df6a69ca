package command

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
)

const featureProfilesAutoProvision = "profiles.auto_provision"

func featureEnabled(ctx context.Context, gate featuregate.FeatureGate, key string, actorID uuid.UUID) (bool, error) {
	if gate == nil {
		return true, nil
	}
	if actorID == uuid.Nil {
		return gate.Enabled(ctx, key)
	}
	return gate.Enabled(ctx, key, featuregate.WithScopeChain(featuregate.ScopeChain{
		{Kind: featuregate.ScopeUser, ID: actorID.String()},
		{Kind: featuregate.ScopeSystem},
	}))
}
