package types

import (
	"context"

	"github.com/google/uuid"
)

// PolicyAction enumerates the authorization actions enforced by the guard.
// Host applications can remap these actions to their own ACL systems.
type PolicyAction string

const (
	PolicyActionProfilesRead      PolicyAction = "profiles:read"
	PolicyActionProfilesModerate  PolicyAction = "profiles:moderate"
	PolicyActionProfilesProvision PolicyAction = "profiles:provision"
	PolicyActionReconcileRun      PolicyAction = "reconcile:run"
)

// PolicyCheck captures the authorization context for a single command/query.
type PolicyCheck struct {
	Actor    ActorRef
	Action   PolicyAction
	TargetID uuid.UUID
}

// AuthorizationPolicy governs whether an actor can perform the supplied
// action. The identity provider resolves the actor; this decides capability.
type AuthorizationPolicy interface {
	Authorize(ctx context.Context, check PolicyCheck) error
}

// AuthorizationPolicyFunc adapts bare functions to AuthorizationPolicy.
type AuthorizationPolicyFunc func(ctx context.Context, check PolicyCheck) error

// Authorize implements AuthorizationPolicy.
func (f AuthorizationPolicyFunc) Authorize(ctx context.Context, check PolicyCheck) error {
	return f(ctx, check)
}

// AllowAllAuthorizationPolicy allows every action. Intended for tests and
// trusted internal wiring.
type AllowAllAuthorizationPolicy struct{}

// Authorize implements AuthorizationPolicy.
func (AllowAllAuthorizationPolicy) Authorize(context.Context, PolicyCheck) error {
	return nil
}

// AdminModerationPolicy is the default policy: moderation, reconciliation,
// and admin reads require the admin role; provisioning is open to any
// resolved caller because the signup flow invokes it before a role exists in
// any meaningful sense.
type AdminModerationPolicy struct{}

// Authorize implements AuthorizationPolicy.
func (AdminModerationPolicy) Authorize(_ context.Context, check PolicyCheck) error {
	switch check.Action {
	case PolicyActionProfilesProvision:
		return nil
	case PolicyActionProfilesModerate, PolicyActionReconcileRun, PolicyActionProfilesRead:
		if check.Actor.IsAdmin() {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// DefaultAuthorizationPolicy returns the policy used when hosts do not
// provide their own.
func DefaultAuthorizationPolicy() AuthorizationPolicy {
	return AdminModerationPolicy{}
}
