package command

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/scope"
)

// ProfileProvisionInput describes the signup auto-provisioning request. Actor
// is optional: the hook usually runs on behalf of the signing-up user before
// any role exists.
type ProfileProvisionInput struct {
	Email      string
	Attributes map[string]any
	Actor      types.ActorRef
	Result     *ProfileProvisionResult
}

// Type implements gocommand.Message.
func (ProfileProvisionInput) Type() string {
	return "command.profile.provision"
}

// Validate implements gocommand.Message.
func (input ProfileProvisionInput) Validate() error {
	if input.Email == "" {
		return ErrProvisionEmailRequired
	}
	return nil
}

// Describe returns a human readable description of the command for debugging.
func (ProfileProvisionInput) Describe() string {
	return "candidate profile auto provisioning"
}

// ProfileProvisionResult carries the provisioned (or pre-existing) profile.
type ProfileProvisionResult struct {
	Profile *types.CandidateProfile
	Created bool
}

// ProfileProvisionCommand implements go-command.Commander for the signup hook.
// The operation is idempotent on email: an existing profile short-circuits to
// success, a duplicate-key insert race collapses to the surviving record, and
// any other store failure is logged and downgraded so signup never breaks on
// profile bookkeeping.
type ProfileProvisionCommand struct {
	repo     types.ProfileRepository
	gate     featuregate.FeatureGate
	defaults map[string]any
	clock    types.Clock
	logger   types.Logger
	hooks    types.Hooks
	activity types.ActivitySink
	guard    scope.Guard
}

// ProvisionCommandConfig configures the provisioning handler.
type ProvisionCommandConfig struct {
	Repository  types.ProfileRepository
	FeatureGate featuregate.FeatureGate
	Defaults    map[string]any
	Clock       types.Clock
	Logger      types.Logger
	Hooks       types.Hooks
	Activity    types.ActivitySink
	ScopeGuard  scope.Guard
}

// NewProfileProvisionCommand wires the provisioning handler.
func NewProfileProvisionCommand(cfg ProvisionCommandConfig) *ProfileProvisionCommand {
	return &ProfileProvisionCommand{
		repo:     cfg.Repository,
		gate:     cfg.FeatureGate,
		defaults: cfg.Defaults,
		clock:    safeClock(cfg.Clock),
		logger:   safeLogger(cfg.Logger),
		hooks:    safeHooks(cfg.Hooks),
		activity: safeActivitySink(cfg.Activity),
		guard:    safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ProfileProvisionInput] = (*ProfileProvisionCommand)(nil)

// Execute provisions a candidate profile for the email if none exists.
func (c *ProfileProvisionCommand) Execute(ctx context.Context, input ProfileProvisionInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	enabled, err := featureEnabled(ctx, c.gate, featureProfilesAutoProvision, input.Actor.ID)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrProvisionDisabled
	}
	if err := c.guard.Enforce(ctx, input.Actor, types.PolicyActionProfilesProvision, input.Actor.ID); err != nil {
		return err
	}

	existing, err := c.repo.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		c.finish(ctx, input, existing, false)
		return nil
	case !errors.Is(err, types.ErrProfileNotFound):
		return c.softFail(err, input.Email, "lookup")
	}

	attrs, err := resolveProvisionAttributes(c.defaults, input.Attributes)
	if err != nil {
		return err
	}
	displayName, headline, bio, skills, metadata := applyProvisionAttributes(attrs)

	created, err := c.repo.Create(ctx, &types.CandidateProfile{
		Email:       input.Email,
		Status:      types.StatusPtr(types.ReviewStatusNew),
		DisplayName: displayName,
		Headline:    headline,
		Bio:         bio,
		Skills:      skills,
		Metadata:    metadata,
	})
	if err != nil {
		if errors.Is(err, types.ErrDuplicateEmail) {
			// Lost the insert race; the surviving record satisfies the hook.
			winner, lookupErr := c.repo.GetByEmail(ctx, input.Email)
			if lookupErr != nil {
				return c.softFail(lookupErr, input.Email, "race lookup")
			}
			c.finish(ctx, input, winner, false)
			return nil
		}
		return c.softFail(err, input.Email, "insert")
	}

	eventTime := now(c.clock)
	record := types.ActivityRecord{
		ProfileID:  created.ID,
		ActorID:    input.Actor.ID,
		Verb:       "profile.provisioned",
		ObjectType: "candidate_profile",
		ObjectID:   created.ID.String(),
		Data: map[string]any{
			"email": created.Email,
		},
		OccurredAt: eventTime,
	}
	logActivity(ctx, c.activity, record)
	emitActivityHook(ctx, c.hooks, record)

	c.finish(ctx, input, created, true)
	return nil
}

func (c *ProfileProvisionCommand) finish(ctx context.Context, input ProfileProvisionInput, profile *types.CandidateProfile, created bool) {
	emitProvisionHook(ctx, c.hooks, types.ProvisionEvent{
		ProfileID:  profile.ID,
		Email:      profile.Email,
		Created:    created,
		OccurredAt: now(c.clock),
	})
	if input.Result != nil {
		input.Result.Profile = profile
		input.Result.Created = created
	}
}

func (c *ProfileProvisionCommand) softFail(err error, email, stage string) error {
	c.logger.Error("profile provisioning degraded", err, "email", email, "stage", stage)
	return &provisionSoftFailure{err: err}
}
