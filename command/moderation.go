package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/scope"
	"github.com/google/uuid"
)

// ModerationDecision names the admin verdicts a moderator can issue.
type ModerationDecision string

const (
	DecisionApprove   ModerationDecision = "approve"
	DecisionReject    ModerationDecision = "reject"
	DecisionReapprove ModerationDecision = "reapprove"
)

// ProfileModerationInput describes a single moderation decision request.
type ProfileModerationInput struct {
	ProfileID uuid.UUID
	Decision  ModerationDecision
	Actor     types.ActorRef
	Reason    string
	Metadata  map[string]any
	Result    *ProfileModerationResult
}

// Type implements gocommand.Message.
func (ProfileModerationInput) Type() string {
	return "command.profile.moderation"
}

// Validate implements gocommand.Message.
func (input ProfileModerationInput) Validate() error {
	switch {
	case input.ProfileID == uuid.Nil:
		return ErrModerationProfileIDRequired
	case input.Decision != DecisionApprove && input.Decision != DecisionReject && input.Decision != DecisionReapprove:
		return ErrModerationDecisionInvalid
	case input.Actor.ID == uuid.Nil:
		return ErrActorRequired
	default:
		return nil
	}
}

// Describe returns a human readable description of the command for debugging.
func (ProfileModerationInput) Describe() string {
	return "candidate profile moderation decision"
}

// ProfileModerationResult carries the updated profile and the state change.
type ProfileModerationResult struct {
	Profile   *types.CandidateProfile
	FromState types.Classification
	ToState   types.Classification
}

// ProfileModerationCommand implements go-command.Commander for moderation
// decisions. A decision is exactly one write to the decided profile: the
// canonical field triple for the verdict, updated_at refreshed, nothing else
// touched. Concurrent decisions race with last-write-wins at the store.
type ProfileModerationCommand struct {
	repo     types.ProfileRepository
	clock    types.Clock
	logger   types.Logger
	hooks    types.Hooks
	activity types.ActivitySink
	guard    scope.Guard
}

// ModerationCommandConfig configures the moderation command handler.
type ModerationCommandConfig struct {
	Repository types.ProfileRepository
	Clock      types.Clock
	Logger     types.Logger
	Hooks      types.Hooks
	Activity   types.ActivitySink
	ScopeGuard scope.Guard
}

// NewProfileModerationCommand wires the moderation handler.
func NewProfileModerationCommand(cfg ModerationCommandConfig) *ProfileModerationCommand {
	return &ProfileModerationCommand{
		repo:     cfg.Repository,
		clock:    safeClock(cfg.Clock),
		logger:   safeLogger(cfg.Logger),
		hooks:    safeHooks(cfg.Hooks),
		activity: safeActivitySink(cfg.Activity),
		guard:    safeScopeGuard(cfg.ScopeGuard),
	}
}

var _ gocommand.Commander[ProfileModerationInput] = (*ProfileModerationCommand)(nil)

// Execute applies the decision to the targeted profile.
func (c *ProfileModerationCommand) Execute(ctx context.Context, input ProfileModerationInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if err := c.guard.Enforce(ctx, input.Actor, types.PolicyActionProfilesModerate, input.ProfileID); err != nil {
		return err
	}
	current, err := c.repo.GetByID(ctx, input.ProfileID)
	if err != nil {
		return err
	}
	from := types.Classify(*current)

	updated, err := c.repo.ApplyPatch(ctx, input.ProfileID, decisionPatch(input.Decision))
	if err != nil {
		return err
	}
	to := types.Classify(*updated)
	if to.Contradictory || to.State != decisionTarget(input.Decision) {
		c.logger.Error("moderation readback mismatch", ErrModerationNotConverged,
			"profile_id", updated.ID, "decision", input.Decision, "state", to.State)
		return ErrModerationNotConverged
	}

	eventTime := now(c.clock)
	record := types.ActivityRecord{
		ProfileID:  updated.ID,
		ActorID:    input.Actor.ID,
		Verb:       decisionVerb(input.Decision),
		ObjectType: "candidate_profile",
		ObjectID:   updated.ID.String(),
		Data: map[string]any{
			"from_state": from.State,
			"to_state":   to.State,
			"reason":     input.Reason,
			"metadata":   input.Metadata,
		},
		OccurredAt: eventTime,
	}
	logActivity(ctx, c.activity, record)
	emitActivityHook(ctx, c.hooks, record)

	emitModerationHook(ctx, c.hooks, types.ModerationEvent{
		ProfileID:  updated.ID,
		ActorID:    input.Actor.ID,
		Decision:   string(input.Decision),
		FromState:  from.State,
		ToState:    to.State,
		Reason:     input.Reason,
		OccurredAt: eventTime,
		Metadata:   input.Metadata,
	})

	if input.Result != nil {
		input.Result.Profile = updated
		input.Result.FromState = from
		input.Result.ToState = to
	}
	return nil
}

// decisionPatch maps the verdict onto the canonical field triple. Reapprove is
// the same write as approve; the distinct decision value survives only in the
// audit trail.
func decisionPatch(decision ModerationDecision) types.ProfilePatch {
	if decision == DecisionReject {
		return types.RejectionPatch()
	}
	return types.ApprovalPatch()
}

func decisionTarget(decision ModerationDecision) types.CanonicalState {
	if decision == DecisionReject {
		return types.StateRejected
	}
	return types.StateApproved
}

func decisionVerb(decision ModerationDecision) string {
	switch decision {
	case DecisionReject:
		return "profile.rejected"
	case DecisionReapprove:
		return "profile.reapproved"
	default:
		return "profile.approved"
	}
}
