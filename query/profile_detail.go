package query

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/scope"
	"github.com/google/uuid"
)

// ProfileDetailFilter identifies the profile to inspect.
type ProfileDetailFilter struct {
	ProfileID uuid.UUID
	Actor     types.ActorRef
}

// Type implements gocommand.Message.
func (ProfileDetailFilter) Type() string {
	return "query.profile.detail"
}

// Validate implements gocommand.Message.
func (f ProfileDetailFilter) Validate() error {
	if f.ProfileID == uuid.Nil {
		return types.ErrProfileIDRequired
	}
	return nil
}

// ProfileDetail is the admin detail view: the raw record plus its canonical
// classification so panels never re-implement the precedence rules.
type ProfileDetail struct {
	Profile        types.CandidateProfile
	Classification types.Classification
}

// ProfileDetailQuery loads a single profile for admin inspection.
type ProfileDetailQuery struct {
	repo  types.ProfileRepository
	guard scope.Guard
}

// NewProfileDetailQuery constructs the detail query.
func NewProfileDetailQuery(repo types.ProfileRepository, guard scope.Guard) *ProfileDetailQuery {
	return &ProfileDetailQuery{
		repo:  repo,
		guard: safeScopeGuard(guard),
	}
}

var _ gocommand.Querier[ProfileDetailFilter, ProfileDetail] = (*ProfileDetailQuery)(nil)

// Query returns the profile and its classification.
func (q *ProfileDetailQuery) Query(ctx context.Context, filter ProfileDetailFilter) (ProfileDetail, error) {
	if q.repo == nil {
		return ProfileDetail{}, types.ErrMissingProfileRepository
	}
	if err := filter.Validate(); err != nil {
		return ProfileDetail{}, err
	}
	if err := q.guard.Enforce(ctx, filter.Actor, types.PolicyActionProfilesRead, filter.ProfileID); err != nil {
		return ProfileDetail{}, err
	}
	profile, err := q.repo.GetByID(ctx, filter.ProfileID)
	if err != nil {
		return ProfileDetail{}, err
	}
	return ProfileDetail{
		Profile:        *profile,
		Classification: types.Classify(*profile),
	}, nil
}
