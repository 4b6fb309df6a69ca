package command

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/scope"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestProfileModerationCommand_ApproveLandsCanonicalTriple(t *testing.T) {
	repo := newFakeProfileRepo()
	profileID := repo.seed(&types.CandidateProfile{
		Email:  "pending@example.com",
		Status: types.StatusPtr(types.ReviewStatusPending),
	})

	eventTime := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	var recorded types.ActivityRecord
	var event types.ModerationEvent
	sink := &recordingActivitySink{onLog: func(r types.ActivityRecord) { recorded = r }}
	cmd := NewProfileModerationCommand(ModerationCommandConfig{
		Repository: repo,
		Activity:   sink,
		Clock:      fixedClock{t: eventTime},
		Hooks: types.Hooks{
			AfterModeration: func(_ context.Context, e types.ModerationEvent) { event = e },
		},
	})

	result := &ProfileModerationResult{}
	err := cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: profileID,
		Decision:  DecisionApprove,
		Actor:     types.ActorRef{ID: uuid.New(), Type: types.ActorRoleAdmin},
		Reason:    "profile complete",
		Result:    result,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Profile)
	require.Nil(t, result.Profile.Status)
	require.True(t, *result.Profile.Approved)
	require.True(t, *result.Profile.Visible)
	require.Equal(t, types.StatePending, result.FromState.State)
	require.Equal(t, types.StateApproved, result.ToState.State)
	require.False(t, result.ToState.Contradictory)
	require.Equal(t, "profile.approved", recorded.Verb)
	require.Equal(t, "profile complete", recorded.Data["reason"])
	require.Equal(t, eventTime, recorded.OccurredAt, "activity stamps the injected clock")
	require.Equal(t, eventTime, event.OccurredAt, "hook and activity share one event time")
	require.Equal(t, 1, repo.patchCalls, "a decision is exactly one write")
}

func TestProfileModerationCommand_RejectAndReapprove(t *testing.T) {
	repo := newFakeProfileRepo()
	profileID := repo.seed(&types.CandidateProfile{
		Email:    "flip@example.com",
		Approved: types.BoolPtr(true),
		Visible:  types.BoolPtr(true),
	})

	var verbs []string
	sink := &recordingActivitySink{onLog: func(r types.ActivityRecord) { verbs = append(verbs, r.Verb) }}
	cmd := NewProfileModerationCommand(ModerationCommandConfig{Repository: repo, Activity: sink})

	err := cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: profileID,
		Decision:  DecisionReject,
		Actor:     types.ActorRef{ID: uuid.New(), Type: types.ActorRoleAdmin},
	})
	require.NoError(t, err)
	require.Equal(t, types.StateRejected, types.CanonicalStateOf(*repo.profiles[profileID]))

	reapproved := &ProfileModerationResult{}
	err = cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: profileID,
		Decision:  DecisionReapprove,
		Actor:     types.ActorRef{ID: uuid.New(), Type: types.ActorRoleAdmin},
		Result:    reapproved,
	})
	require.NoError(t, err)
	require.Equal(t, types.StateApproved, reapproved.ToState.State)
	require.False(t, reapproved.ToState.Contradictory)
	require.Equal(t, []string{"profile.rejected", "profile.reapproved"}, verbs)
}

func TestProfileModerationCommand_Idempotent(t *testing.T) {
	repo := newFakeProfileRepo()
	profileID := repo.seed(&types.CandidateProfile{
		Email:  "twice@example.com",
		Status: types.StatusPtr(types.ReviewStatusPending),
	})
	cmd := NewProfileModerationCommand(ModerationCommandConfig{Repository: repo})
	actor := types.ActorRef{ID: uuid.New(), Type: types.ActorRoleAdmin}

	require.NoError(t, cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: profileID, Decision: DecisionApprove, Actor: actor,
	}))
	first := *repo.profiles[profileID]

	require.NoError(t, cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: profileID, Decision: DecisionApprove, Actor: actor,
	}))
	second := *repo.profiles[profileID]

	require.Equal(t, types.Classify(first), types.Classify(second))
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, *first.Approved, *second.Approved)
	require.Equal(t, *first.Visible, *second.Visible)
}

func TestProfileModerationCommand_NotFound(t *testing.T) {
	cmd := NewProfileModerationCommand(ModerationCommandConfig{Repository: newFakeProfileRepo()})
	err := cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: uuid.New(),
		Decision:  DecisionApprove,
		Actor:     types.ActorRef{ID: uuid.New(), Type: types.ActorRoleAdmin},
	})
	require.ErrorIs(t, err, types.ErrProfileNotFound)
}

func TestProfileModerationCommand_ForbiddenWritesNothing(t *testing.T) {
	repo := newFakeProfileRepo()
	profileID := repo.seed(&types.CandidateProfile{
		Email:  "locked@example.com",
		Status: types.StatusPtr(types.ReviewStatusPending),
	})
	cmd := NewProfileModerationCommand(ModerationCommandConfig{
		Repository: repo,
		ScopeGuard: scope.NewGuard(types.DefaultAuthorizationPolicy()),
	})

	err := cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: profileID,
		Decision:  DecisionReject,
		Actor:     types.ActorRef{ID: uuid.New(), Type: types.ActorRoleRecruiter},
	})

	require.ErrorIs(t, err, types.ErrForbidden)
	require.Zero(t, repo.patchCalls)
	require.Equal(t, types.StatePending, types.CanonicalStateOf(*repo.profiles[profileID]))
}

func TestProfileModerationCommand_Validation(t *testing.T) {
	cmd := NewProfileModerationCommand(ModerationCommandConfig{Repository: newFakeProfileRepo()})

	err := cmd.Execute(context.Background(), ProfileModerationInput{
		Decision: DecisionApprove,
		Actor:    types.ActorRef{ID: uuid.New()},
	})
	require.ErrorIs(t, err, ErrModerationProfileIDRequired)

	err = cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: uuid.New(),
		Decision:  ModerationDecision("escalate"),
		Actor:     types.ActorRef{ID: uuid.New()},
	})
	require.ErrorIs(t, err, ErrModerationDecisionInvalid)

	err = cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: uuid.New(),
		Decision:  DecisionApprove,
	})
	require.ErrorIs(t, err, ErrActorRequired)
}

func TestProfileModerationCommand_ReadbackMismatch(t *testing.T) {
	repo := newFakeProfileRepo()
	profileID := repo.seed(&types.CandidateProfile{
		Email:  "sticky@example.com",
		Status: types.StatusPtr(types.ReviewStatusPending),
	})
	// A store that silently drops the boolean writes leaves the record pending.
	repo.onPatch = func(p *types.CandidateProfile) {
		p.Approved = nil
		p.Visible = nil
	}
	cmd := NewProfileModerationCommand(ModerationCommandConfig{Repository: repo})

	err := cmd.Execute(context.Background(), ProfileModerationInput{
		ProfileID: profileID,
		Decision:  DecisionApprove,
		Actor:     types.ActorRef{ID: uuid.New(), Type: types.ActorRoleAdmin},
	})
	require.ErrorIs(t, err, ErrModerationNotConverged)
}

// fakeProfileRepo is an in-memory types.ProfileRepository with the same
// semantics as the bun store: unique normalized email, single-record writes.
type fakeProfileRepo struct {
	mu           sync.Mutex
	profiles     map[uuid.UUID]*types.CandidateProfile
	createErr    error
	lookupErr    error
	lookupMisses int
	patchErr     error
	patchCalls   int
	onPatch      func(*types.CandidateProfile)
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[uuid.UUID]*types.CandidateProfile{}}
}

func (f *fakeProfileRepo) seed(profile *types.CandidateProfile) uuid.UUID {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.Email = normalizeTestEmail(profile.Email)
	f.profiles[profile.ID] = profile
	return profile.ID
}

func (f *fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*types.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if profile, ok := f.profiles[id]; ok {
		clone := *profile
		return &clone, nil
	}
	return nil, types.ErrProfileNotFound
}

func (f *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*types.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if f.lookupMisses > 0 {
		f.lookupMisses--
		return nil, types.ErrProfileNotFound
	}
	email = normalizeTestEmail(email)
	for _, profile := range f.profiles {
		if profile.Email == email {
			clone := *profile
			return &clone, nil
		}
	}
	return nil, types.ErrProfileNotFound
}

func (f *fakeProfileRepo) Create(_ context.Context, input *types.CandidateProfile) (*types.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	email := normalizeTestEmail(input.Email)
	for _, profile := range f.profiles {
		if profile.Email == email {
			return nil, types.ErrDuplicateEmail
		}
	}
	clone := *input
	clone.Email = email
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	nowTime := time.Now().UTC()
	clone.CreatedAt = nowTime
	clone.UpdatedAt = nowTime
	f.profiles[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (f *fakeProfileRepo) ApplyPatch(_ context.Context, id uuid.UUID, patch types.ProfilePatch) (*types.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	profile, ok := f.profiles[id]
	if !ok {
		return nil, types.ErrProfileNotFound
	}
	f.patchCalls++
	if patch.SetStatus {
		profile.Status = patch.Status
	}
	if patch.SetApproved {
		profile.Approved = patch.Approved
	}
	if patch.SetVisible {
		profile.Visible = patch.Visible
	}
	if patch.DisplayName != nil {
		profile.DisplayName = *patch.DisplayName
	}
	profile.UpdatedAt = time.Now().UTC()
	if f.onPatch != nil {
		f.onPatch(profile)
	}
	clone := *profile
	return &clone, nil
}

func (f *fakeProfileRepo) List(_ context.Context, filter types.ProfileListFilter) (types.ProfilePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.CandidateProfile, 0, len(f.profiles))
	for _, profile := range f.profiles {
		out = append(out, *profile)
	}
	return types.ProfilePage{Profiles: out, Total: len(out)}, nil
}

func (f *fakeProfileRepo) DeleteByID(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[id]; !ok {
		return types.ErrProfileNotFound
	}
	delete(f.profiles, id)
	return nil
}

func normalizeTestEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type recordingActivitySink struct {
	onLog   func(types.ActivityRecord)
	records []types.ActivityRecord
	err     error
}

func (s *recordingActivitySink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	if s.onLog != nil {
		s.onLog(record)
	}
	return s.err
}

type stubFeatureGate struct {
	enabled bool
	err     error
	keys    []string
}

func (s *stubFeatureGate) Enabled(_ context.Context, key string, _ ...featuregate.ResolveOption) (bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return false, s.err
	}
	return s.enabled, nil
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }
