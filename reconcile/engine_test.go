package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/scope"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEngine_VisibleTrueNotApproved(t *testing.T) {
	store := newFakeStore()
	profileID := store.seed(types.CandidateProfile{
		Email:    "listed@example.com",
		Status:   types.StatusPtr(types.ReviewStatusPending),
		Approved: types.BoolPtr(false),
		Visible:  types.BoolPtr(true),
	})
	engine := NewEngine(EngineConfig{Repository: store})

	report := runEngine(t, engine, true)

	require.Equal(t, 1, report.TotalScanned)
	require.Equal(t, 1, report.VisibleTrueNotApproved)
	require.Zero(t, report.VisibleFalseButApproved)
	require.Len(t, report.CorrectionsApplied, 1)
	require.Equal(t, types.ReviewStatusApproved, *store.profiles[profileID].Status)
}

func TestEngine_VisibleFalseButApprovedDemotesToPending(t *testing.T) {
	store := newFakeStore()
	profileID := store.seed(types.CandidateProfile{
		Email:    "hidden@example.com",
		Approved: types.BoolPtr(true),
		Visible:  types.BoolPtr(false),
	})
	engine := NewEngine(EngineConfig{Repository: store})

	report := runEngine(t, engine, true)

	require.Equal(t, 1, report.VisibleFalseButApproved)
	require.Len(t, report.CorrectionsApplied, 1)
	correction := report.CorrectionsApplied[0]
	require.Equal(t, BucketVisibleFalseButApproved, correction.Bucket)
	require.Equal(t, types.StateApproved, correction.Before.State)
	require.True(t, correction.Before.Contradictory)
	require.Equal(t, types.ReviewStatusPending, *store.profiles[profileID].Status)
}

func TestEngine_SecondRunConverges(t *testing.T) {
	store := newFakeStore()
	store.seed(types.CandidateProfile{
		Email:    "a@example.com",
		Approved: types.BoolPtr(true),
		Visible:  types.BoolPtr(false),
	})
	store.seed(types.CandidateProfile{
		Email:   "b@example.com",
		Status:  types.StatusPtr(types.ReviewStatusPending),
		Visible: types.BoolPtr(true),
	})
	store.seed(types.CandidateProfile{
		Email:    "ok@example.com",
		Approved: types.BoolPtr(true),
		Visible:  types.BoolPtr(true),
	})
	engine := NewEngine(EngineConfig{Repository: store})

	first := runEngine(t, engine, true)
	require.Len(t, first.CorrectionsApplied, 2)

	second := runEngine(t, engine, true)
	require.Empty(t, second.CorrectionsProposed)
	require.Empty(t, second.CorrectionsApplied)
	require.Equal(t, first.TotalScanned, second.TotalScanned)
}

func TestEngine_DryRunWritesNothing(t *testing.T) {
	store := newFakeStore()
	profileID := store.seed(types.CandidateProfile{
		Email:   "untouched@example.com",
		Visible: types.BoolPtr(true),
	})
	engine := NewEngine(EngineConfig{Repository: store})

	report := runEngine(t, engine, false)

	require.True(t, report.DryRun)
	require.Len(t, report.CorrectionsProposed, 1)
	require.Empty(t, report.CorrectionsApplied)
	require.Zero(t, store.patchCalls)
	require.Nil(t, store.profiles[profileID].Status)
}

func TestEngine_PartialFailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, store.seed(types.CandidateProfile{
			Email:   string(rune('a'+i)) + "@example.com",
			Visible: types.BoolPtr(true),
		}))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	store.patchErrs[ids[2]] = errors.New("row lock timeout")
	engine := NewEngine(EngineConfig{Repository: store, Concurrency: 2})

	report := runEngine(t, engine, true)

	require.Len(t, report.CorrectionsApplied, 4)
	require.Len(t, report.CorrectionsFailed, 1)
	require.True(t, report.HasFailures())
	require.Equal(t, ids[2], report.CorrectionsFailed[0].ProfileID)
	require.Contains(t, report.CorrectionsFailed[0].Err, "row lock timeout")
}

func TestEngine_ReportDeterministicOrdering(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 10; i++ {
		store.seed(types.CandidateProfile{
			Email:   string(rune('a'+i)) + "@example.com",
			Visible: types.BoolPtr(true),
		})
	}
	engine := NewEngine(EngineConfig{Repository: store, PageSize: 3, Concurrency: 4})

	report := runEngine(t, engine, true)

	require.Equal(t, 10, report.TotalScanned, "scan must cross page boundaries")
	require.Len(t, report.CorrectionsApplied, 10)
	for i := 1; i < len(report.CorrectionsApplied); i++ {
		prev := report.CorrectionsApplied[i-1].ProfileID.String()
		curr := report.CorrectionsApplied[i].ProfileID.String()
		require.Less(t, prev, curr)
	}
}

func TestEngine_ReportMasksEmail(t *testing.T) {
	store := newFakeStore()
	store.seed(types.CandidateProfile{
		Email:       "maya.reyes@example.com",
		DisplayName: "Maya Reyes",
		Visible:     types.BoolPtr(true),
	})
	engine := NewEngine(EngineConfig{Repository: store})

	report := runEngine(t, engine, false)

	require.Len(t, report.CorrectionsProposed, 1)
	data := report.CorrectionsProposed[0].Data
	require.NotEqual(t, "maya.reyes@example.com", data["email"])
	require.Equal(t, "Maya Reyes", data["display_name"])
}

func TestEngine_GuardRejectsNonAdmin(t *testing.T) {
	store := newFakeStore()
	store.seed(types.CandidateProfile{Email: "x@example.com", Visible: types.BoolPtr(true)})
	engine := NewEngine(EngineConfig{
		Repository: store,
		ScopeGuard: scope.NewGuard(types.DefaultAuthorizationPolicy()),
	})

	err := engine.Execute(context.Background(), ReconcileInput{
		ApplyCorrections: true,
		Actor:            types.ActorRef{ID: uuid.New(), Type: types.ActorRoleRecruiter},
	})

	require.ErrorIs(t, err, types.ErrForbidden)
	require.Zero(t, store.patchCalls)
}

func TestEngine_CancelledContext(t *testing.T) {
	store := newFakeStore()
	store.seed(types.CandidateProfile{Email: "x@example.com", Visible: types.BoolPtr(true)})
	engine := NewEngine(EngineConfig{Repository: store})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := engine.Execute(ctx, ReconcileInput{
		ApplyCorrections: true,
		Actor:            types.ActorRef{ID: uuid.New(), Type: types.ActorRoleAdmin},
	})

	require.ErrorIs(t, err, context.Canceled)
}

func runEngine(t *testing.T, engine *Engine, apply bool) Report {
	t.Helper()
	report := &Report{}
	err := engine.Execute(context.Background(), ReconcileInput{
		ApplyCorrections: apply,
		Actor:            types.ActorRef{ID: uuid.New(), Type: types.ActorRoleAdmin},
		Result:           report,
	})
	require.NoError(t, err)
	return *report
}

// fakeStore is a paginated in-memory profile store with per-record patch
// error injection.
type fakeStore struct {
	mu         sync.Mutex
	profiles   map[uuid.UUID]*types.CandidateProfile
	patchErrs  map[uuid.UUID]error
	patchCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:  map[uuid.UUID]*types.CandidateProfile{},
		patchErrs: map[uuid.UUID]error{},
	}
}

func (f *fakeStore) seed(profile types.CandidateProfile) uuid.UUID {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	f.profiles[profile.ID] = &profile
	return profile.ID
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*types.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if profile, ok := f.profiles[id]; ok {
		clone := *profile
		return &clone, nil
	}
	return nil, types.ErrProfileNotFound
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*types.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, profile := range f.profiles {
		if profile.Email == email {
			clone := *profile
			return &clone, nil
		}
	}
	return nil, types.ErrProfileNotFound
}

func (f *fakeStore) Create(_ context.Context, input *types.CandidateProfile) (*types.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *input
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	f.profiles[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (f *fakeStore) ApplyPatch(_ context.Context, id uuid.UUID, patch types.ProfilePatch) (*types.CandidateProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patchCalls++
	if err, ok := f.patchErrs[id]; ok {
		return nil, err
	}
	profile, ok := f.profiles[id]
	if !ok {
		return nil, types.ErrProfileNotFound
	}
	if patch.SetStatus {
		profile.Status = patch.Status
	}
	if patch.SetApproved {
		profile.Approved = patch.Approved
	}
	if patch.SetVisible {
		profile.Visible = patch.Visible
	}
	clone := *profile
	return &clone, nil
}

func (f *fakeStore) List(_ context.Context, filter types.ProfileListFilter) (types.ProfilePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]types.CandidateProfile, 0, len(f.profiles))
	for _, profile := range f.profiles {
		all = append(all, *profile)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	offset := filter.Pagination.Offset
	if offset > len(all) {
		offset = len(all)
	}
	end := len(all)
	if filter.Pagination.Limit > 0 && offset+filter.Pagination.Limit < end {
		end = offset + filter.Pagination.Limit
	}
	page := all[offset:end]
	next := offset + len(page)
	return types.ProfilePage{
		Profiles:   page,
		Total:      len(all),
		NextOffset: next,
		HasMore:    next < len(all),
	}, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.profiles, id)
	return nil
}
