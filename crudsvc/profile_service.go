package crudsvc

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-moderation/command"
	"github.com/goliatone/go-moderation/crudguard"
	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/query"
	"github.com/goliatone/go-moderation/reconcile"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// ProfileRecord is the transport view of a candidate profile: the raw
// moderation fields plus the canonical classification, so admin panels never
// re-derive the precedence rules client-side.
type ProfileRecord struct {
	ID            uuid.UUID            `json:"id"`
	Email         string               `json:"email"`
	DisplayName   string               `json:"display_name,omitempty"`
	Headline      string               `json:"headline,omitempty"`
	Status        *types.ReviewStatus  `json:"status"`
	Approved      *bool                `json:"approved"`
	Visible       *bool                `json:"visible"`
	State         types.CanonicalState `json:"state"`
	Contradictory bool                 `json:"contradictory"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ProfileServiceConfig wires dependencies for the moderation queue controller.
type ProfileServiceConfig struct {
	Guard      GuardAdapter
	Queue      gocommand.Querier[query.ModerationQueueFilter, query.ModerationQueuePage]
	Detail     gocommand.Querier[query.ProfileDetailFilter, query.ProfileDetail]
	Moderation gocommand.Commander[command.ProfileModerationInput]
	Reconciler gocommand.Commander[reconcile.ReconcileInput]
}

// ProfileService provides a read-only go-crud service backed by the moderation
// queue query. Writes go through the decision actions, never the generic CRUD
// verbs, so every state change carries an actor and a verdict.
type ProfileService struct {
	guard      GuardAdapter
	queue      gocommand.Querier[query.ModerationQueueFilter, query.ModerationQueuePage]
	detail     gocommand.Querier[query.ProfileDetailFilter, query.ProfileDetail]
	moderation gocommand.Commander[command.ProfileModerationInput]
	reconciler gocommand.Commander[reconcile.ReconcileInput]
	emitter    ActivityEmitter
	logger     types.Logger
}

// NewProfileService constructs the adapter.
func NewProfileService(cfg ProfileServiceConfig, opts ...ServiceOption) *ProfileService {
	options := applyOptions(opts)
	return &ProfileService{
		guard:      cfg.Guard,
		queue:      cfg.Queue,
		detail:     cfg.Detail,
		moderation: cfg.Moderation,
		reconciler: cfg.Reconciler,
		emitter:    options.emitter,
		logger:     options.logger,
	}
}

func (s *ProfileService) Create(crud.Context, *ProfileRecord) (*ProfileRecord, error) {
	return nil, notSupported(crud.OpCreate)
}

func (s *ProfileService) CreateBatch(crud.Context, []*ProfileRecord) ([]*ProfileRecord, error) {
	return nil, notSupported(crud.OpCreateBatch)
}

func (s *ProfileService) Update(crud.Context, *ProfileRecord) (*ProfileRecord, error) {
	return nil, notSupported(crud.OpUpdate)
}

func (s *ProfileService) UpdateBatch(crud.Context, []*ProfileRecord) ([]*ProfileRecord, error) {
	return nil, notSupported(crud.OpUpdateBatch)
}

func (s *ProfileService) Delete(crud.Context, *ProfileRecord) error {
	return notSupported(crud.OpDelete)
}

func (s *ProfileService) DeleteBatch(crud.Context, []*ProfileRecord) error {
	return notSupported(crud.OpDeleteBatch)
}

func (s *ProfileService) Index(ctx crud.Context, _ []repository.SelectCriteria) ([]*ProfileRecord, int, error) {
	if s.queue == nil {
		return nil, 0, goerrors.New("moderation queue query missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpList,
	})
	if err != nil {
		return nil, 0, err
	}
	filter := query.ModerationQueueFilter{
		Actor:      res.Actor,
		Keyword:    ctx.Query("q"),
		States:     parseCanonicalStates(ctx, "state"),
		Pagination: types.Pagination{Limit: queryInt(ctx, "limit", 50), Offset: queryInt(ctx, "offset", 0)},
	}
	if contradictory, ok := queryBool(ctx, "contradictory"); ok {
		filter.Contradictory = contradictory
	}
	page, err := s.queue.Query(ctx.UserContext(), filter)
	if err != nil {
		return nil, 0, mapDomainError(err)
	}
	records := make([]*ProfileRecord, 0, len(page.Entries))
	for _, entry := range page.Entries {
		records = append(records, toProfileRecord(entry.Profile, entry.Classification))
	}
	return records, page.Total, nil
}

func (s *ProfileService) Show(ctx crud.Context, id string, _ []repository.SelectCriteria) (*ProfileRecord, error) {
	if s.detail == nil {
		return nil, goerrors.New("profile detail query missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
	}
	profileID, err := uuid.Parse(id)
	if err != nil {
		return nil, goerrors.New("invalid profile id", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
	}
	res, err := s.guard.Enforce(crudguard.GuardInput{
		Context:   ctx,
		Operation: crud.OpRead,
		TargetID:  profileID,
	})
	if err != nil {
		return nil, err
	}
	detail, err := s.detail.Query(ctx.UserContext(), query.ProfileDetailFilter{
		ProfileID: profileID,
		Actor:     res.Actor,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return toProfileRecord(detail.Profile, detail.Classification), nil
}

// emit records transport-level side effects (who hit which admin endpoint)
// through the configured emitter. Domain-level activity is logged by the
// command layer; this trail is the HTTP surface's own.
func (s *ProfileService) emit(ctx context.Context, actor types.ActorRef, verb string, profileID uuid.UUID, data map[string]any) {
	if s.emitter == nil {
		return
	}
	record := types.ActivityRecord{
		ProfileID:  profileID,
		ActorID:    actor.ID,
		Verb:       verb,
		ObjectType: "candidate_profile",
		Data:       data,
	}
	if profileID != uuid.Nil {
		record.ObjectID = profileID.String()
	}
	if err := s.emitter.Emit(ctx, record); err != nil && s.logger != nil {
		s.logger.Error("profile activity emit failed", err)
	}
}

func toProfileRecord(profile types.CandidateProfile, cls types.Classification) *ProfileRecord {
	return &ProfileRecord{
		ID:            profile.ID,
		Email:         profile.Email,
		DisplayName:   profile.DisplayName,
		Headline:      profile.Headline,
		Status:        profile.Status,
		Approved:      profile.Approved,
		Visible:       profile.Visible,
		State:         cls.State,
		Contradictory: cls.Contradictory,
		CreatedAt:     profile.CreatedAt,
		UpdatedAt:     profile.UpdatedAt,
	}
}
