package service

import (
	"context"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-moderation/command"
	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/query"
	"github.com/goliatone/go-moderation/reconcile"
	"github.com/goliatone/go-moderation/scope"
	"github.com/google/uuid"
)

// Service is the entry point for go-moderation. It wires the profile
// repository, guard, hooks, and command/query facades supplied by the host
// application.
type Service struct {
	cfg         Config
	commands    Commands
	queries     Queries
	profileRepo types.ProfileRepository
	scopeGuard  scope.Guard
}

// Commands exposes the service command handlers.
type Commands struct {
	ProfileModeration *command.ProfileModerationCommand
	ProfileProvision  *command.ProfileProvisionCommand
	Reconcile         *reconcile.Engine
}

// Queries exposes read-model helpers.
type Queries struct {
	ModerationQueue *query.ModerationQueueQuery
	ProfileDetail   *query.ProfileDetailQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun.DB-backed repositories, hooks, feature gates, etc.).
type Config struct {
	ProfileRepository   types.ProfileRepository
	ActivitySink        types.ActivitySink
	Hooks               types.Hooks
	Clock               types.Clock
	IDGenerator         types.IDGenerator
	Logger              types.Logger
	AuthorizationPolicy types.AuthorizationPolicy
	FeatureGate         featuregate.FeatureGate
	ProvisionDefaults   map[string]any
	ReportMasker        *masker.Masker
	ReconcilePageSize   int
	ReconcileWorkers    int
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	scopeGuard := scope.Ensure(scope.NewGuard(norm.AuthorizationPolicy))

	s := &Service{
		cfg:         norm,
		profileRepo: norm.ProfileRepository,
		scopeGuard:  scopeGuard,
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = types.UUIDGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.AuthorizationPolicy == nil {
		cfg.AuthorizationPolicy = types.DefaultAuthorizationPolicy()
	}
	return cfg
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil && s.profileRepo != nil
}

// HealthCheck surfaces missing configuration to upstream transports.
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.Ready() {
		return types.ErrServiceNotReady
	}
	return nil
}

// ScopeGuard exposes the guard instance used internally so transports can
// reuse the same policy for HTTP adapters.
func (s *Service) ScopeGuard() scope.Guard {
	if s == nil {
		return scope.NopGuard()
	}
	return scope.Ensure(s.scopeGuard)
}

// ActivitySink returns the configured sink so transports can emit activity
// records for auxiliary workflows (e.g. CRUD controllers).
func (s *Service) ActivitySink() types.ActivitySink {
	if s == nil {
		return nil
	}
	return s.cfg.ActivitySink
}

// ApproveCandidate marks the profile approved and publicly visible.
func (s *Service) ApproveCandidate(ctx context.Context, actor types.ActorRef, profileID uuid.UUID) (*types.CandidateProfile, error) {
	return s.moderate(ctx, actor, profileID, command.DecisionApprove, "")
}

// RejectCandidate marks the profile rejected and hidden from listings.
func (s *Service) RejectCandidate(ctx context.Context, actor types.ActorRef, profileID uuid.UUID, reason string) (*types.CandidateProfile, error) {
	return s.moderate(ctx, actor, profileID, command.DecisionReject, reason)
}

// ReapproveCandidate undoes a prior rejection. Behaviorally idempotent with
// ApproveCandidate; the distinct verb survives in the audit trail.
func (s *Service) ReapproveCandidate(ctx context.Context, actor types.ActorRef, profileID uuid.UUID) (*types.CandidateProfile, error) {
	return s.moderate(ctx, actor, profileID, command.DecisionReapprove, "")
}

func (s *Service) moderate(ctx context.Context, actor types.ActorRef, profileID uuid.UUID, decision command.ModerationDecision, reason string) (*types.CandidateProfile, error) {
	result := &command.ProfileModerationResult{}
	err := s.commands.ProfileModeration.Execute(ctx, command.ProfileModerationInput{
		ProfileID: profileID,
		Decision:  decision,
		Actor:     actor,
		Reason:    reason,
		Result:    result,
	})
	if err != nil {
		return nil, err
	}
	return result.Profile, nil
}

// ProvisionProfileOnSignup ensures exactly one candidate profile exists for
// the email, creating it in state new when absent. Errors other than
// validation are downgraded; check command.IsProvisionSoftFailure before
// treating them as fatal.
func (s *Service) ProvisionProfileOnSignup(ctx context.Context, actor types.ActorRef, email string, attributes map[string]any) (*types.CandidateProfile, bool, error) {
	result := &command.ProfileProvisionResult{}
	err := s.commands.ProfileProvision.Execute(ctx, command.ProfileProvisionInput{
		Email:      email,
		Attributes: attributes,
		Actor:      actor,
		Result:     result,
	})
	if err != nil {
		return nil, false, err
	}
	return result.Profile, result.Created, nil
}

// RunReconciliation scans the store for contradictory records and, when apply
// is true, converges them. The returned report is the run's primary output.
func (s *Service) RunReconciliation(ctx context.Context, actor types.ActorRef, apply bool) (*reconcile.Report, error) {
	report := &reconcile.Report{}
	err := s.commands.Reconcile.Execute(ctx, reconcile.ReconcileInput{
		ApplyCorrections: apply,
		Actor:            actor,
		Result:           report,
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) buildCommands() Commands {
	return Commands{
		ProfileModeration: command.NewProfileModerationCommand(command.ModerationCommandConfig{
			Repository: s.profileRepo,
			Clock:      s.cfg.Clock,
			Logger:     s.cfg.Logger,
			Hooks:      s.cfg.Hooks,
			Activity:   s.cfg.ActivitySink,
			ScopeGuard: s.scopeGuard,
		}),
		ProfileProvision: command.NewProfileProvisionCommand(command.ProvisionCommandConfig{
			Repository:  s.profileRepo,
			FeatureGate: s.cfg.FeatureGate,
			Defaults:    s.cfg.ProvisionDefaults,
			Clock:       s.cfg.Clock,
			Logger:      s.cfg.Logger,
			Hooks:       s.cfg.Hooks,
			Activity:    s.cfg.ActivitySink,
			ScopeGuard:  s.scopeGuard,
		}),
		Reconcile: reconcile.NewEngine(reconcile.EngineConfig{
			Repository:  s.profileRepo,
			Clock:       s.cfg.Clock,
			Logger:      s.cfg.Logger,
			Hooks:       s.cfg.Hooks,
			Activity:    s.cfg.ActivitySink,
			ScopeGuard:  s.scopeGuard,
			Masker:      s.cfg.ReportMasker,
			PageSize:    s.cfg.ReconcilePageSize,
			Concurrency: s.cfg.ReconcileWorkers,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	return Queries{
		ModerationQueue: query.NewModerationQueueQuery(s.profileRepo, s.cfg.Logger, s.scopeGuard),
		ProfileDetail:   query.NewProfileDetailQuery(s.profileRepo, s.scopeGuard),
	}
}
