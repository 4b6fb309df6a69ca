package reconcile

import (
	"context"
	"sync"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/scope"
	"github.com/google/uuid"
)

const (
	defaultPageSize    = 200
	defaultConcurrency = 4
)

// ReconcileInput requests a reconciliation run. With ApplyCorrections false
// the engine only reports what it would change.
type ReconcileInput struct {
	ApplyCorrections bool
	Actor            types.ActorRef
	Result           *Report
}

// Type implements gocommand.Message.
func (ReconcileInput) Type() string {
	return "command.profile.reconcile"
}

// Validate implements gocommand.Message.
func (input ReconcileInput) Validate() error {
	if input.Actor.ID == uuid.Nil {
		return types.ErrActorRequired
	}
	return nil
}

// Describe returns a human readable description of the command for debugging.
func (ReconcileInput) Describe() string {
	return "candidate profile reconciliation run"
}

// Engine scans the whole profile store page by page, partitions records into
// correction buckets via the canonical normalizer, and optionally applies the
// corrective writes as independent per-record updates.
//
// There is no transaction spanning scan and write: the engine may act on a
// stale snapshot while an admin moderates mid-run. That is accepted; a
// subsequent run converges again.
type Engine struct {
	repo        types.ProfileRepository
	clock       types.Clock
	logger      types.Logger
	hooks       types.Hooks
	activity    types.ActivitySink
	guard       scope.Guard
	mask        *masker.Masker
	pageSize    int
	concurrency int
}

// EngineConfig configures the reconciliation engine.
type EngineConfig struct {
	Repository types.ProfileRepository
	Clock      types.Clock
	Logger     types.Logger
	Hooks      types.Hooks
	Activity   types.ActivitySink
	ScopeGuard scope.Guard
	Masker     *masker.Masker
	// PageSize bounds each scan page; Concurrency bounds parallel corrective
	// writes. Zero values pick the defaults.
	PageSize    int
	Concurrency int
}

// NewEngine wires the reconciliation engine.
func NewEngine(cfg EngineConfig) *Engine {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Engine{
		repo:        cfg.Repository,
		clock:       clock,
		logger:      logger,
		hooks:       cfg.Hooks,
		activity:    cfg.Activity,
		guard:       scope.Ensure(cfg.ScopeGuard),
		mask:        cfg.Masker,
		pageSize:    pageSize,
		concurrency: concurrency,
	}
}

var _ gocommand.Commander[ReconcileInput] = (*Engine)(nil)

// Execute runs one reconciliation pass.
func (e *Engine) Execute(ctx context.Context, input ReconcileInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if err := e.guard.Enforce(ctx, input.Actor, types.PolicyActionReconcileRun, uuid.Nil); err != nil {
		return err
	}

	report := Report{
		DryRun:    !input.ApplyCorrections,
		StartedAt: e.clock.Now(),
	}

	corrections, err := e.scan(ctx, &report)
	if err != nil {
		return err
	}
	sortCorrections(corrections)
	report.CorrectionsProposed = corrections

	if input.ApplyCorrections {
		e.apply(ctx, corrections, &report)
	}
	report.FinishedAt = e.clock.Now()

	e.logger.Info("reconciliation run finished",
		"scanned", report.TotalScanned,
		"visible_true_not_approved", report.VisibleTrueNotApproved,
		"visible_false_but_approved", report.VisibleFalseButApproved,
		"applied", len(report.CorrectionsApplied),
		"failed", len(report.CorrectionsFailed),
		"dry_run", report.DryRun)

	if e.activity != nil {
		_ = e.activity.Log(ctx, types.ActivityRecord{
			ActorID:    input.Actor.ID,
			Verb:       "profile.reconciliation",
			ObjectType: "candidate_profile",
			Data: map[string]any{
				"scanned":  report.TotalScanned,
				"proposed": len(report.CorrectionsProposed),
				"applied":  len(report.CorrectionsApplied),
				"failed":   len(report.CorrectionsFailed),
				"dry_run":  report.DryRun,
			},
			OccurredAt: report.FinishedAt,
		})
	}
	if e.hooks.AfterReconciliation != nil {
		e.hooks.AfterReconciliation(ctx, types.ReconciliationEvent{
			TotalScanned:       report.TotalScanned,
			CorrectionsApplied: len(report.CorrectionsApplied),
			CorrectionsFailed:  len(report.CorrectionsFailed),
			DryRun:             report.DryRun,
			OccurredAt:         report.FinishedAt,
		})
	}

	if input.Result != nil {
		*input.Result = report
	}
	return nil
}

// scan walks every page of the store and partitions records into buckets.
// Scan failures are hard errors: without a complete snapshot the report would
// be misleading.
func (e *Engine) scan(ctx context.Context, report *Report) ([]Correction, error) {
	var corrections []Correction
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := e.repo.List(ctx, types.ProfileListFilter{
			Pagination: types.Pagination{Limit: e.pageSize, Offset: offset},
		})
		if err != nil {
			return nil, err
		}
		for _, profile := range page.Profiles {
			report.TotalScanned++
			if correction, ok := e.classify(profile, report); ok {
				corrections = append(corrections, correction)
			}
		}
		if !page.HasMore || len(page.Profiles) == 0 {
			break
		}
		offset = page.NextOffset
	}
	return corrections, nil
}

// classify buckets one record. Records already carrying the status the bucket
// would force are counted consistent so an immediate re-run proposes nothing.
func (e *Engine) classify(profile types.CandidateProfile, report *Report) (Correction, bool) {
	before := snapshotOf(profile)
	visibleTrue := profile.Visible != nil && *profile.Visible
	visibleFalse := profile.Visible != nil && !*profile.Visible

	var bucket Bucket
	var target types.ReviewStatus
	switch {
	case visibleTrue && before.State != types.StateApproved:
		bucket = BucketVisibleTrueNotApproved
		target = types.ReviewStatusApproved
		report.VisibleTrueNotApproved++
	case visibleFalse && before.State == types.StateApproved &&
		!statusIs(profile.Status, types.ReviewStatusPending):
		bucket = BucketVisibleFalseButApproved
		target = types.ReviewStatusPending
		report.VisibleFalseButApproved++
	case before.State == types.StateNew || before.State == types.StatePending:
		report.Untouched++
		return Correction{}, false
	default:
		report.Consistent++
		return Correction{}, false
	}

	return Correction{
		ProfileID: profile.ID,
		Bucket:    bucket,
		Target:    target,
		Before:    before,
		Data: sanitizeData(e.mask, map[string]any{
			"email":        profile.Email,
			"display_name": profile.DisplayName,
		}),
	}, true
}

// apply issues the corrective writes with bounded concurrency. Every write is
// independent: one failure never aborts the rest. Context cancellation stops
// issuing new writes but keeps the accounting already gathered.
func (e *Engine) apply(ctx context.Context, corrections []Correction, report *Report) {
	if len(corrections) == 0 {
		return
	}
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		applied []Correction
		failed  []CorrectionFailure
	)
	sem := make(chan struct{}, e.concurrency)

	for _, correction := range corrections {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(c Correction) {
			defer wg.Done()
			defer func() { <-sem }()

			updated, err := e.repo.ApplyPatch(ctx, c.ProfileID, types.ForceStatusPatch(c.Target))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger.Error("reconciliation correction failed", err,
					"profile_id", c.ProfileID, "bucket", c.Bucket)
				failed = append(failed, CorrectionFailure{Correction: c, Err: err.Error()})
				return
			}
			c.After = snapshotOf(*updated)
			applied = append(applied, c)
		}(correction)
	}
	wg.Wait()

	sortCorrections(applied)
	sortFailures(failed)
	report.CorrectionsApplied = applied
	report.CorrectionsFailed = failed
}

func statusIs(status *types.ReviewStatus, expect types.ReviewStatus) bool {
	return status != nil && *status == expect
}
