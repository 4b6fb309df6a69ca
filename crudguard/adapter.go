package crudguard

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-moderation/pkg/authctx"
	"github.com/goliatone/go-moderation/pkg/types"
	"github.com/goliatone/go-moderation/scope"
	"github.com/google/uuid"
)

const (
	textCodeGuardDenied          = "GUARD_DENIED"
	textCodeGuardEnforcementFail = "GUARD_ENFORCEMENT_FAILED"
	textCodeMissingPolicy        = "GUARD_POLICY_MISSING"
	textCodeMissingContext       = "CONTEXT_MISSING"
)

// Config drives Adapter construction.
type Config struct {
	Guard          scope.Guard
	Logger         types.Logger
	PolicyMap      map[crud.CrudOperation]types.PolicyAction
	FallbackAction types.PolicyAction
}

// Adapter turns go-crud operations into guard enforcement calls: it resolves
// the authenticated actor from the request context and maps the CRUD verb to
// a moderation PolicyAction.
type Adapter struct {
	guard          scope.Guard
	logger         types.Logger
	policyMap      map[crud.CrudOperation]types.PolicyAction
	fallbackAction types.PolicyAction
}

// GuardInput captures per-request parameters supplied by transports.
type GuardInput struct {
	Context   crud.Context
	Operation crud.CrudOperation
	TargetID  uuid.UUID
	Bypass    *BypassConfig
}

// GuardResult reports the resolved actor metadata returned by the adapter.
type GuardResult struct {
	Actor        types.ActorRef
	Operation    crud.CrudOperation
	Bypassed     bool
	BypassReason string
}

// BypassConfig explicitly allows guard skips for whitelisted routes. It must
// never be enabled by default.
type BypassConfig struct {
	Enabled bool
	Reason  string
}

// NewAdapter constructs a Guard adapter and validates the supplied config.
func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.Guard == nil {
		return nil, goerrors.New("go-moderation: scope guard is required", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeGuardEnforcementFail)
	}
	if len(cfg.PolicyMap) == 0 && cfg.FallbackAction == "" {
		return nil, goerrors.New("go-moderation: policy map or fallback action must be provided", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeMissingPolicy)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}

	return &Adapter{
		guard:          scope.Ensure(cfg.Guard),
		logger:         logger,
		policyMap:      clonePolicyMap(cfg.PolicyMap),
		fallbackAction: cfg.FallbackAction,
	}, nil
}

// Enforce resolves the actor, optionally bypasses, and finally enforces the
// guard with the mapped PolicyAction.
func (a *Adapter) Enforce(in GuardInput) (GuardResult, error) {
	if in.Context == nil {
		return GuardResult{}, goerrors.New("go-moderation: crudguard requires a context", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal).
			WithTextCode(textCodeMissingContext)
	}

	ctx := in.Context.UserContext()
	actorRef, _, err := authctx.ResolveActor(ctx)
	if err != nil {
		return GuardResult{}, err
	}

	if in.Bypass != nil && in.Bypass.Enabled {
		a.logger.Info("crudguard: bypassing guard enforcement", "operation", string(in.Operation), "reason", in.Bypass.Reason)
		return GuardResult{
			Actor:        actorRef,
			Operation:    in.Operation,
			Bypassed:     true,
			BypassReason: in.Bypass.Reason,
		}, nil
	}

	action, err := a.actionForOperation(in.Operation)
	if err != nil {
		return GuardResult{}, err
	}

	if err := a.guard.Enforce(ctx, actorRef, action, in.TargetID); err != nil {
		return GuardResult{}, wrapGuardError(err, action)
	}

	return GuardResult{
		Actor:     actorRef,
		Operation: in.Operation,
	}, nil
}

func (a *Adapter) actionForOperation(op crud.CrudOperation) (types.PolicyAction, error) {
	if act, ok := a.policyMap[op]; ok && act != "" {
		return act, nil
	}
	if a.fallbackAction != "" {
		return a.fallbackAction, nil
	}
	return "", goerrors.New(fmt.Sprintf("go-moderation: no policy action configured for %s", op), goerrors.CategoryInternal).
		WithCode(goerrors.CodeInternal).
		WithTextCode(textCodeMissingPolicy)
}

func wrapGuardError(err error, action types.PolicyAction) error {
	if errors.Is(err, types.ErrForbidden) {
		return goerrors.Wrap(err, goerrors.CategoryAuthz, "go-moderation: guard rejected the request").
			WithCode(goerrors.CodeForbidden).
			WithTextCode(textCodeGuardDenied)
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, fmt.Sprintf("go-moderation: guard failed for action %s", action)).
		WithCode(goerrors.CodeInternal).
		WithTextCode(textCodeGuardEnforcementFail)
}
