package crudsvc

import (
	"net/http"

	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-moderation/command"
	"github.com/goliatone/go-moderation/crudguard"
	"github.com/goliatone/go-moderation/reconcile"
	"github.com/google/uuid"
)

type decisionPayload struct {
	ProfileID uuid.UUID      `json:"profile_id"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type reconcilePayload struct {
	Apply bool `json:"apply"`
}

// ProfileApproveAction registers POST /profiles/approve to publish a profile.
func ProfileApproveAction(service *ProfileService) crud.Action[*ProfileRecord] {
	return decisionAction(service, "approve", "/profiles/approve", command.DecisionApprove)
}

// ProfileRejectAction registers POST /profiles/reject to unlist a profile.
func ProfileRejectAction(service *ProfileService) crud.Action[*ProfileRecord] {
	return decisionAction(service, "reject", "/profiles/reject", command.DecisionReject)
}

// ProfileReapproveAction registers POST /profiles/reapprove to restore a
// previously rejected profile.
func ProfileReapproveAction(service *ProfileService) crud.Action[*ProfileRecord] {
	return decisionAction(service, "reapprove", "/profiles/reapprove", command.DecisionReapprove)
}

func decisionAction(service *ProfileService, name, path string, decision command.ModerationDecision) crud.Action[*ProfileRecord] {
	return crud.Action[*ProfileRecord]{
		Name:   name,
		Method: http.MethodPost,
		Target: crud.ActionTargetCollection,
		Path:   path,
		Handler: func(ctx crud.ActionContext[*ProfileRecord]) error {
			if service == nil || service.moderation == nil {
				return goerrors.New("moderation command missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
			}
			var payload decisionPayload
			if err := ctx.BodyParser(&payload); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid decision payload").WithCode(goerrors.CodeBadRequest)
			}
			if payload.ProfileID == uuid.Nil {
				return goerrors.New("profile_id is required", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
			}
			res, err := service.guard.Enforce(crudguard.GuardInput{
				Context:   ctx,
				Operation: crud.OpUpdate,
				TargetID:  payload.ProfileID,
			})
			if err != nil {
				return err
			}
			result := &command.ProfileModerationResult{}
			err = service.moderation.Execute(ctx.UserContext(), command.ProfileModerationInput{
				ProfileID: payload.ProfileID,
				Decision:  decision,
				Actor:     res.Actor,
				Reason:    payload.Reason,
				Metadata:  payload.Metadata,
				Result:    result,
			})
			if err != nil {
				return mapDomainError(err)
			}
			service.emit(ctx.UserContext(), res.Actor, "admin.profiles."+name, payload.ProfileID, map[string]any{
				"decision": string(decision),
				"reason":   payload.Reason,
			})
			return ctx.Status(http.StatusOK).JSON(toProfileRecord(*result.Profile, result.ToState))
		},
	}
}

// ProfileReconcileAction registers POST /profiles/reconcile to sweep the store
// for contradictory records. With apply=false the response is a dry-run report.
func ProfileReconcileAction(service *ProfileService) crud.Action[*ProfileRecord] {
	return crud.Action[*ProfileRecord]{
		Name:   "reconcile",
		Method: http.MethodPost,
		Target: crud.ActionTargetCollection,
		Path:   "/profiles/reconcile",
		Handler: func(ctx crud.ActionContext[*ProfileRecord]) error {
			if service == nil || service.reconciler == nil {
				return goerrors.New("reconciliation engine missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
			}
			var payload reconcilePayload
			if err := ctx.BodyParser(&payload); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reconcile payload").WithCode(goerrors.CodeBadRequest)
			}
			res, err := service.guard.Enforce(crudguard.GuardInput{
				Context:   ctx,
				Operation: crud.OpUpdateBatch,
			})
			if err != nil {
				return err
			}
			report := &reconcile.Report{}
			err = service.reconciler.Execute(ctx.UserContext(), reconcile.ReconcileInput{
				ApplyCorrections: payload.Apply,
				Actor:            res.Actor,
				Result:           report,
			})
			if err != nil {
				return mapDomainError(err)
			}
			service.emit(ctx.UserContext(), res.Actor, "admin.profiles.reconcile", uuid.Nil, map[string]any{
				"dry_run": !payload.Apply,
				"applied": len(report.CorrectionsApplied),
				"failed":  len(report.CorrectionsFailed),
			})
			return ctx.Status(http.StatusOK).JSON(report)
		},
	}
}
