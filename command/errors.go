package command

import (
	"errors"

	"github.com/goliatone/go-moderation/pkg/types"
)

var (
	// ErrModerationProfileIDRequired indicates the moderation command lacks a profile ID.
	ErrModerationProfileIDRequired = errors.New("go-moderation: moderation requires profile id")
	// ErrModerationDecisionInvalid indicates an unknown moderation decision value.
	ErrModerationDecisionInvalid = errors.New("go-moderation: unknown moderation decision")
	// ErrModerationNotConverged indicates the post-write readback did not land in
	// the expected canonical state.
	ErrModerationNotConverged = errors.New("go-moderation: moderation write did not converge")
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = types.ErrActorRequired
	// ErrProfileNotFound indicates the requested profile was not found.
	ErrProfileNotFound = types.ErrProfileNotFound
	// ErrProvisionEmailRequired occurs when the signup hook omits the email address.
	ErrProvisionEmailRequired = errors.New("go-moderation: provisioning requires email")
	// ErrProvisionDisabled indicates auto-provisioning is disabled via feature gate.
	ErrProvisionDisabled = errors.New("go-moderation: auto provisioning disabled")
)

// provisionSoftFailure wraps store errors that the signup flow must not treat
// as fatal. The record was not created, the reason is logged, and the caller
// keeps going.
type provisionSoftFailure struct {
	err error
}

func (e *provisionSoftFailure) Error() string {
	return "go-moderation: provisioning failed softly: " + e.err.Error()
}

func (e *provisionSoftFailure) Unwrap() error { return e.err }

// IsProvisionSoftFailure reports whether the error is a downgraded
// provisioning failure that signup callers should log and ignore.
func IsProvisionSoftFailure(err error) bool {
	var soft *provisionSoftFailure
	return errors.As(err, &soft)
}
