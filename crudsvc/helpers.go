package crudsvc

import (
	"errors"
	"strconv"
	"strings"

	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-moderation/pkg/types"
)

func queryStringSlice(ctx crud.Context, key string) []string {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func queryBool(ctx crud.Context, key string) (bool, bool) {
	raw := strings.TrimSpace(ctx.Query(key))
	if raw == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return parsed, true
}

func queryInt(ctx crud.Context, key string, def int) int {
	if value := ctx.Query(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return def
}

func parseCanonicalStates(ctx crud.Context, key string) []types.CanonicalState {
	values := queryStringSlice(ctx, key)
	if len(values) == 0 {
		return nil
	}
	states := make([]types.CanonicalState, 0, len(values))
	for _, value := range values {
		states = append(states, types.CanonicalState(strings.ToLower(value)))
	}
	return states
}

// mapDomainError translates sentinel errors from the command/query layer into
// go-errors payloads the transport can serialize with a proper status code.
func mapDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, types.ErrProfileNotFound):
		return goerrors.New("profile not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	case errors.Is(err, types.ErrForbidden):
		return goerrors.New("actor lacks the required capability", goerrors.CategoryAuthz).
			WithCode(goerrors.CodeForbidden)
	case errors.Is(err, types.ErrProfileIDRequired), errors.Is(err, types.ErrActorRequired):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid moderation request").
			WithCode(goerrors.CodeBadRequest)
	default:
		return err
	}
}
