package crudguard

import (
	"maps"

	"github.com/goliatone/go-crud"
	"github.com/goliatone/go-moderation/pkg/types"
)

// DefaultPolicyMap maps the standard CRUD verbs onto moderation policy
// actions: reads require profiles:read, every mutation requires
// profiles:moderate. The moderation surface has no generic write verb.
func DefaultPolicyMap() map[crud.CrudOperation]types.PolicyAction {
	return map[crud.CrudOperation]types.PolicyAction{
		crud.OpRead:        types.PolicyActionProfilesRead,
		crud.OpList:        types.PolicyActionProfilesRead,
		crud.OpCreate:      types.PolicyActionProfilesModerate,
		crud.OpCreateBatch: types.PolicyActionProfilesModerate,
		crud.OpUpdate:      types.PolicyActionProfilesModerate,
		crud.OpUpdateBatch: types.PolicyActionProfilesModerate,
		crud.OpDelete:      types.PolicyActionProfilesModerate,
		crud.OpDeleteBatch: types.PolicyActionProfilesModerate,
	}
}

func clonePolicyMap(in map[crud.CrudOperation]types.PolicyAction) map[crud.CrudOperation]types.PolicyAction {
	if len(in) == 0 {
		return nil
	}
	cp := make(map[crud.CrudOperation]types.PolicyAction, len(in))
	maps.Copy(cp, in)
	return cp
}
