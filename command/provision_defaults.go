package command

import (
	opts "github.com/goliatone/go-options"
)

// resolveProvisionAttributes layers the library-level signup defaults under
// the caller-supplied attributes, highest priority winning per key.
func resolveProvisionAttributes(defaults, attributes map[string]any) (map[string]any, error) {
	layers := make([]opts.Layer[map[string]any], 0, 2)

	systemScope := opts.NewScope("defaults", opts.ScopePrioritySystem,
		opts.WithScopeLabel("Provisioning Defaults"))
	layers = append(layers, opts.NewLayer(systemScope, clonedOrEmpty(defaults),
		opts.WithSnapshotID[map[string]any](systemScope.Name)))

	signupScope := opts.NewScope("signup", opts.ScopePriorityUser,
		opts.WithScopeLabel("Signup Attributes"))
	layers = append(layers, opts.NewLayer(signupScope, clonedOrEmpty(attributes),
		opts.WithSnapshotID[map[string]any](signupScope.Name)))

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return nil, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, err
	}
	return merged.Value, nil
}

func clonedOrEmpty(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

// applyProvisionAttributes copies well-known attribute keys onto profile
// columns; everything else rides along in metadata.
func applyProvisionAttributes(attrs map[string]any) (displayName, headline, bio string, skills []string, metadata map[string]any) {
	metadata = make(map[string]any)
	for key, value := range attrs {
		switch key {
		case "display_name":
			if s, ok := value.(string); ok {
				displayName = s
				continue
			}
		case "headline":
			if s, ok := value.(string); ok {
				headline = s
				continue
			}
		case "bio":
			if s, ok := value.(string); ok {
				bio = s
				continue
			}
		case "skills":
			switch v := value.(type) {
			case []string:
				skills = append([]string(nil), v...)
				continue
			case []any:
				for _, item := range v {
					if s, ok := item.(string); ok {
						skills = append(skills, s)
					}
				}
				continue
			}
		}
		metadata[key] = value
	}
	if len(metadata) == 0 {
		metadata = nil
	}
	return displayName, headline, bio, skills, metadata
}
