package reconcile

import (
	"sync"

	"github.com/goliatone/go-masker"
)

var defaultMaskerOnce sync.Once

// DefaultMasker returns a masker configured to redact the identifying
// attributes reconciliation reports carry for each corrected record.
func DefaultMasker() *masker.Masker {
	defaultMaskerOnce.Do(func() {
		if masker.Default == nil {
			return
		}
		registerReportMaskFields(masker.Default)
	})
	return masker.Default
}

func registerReportMaskFields(mask *masker.Masker) {
	if mask == nil {
		return
	}
	mask.RegisterMaskField("email", "filled4")
	mask.RegisterMaskField("Email", "filled4")
}

func sanitizeData(mask *masker.Masker, data map[string]any) map[string]any {
	if len(data) == 0 {
		return data
	}
	if mask == nil {
		mask = DefaultMasker()
	}
	if mask == nil {
		return map[string]any{}
	}
	cloned := make(map[string]any, len(data))
	for key, value := range data {
		cloned[key] = value
	}
	masked, err := mask.Mask(cloned)
	if err != nil {
		return map[string]any{}
	}
	if out, ok := masked.(map[string]any); ok {
		return out
	}
	return map[string]any{}
}
