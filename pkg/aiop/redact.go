package aiop

import (
	"github.com/keboola/osiris/pkg/masking"
	"github.com/keboola/osiris/pkg/registry"
)

// redactStepConfigs applies the component secret map (when a registry
// is available) plus the field-name denylist to every step's config
// (§4.9 step 2), returning the redacted configs and every original
// secret value it replaced, for the end-of-build leak scan (§4.9:
// "no secrets leave the process").
func redactStepConfigs(reg *registry.Registry, stepComponent map[string]string, stepConfigs map[string]map[string]any) (map[string]map[string]any, []string) {
	redactor := masking.New()
	redacted := make(map[string]map[string]any, len(stepConfigs))
	var secretValues []string

	for stepID, cfg := range stepConfigs {
		var pointers []string
		if reg != nil {
			if component, ok := stepComponent[stepID]; ok {
				if sm, err := reg.SecretMap(component); err == nil {
					pointers = append(append([]string{}, sm.Secrets...), sm.RedactionExtras...)
				}
			}
		}
		out, collected := redactor.RedactConfigAndCollect(cfg, pointers)
		redacted[stepID] = out
		secretValues = append(secretValues, collected...)
	}
	return redacted, secretValues
}
