package compiler

import (
	"fmt"
	"sort"

	"github.com/keboola/osiris/pkg/oml"
	"github.com/keboola/osiris/pkg/registry"
)

// CompilerVersion is embedded in every manifest's compiler_fp and
// toolchain_versions so a change in compilation logic changes every
// manifest hash, even for byte-identical OML input.
const CompilerVersion = "osiris-compiler/1"

// Options carries everything Compile needs beyond the OML bytes
// themselves.
type Options struct {
	Params           map[string]string
	Profile          string
	GeneratedAt      string // RFC3339 UTC milli, supplied by the caller via pkg/clock
	ManifestShortLen int    // defaults to 7 when zero
}

// Compile parses, validates, fingerprints, and assembles the build
// artifacts for one OML document (§4.4). It performs no filesystem
// I/O — see Write for atomic artifact-directory creation.
func Compile(omlBytes []byte, opts Options, reg *registry.Registry) (*Result, error) {
	pipeline, errs := oml.Parse(omlBytes)
	if len(errs) > 0 {
		return nil, &CompileError{Err: fmt.Errorf("%w: %v", ErrOmlInvalid, errs)}
	}

	if errs := oml.Validate(pipeline, reg); len(errs) > 0 {
		return nil, &CompileError{Err: fmt.Errorf("%w: %v", ErrOmlInvalid, errs)}
	}

	order, cycleErr := oml.TopologicalOrder(pipeline)
	if cycleErr != nil {
		return nil, &CompileError{Err: fmt.Errorf("%w: %v", ErrCycleDetected, cycleErr)}
	}

	stepConfigs := make(map[string][]byte, len(pipeline.Steps))
	manifestSteps := make([]ManifestStep, 0, len(order))
	usedComponents := make(map[string]*registry.Spec)

	for _, id := range order {
		step, _ := pipeline.StepByID(id)

		spec, err := reg.Get(step.Component)
		if err != nil {
			return nil, &CompileError{StepID: id, Err: fmt.Errorf("%w: %s", ErrComponentNotFound, step.Component)}
		}
		usedComponents[step.Component] = spec

		resolved, err := substituteParams(step.Config, opts.Params)
		if err != nil {
			return nil, &CompileError{StepID: id, Err: fmt.Errorf("%w: %v", ErrStepConfigInvalid, err)}
		}

		cfgBytes, err := canonicalJSON(resolved)
		if err != nil {
			return nil, &CompileError{StepID: id, Err: fmt.Errorf("%w: %v", ErrStepConfigInvalid, err)}
		}
		stepConfigs[id] = cfgBytes

		manifestSteps = append(manifestSteps, ManifestStep{
			ID:        step.ID,
			Component: step.Component,
			Mode:      string(step.Mode),
			DependsOn: step.DependsOn,
			CfgPath:   fmt.Sprintf("cfg/%s.json", step.ID),
		})
	}

	omlFP := sha256Hex(omlBytes)

	paramsFP, err := fingerprint(sortedParams(opts.Params))
	if err != nil {
		return nil, &CompileError{Err: err}
	}

	registryFP, err := fingerprint(registrySnapshot(usedComponents))
	if err != nil {
		return nil, &CompileError{Err: err}
	}

	compilerFP, err := fingerprint(map[string]any{"version": CompilerVersion})
	if err != nil {
		return nil, &CompileError{Err: err}
	}

	manifestFP, err := fingerprint(map[string]string{
		"oml_fp":      omlFP,
		"params_fp":   paramsFP,
		"registry_fp": registryFP,
		"compiler_fp": compilerFP,
	})
	if err != nil {
		return nil, &CompileError{Err: err}
	}

	manifest := &Manifest{
		Meta: Meta{
			GeneratedAt:       opts.GeneratedAt,
			OMLVersion:        pipeline.OMLVersion,
			Profile:           opts.Profile,
			RunIDPlaceholder:  "${run_id}",
			ToolchainVersions: []string{CompilerVersion},
		},
		Pipeline: Pipeline{
			Fingerprints: Fingerprints{
				OmlFP:      omlFP,
				ParamsFP:   paramsFP,
				RegistryFP: registryFP,
				CompilerFP: compilerFP,
				ManifestFP: manifestFP,
			},
			Steps: manifestSteps,
		},
	}

	hash, err := manifestHash(manifest)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	manifest.Hash = hash

	shortLen := opts.ManifestShortLen
	if shortLen <= 0 {
		shortLen = 7
	}
	if shortLen > len(hash) {
		shortLen = len(hash)
	}
	manifest.Short = hash[:shortLen]

	manifestYAML, err := marshalManifestYAML(manifest)
	if err != nil {
		return nil, &CompileError{Err: fmt.Errorf("%w: %v", ErrWriteFailed, err)}
	}

	plan, err := buildPlan(manifestSteps)
	if err != nil {
		return nil, &CompileError{Err: fmt.Errorf("%w: %v", ErrWriteFailed, err)}
	}

	return &Result{
		Manifest:     manifest,
		ManifestYAML: manifestYAML,
		StepConfigs:  stepConfigs,
		Plan:         plan,
		Pipeline:     pipeline,
	}, nil
}

// manifestHash computes sha256(canonical(manifest)) with generated_at
// masked to the empty string, per the determinism contract (§4.4).
func manifestHash(m *Manifest) (string, error) {
	masked := *m
	masked.Meta.GeneratedAt = ""
	b, err := canonicalJSON(masked)
	if err != nil {
		return "", fmt.Errorf("canonicalizing manifest for hashing: %w", err)
	}
	return sha256Hex(b), nil
}

func sortedParams(params map[string]string) map[string]string {
	if params == nil {
		return map[string]string{}
	}
	return params
}

// registrySnapshot reduces the registry to the name+version+schema
// subset the manifest's registry_fp actually depends on, keyed
// deterministically.
func registrySnapshot(used map[string]*registry.Spec) map[string]any {
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(used))
	for _, name := range names {
		spec := used[name]
		out[name] = map[string]any{
			"version":      spec.Version,
			"configSchema": spec.ConfigSchema,
		}
	}
	return out
}
