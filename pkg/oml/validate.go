package oml

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/keboola/osiris/pkg/registry"
)

// connectionRefRe matches a well-formed symbolic connection reference
// `@family.alias` (§3 Connection Reference). It deliberately excludes
// `${` so an embedded env-var placeholder never parses as a valid ref.
var connectionRefRe = regexp.MustCompile(`^@[a-z0-9_]+\.[a-z0-9_]+$`)

// Validate runs semantic validation against reg: component
// resolution, mode support, config-schema conformance, DAG/cycle
// detection, and connection-reference well-formedness (§4.5).
// Structural errors from Parse are not re-checked here.
func Validate(p *Pipeline, reg *registry.Registry) []error {
	var errs []error

	if _, cycleErr := topologicalOrder(p); cycleErr != nil {
		errs = append(errs, cycleErr)
	}

	for i, s := range p.Steps {
		path := fmt.Sprintf("/steps/%d", i)

		spec, err := reg.Get(s.Component)
		if err != nil {
			errs = append(errs, &Error{ID: ErrIDUnknownComponent, Path: path + "/component", Message: fmt.Sprintf("component %q not found in registry", s.Component)})
			continue
		}

		if !spec.SupportsMode(s.Mode) {
			errs = append(errs, &Error{ID: ErrIDModeNotSupported, Path: path + "/mode", Message: fmt.Sprintf("component %q does not support mode %q", s.Component, s.Mode)})
		}

		if schemaErrs := validateStepConfig(spec, s, path); len(schemaErrs) > 0 {
			errs = append(errs, schemaErrs...)
		}

		if connErrs := validateConnectionRefs(s.Config, path+"/config"); len(connErrs) > 0 {
			errs = append(errs, connErrs...)
		}
	}

	return errs
}

// TopologicalOrder returns step ids in dependency order (dependencies
// before dependents), for use by the compiler's manifest writer.
func TopologicalOrder(p *Pipeline) ([]string, error) {
	order, err := topologicalOrder(p)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// topologicalOrder implements Kahn's algorithm over the step DAG.
// Ties are broken by step id so the result is deterministic, which
// the compiler's determinism contract (§4.4) requires.
func topologicalOrder(p *Pipeline) ([]string, *Error) {
	indegree := make(map[string]int, len(p.Steps))
	dependents := make(map[string][]string, len(p.Steps))

	for _, s := range p.Steps {
		if _, ok := indegree[s.ID]; !ok {
			indegree[s.ID] = 0
		}
		for _, dep := range s.DependsOn {
			indegree[s.ID]++
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		children := append([]string(nil), dependents[next]...)
		sort.Strings(children)
		for _, child := range children {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if len(order) != len(indegree) {
		var remaining []string
		for id, deg := range indegree {
			if deg > 0 {
				remaining = append(remaining, id)
			}
		}
		sort.Strings(remaining)
		return nil, &Error{
			ID:      ErrIDCycle,
			Path:    "/steps",
			Message: fmt.Sprintf("dependency cycle detected among steps: %s", strings.Join(remaining, ", ")),
		}
	}

	return order, nil
}

func validateStepConfig(spec *registry.Spec, s Step, path string) []error {
	raw, err := json.Marshal(spec.ConfigSchema)
	if err != nil {
		return []error{&Error{ID: ErrIDConfigInvalid, Path: path + "/config", Message: fmt.Sprintf("component %q has an unencodable configSchema: %v", s.Component, err)}}
	}
	compiler := jsonschema.NewCompiler()
	resourceID := s.Component + "#" + s.ID
	if err := compiler.AddResource(resourceID, strings.NewReader(string(raw))); err != nil {
		return []error{&Error{ID: ErrIDConfigInvalid, Path: path + "/config", Message: fmt.Sprintf("component %q configSchema is invalid: %v", s.Component, err)}}
	}
	schema, err := compiler.Compile(resourceID)
	if err != nil {
		return []error{&Error{ID: ErrIDConfigInvalid, Path: path + "/config", Message: fmt.Sprintf("component %q configSchema is invalid: %v", s.Component, err)}}
	}

	doc, err := toJSONAny(s.Config)
	if err != nil {
		return []error{&Error{ID: ErrIDConfigInvalid, Path: path + "/config", Message: fmt.Sprintf("step config is unencodable: %v", err)}}
	}

	if err := schema.Validate(doc); err != nil {
		return []error{&Error{ID: ErrIDConfigInvalid, Path: path + "/config", Message: err.Error()}}
	}
	return nil
}

func toJSONAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// validateConnectionRefs walks a step's config tree for `@family.alias`
// tokens and rejects any that are malformed or that embed a `${...}`
// placeholder (a secret leak attempt — §3 Connection Reference never
// carries secret values).
func validateConnectionRefs(v any, path string) []error {
	var errs []error
	var walk func(v any, path string)
	walk = func(v any, path string) {
		switch t := v.(type) {
		case string:
			if !strings.HasPrefix(t, "@") {
				return
			}
			if strings.Contains(t, "${") {
				errs = append(errs, &Error{ID: ErrIDBadConnectionRef, Path: path, Message: fmt.Sprintf("connection reference %q must not embed a ${...} placeholder", t)})
				return
			}
			if !connectionRefRe.MatchString(t) {
				errs = append(errs, &Error{ID: ErrIDBadConnectionRef, Path: path, Message: fmt.Sprintf("connection reference %q must match @family.alias", t)})
			}
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k], path+"/"+k)
			}
		case []any:
			for i, e := range t {
				walk(e, fmt.Sprintf("%s/%d", path, i))
			}
		}
	}
	walk(v, path)
	return errs
}
