package oml

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Parse decodes raw OML bytes into a Pipeline and runs structural
// validation (§4.5). Semantic validation (registry cross-references,
// DAG check) is a separate step — see Validate — since it requires a
// *registry.Registry the parser itself does not depend on.
func Parse(data []byte) (*Pipeline, []error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, []error{&Error{ID: ErrIDParse, Path: "/", Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}
	p.sourceBytes = data

	if errs := validateStructure(&p); len(errs) > 0 {
		return &p, errs
	}
	return &p, nil
}

var stepIDRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

func validateStructure(p *Pipeline) []error {
	var errs []error

	if len(p.Steps) == 0 {
		errs = append(errs, &Error{ID: ErrIDEmptySteps, Path: "/steps", Message: "pipeline must declare at least one step"})
		return errs
	}

	seen := make(map[string]int, len(p.Steps))
	for i, s := range p.Steps {
		path := fmt.Sprintf("/steps/%d/id", i)
		if !stepIDRe.MatchString(s.ID) {
			errs = append(errs, &Error{ID: ErrIDInvalidStepID, Path: path, Message: fmt.Sprintf("step id %q must match [a-z0-9][a-z0-9_-]{0,62}", s.ID)})
			continue
		}
		if prev, ok := seen[s.ID]; ok {
			errs = append(errs, &Error{ID: ErrIDDuplicateStepID, Path: path, Message: fmt.Sprintf("step id %q also declared at /steps/%d", s.ID, prev)})
			continue
		}
		seen[s.ID] = i
	}

	for i, s := range p.Steps {
		for j, dep := range s.DependsOn {
			if _, ok := seen[dep]; !ok {
				errs = append(errs, &Error{
					ID:      ErrIDUnknownDependsOn,
					Path:    fmt.Sprintf("/steps/%d/depends_on/%d", i, j),
					Message: fmt.Sprintf("step %q depends_on unknown step %q", s.ID, dep),
				})
			}
		}
	}

	return errs
}
