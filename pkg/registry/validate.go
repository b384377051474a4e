package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var specSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("component-spec.json", strings.NewReader(specSchemaJSON)); err != nil {
		panic(fmt.Sprintf("registry: invalid embedded spec schema: %v", err))
	}
	schema, err := compiler.Compile("component-spec.json")
	if err != nil {
		panic(fmt.Sprintf("registry: compiling embedded spec schema: %v", err))
	}
	specSchema = schema
}

// toJSONAny round-trips a YAML-decoded value through JSON so the
// jsonschema validator sees plain map[string]interface{}/[]interface{}
// values rather than YAML-specific types.
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

// Validate runs the requested validation level against spec (§4.3).
// It always returns every violation found, not just the first.
func Validate(spec *Spec, level Level) []error {
	errs := validateBasic(spec)

	if level == LevelBasic {
		return errs
	}

	schema, schemaErrs := compileConfigSchema(spec)
	errs = append(errs, schemaErrs...)

	if schema != nil {
		for _, ex := range spec.Examples {
			doc, err := toJSONAny(ex.Config)
			if err != nil {
				errs = append(errs, fmt.Errorf("example %q: %w", ex.Name, err))
				continue
			}
			if err := schema.Validate(doc); err != nil {
				errs = append(errs, fmt.Errorf("example %q: does not validate against configSchema: %w", ex.Name, err))
			}
		}
	}

	if level == LevelEnhanced {
		return errs
	}

	errs = append(errs, validateStrict(spec)...)
	return errs
}

func validateBasic(spec *Spec) []error {
	doc, err := toJSONAny(spec)
	if err != nil {
		return []error{fmt.Errorf("encoding spec for schema validation: %w", err)}
	}
	if err := specSchema.Validate(doc); err != nil {
		return flattenMultiError(err)
	}
	return nil
}

func compileConfigSchema(spec *Spec) (*jsonschema.Schema, []error) {
	raw, err := json.Marshal(spec.ConfigSchema)
	if err != nil {
		return nil, []error{fmt.Errorf("encoding configSchema: %w", err)}
	}
	compiler := jsonschema.NewCompiler()
	resourceID := spec.Name + "/configSchema.json"
	if err := compiler.AddResource(resourceID, strings.NewReader(string(raw))); err != nil {
		return nil, []error{fmt.Errorf("configSchema is not a valid JSON Schema: %w", err)}
	}
	schema, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, []error{fmt.Errorf("configSchema is not a valid JSON Schema: %w", err)}
	}
	return schema, nil
}

// commonSecretPrefixes are the allow-listed pointer prefixes strict
// validation accepts even when they don't resolve under
// configSchema.properties (§4.3).
var commonSecretPrefixes = []string{"/auth", "/credentials", "/connection"}

func validateStrict(spec *Spec) []error {
	var errs []error

	props, _ := spec.ConfigSchema["properties"].(map[string]any)

	checkPointer := func(ptr string) error {
		if hasAllowedPrefix(ptr, commonSecretPrefixes) {
			return nil
		}
		if resolvesUnderProperties(ptr, props) {
			return nil
		}
		return fmt.Errorf("pointer %q does not resolve under configSchema.properties and is not an allow-listed prefix", ptr)
	}

	for _, ptr := range spec.Secrets {
		if err := checkPointer(ptr); err != nil {
			errs = append(errs, err)
		}
	}
	for _, ptr := range spec.Redaction.Extras {
		if err := checkPointer(ptr); err != nil {
			errs = append(errs, err)
		}
	}

	for alias := range spec.LLMHints.InputAliases {
		if props == nil {
			errs = append(errs, fmt.Errorf("llmHints.inputAliases key %q: configSchema has no properties", alias))
			continue
		}
		if _, ok := props[alias]; !ok {
			errs = append(errs, fmt.Errorf("llmHints.inputAliases key %q does not exist in configSchema.properties", alias))
		}
	}

	return errs
}

func hasAllowedPrefix(ptr string, prefixes []string) bool {
	for _, p := range prefixes {
		if ptr == p || strings.HasPrefix(ptr, p+"/") {
			return true
		}
	}
	return false
}

// resolvesUnderProperties walks a JSON Pointer (RFC 6901, already
// unescaped) against a configSchema.properties tree. Only the first
// segment is checked against declared properties; deeper segments are
// accepted once the top-level property exists, since nested schemas
// are not required to repeat "properties" at every level.
func resolvesUnderProperties(ptr string, props map[string]any) bool {
	if props == nil {
		return false
	}
	trimmed := strings.TrimPrefix(ptr, "/")
	segments := strings.Split(trimmed, "/")
	if len(segments) == 0 || segments[0] == "" {
		return false
	}
	_, ok := props[segments[0]]
	return ok
}

func flattenMultiError(err error) []error {
	var ve *jsonschema.ValidationError
	if !asValidationError(err, &ve) {
		return []error{err}
	}
	var result *multierror.Error
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			result = multierror.Append(result, fmt.Errorf("%s: %s", e.InstanceLocation, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return result.Errors
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}
