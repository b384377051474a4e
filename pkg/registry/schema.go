package registry

// specSchemaJSON is the JSON-Schema (Draft 2020-12) every component
// spec.yaml must satisfy at the basic validation level (§4.3). It is
// compiled once by this package's init (validate.go) and reused
// across Load calls.
const specSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://osiris.dev/schemas/component-spec.json",
  "type": "object",
  "required": ["name", "version", "modes", "configSchema"],
  "properties": {
    "name": {"type": "string", "minLength": 1, "pattern": "^[a-z0-9_]+\\.[a-z0-9_]+$"},
    "version": {"type": "string", "minLength": 1},
    "modes": {
      "type": "array",
      "minItems": 1,
      "items": {"enum": ["extract", "write", "discover", "transform"]}
    },
    "configSchema": {"type": "object"},
    "secrets": {
      "type": "array",
      "items": {"type": "string", "pattern": "^/"}
    },
    "redaction": {
      "type": "object",
      "properties": {
        "extras": {"type": "array", "items": {"type": "string", "pattern": "^/"}}
      }
    },
    "examples": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "config"],
        "properties": {
          "name": {"type": "string"},
          "config": {"type": "object"}
        }
      }
    },
    "llmHints": {
      "type": "object",
      "properties": {
        "inputAliases": {"type": "object"}
      }
    },
    "doctor": {
      "type": "object",
      "properties": {
        "protocol": {"enum": ["tcp", "http"]},
        "hostField": {"type": "string"},
        "portField": {"type": "string"},
        "urlField": {"type": "string"}
      }
    }
  }
}`
