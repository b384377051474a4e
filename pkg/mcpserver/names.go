package mcpserver

import "strings"

// toolNames is the canonical ten-tool surface (§4.11).
var toolNames = map[string]bool{
	"connections_list":   true,
	"connections_doctor": true,
	"components_list":    true,
	"discovery_request":  true,
	"oml_schema_get":     true,
	"oml_validate":       true,
	"oml_save":           true,
	"guide_start":        true,
	"memory_capture":     true,
	"usecases_list":      true,
}

// NormalizeToolName resolves a dot-form or "osiris."-prefixed alias
// down to its canonical underscore name (§4.11: "dot-form aliases
// (`connections.list` -> `connections_list`, `osiris.connections.list`
// -> same) resolve to the canonical name"). Adapted from
// pkg/mcp/router.go's NormalizeToolName, which solves the same
// "caller may spell a tool name one of several ways" problem for a
// different alias shape (server__tool vs server.tool rather than a
// dotted vs underscored single name).
func NormalizeToolName(name string) string {
	if toolNames[name] {
		return name
	}
	candidate := strings.TrimPrefix(name, "osiris.")
	candidate = strings.TrimPrefix(candidate, "osiris__")
	candidate = strings.ReplaceAll(candidate, ".", "_")
	candidate = strings.ReplaceAll(candidate, "__", "_")
	return candidate
}
