// Package connection resolves symbolic @family.alias connection
// references against a connections.yaml file (§3 Connection
// Reference). Loading and listing never touch the environment;
// placeholder strings like "${MYSQL_PASSWORD}" are returned verbatim
// by List/Lookup so a core-process or MCP-process caller can display
// them without ever seeing a real secret. Only Resolve expands
// "${VAR}" against the process environment, and Resolve must be
// called exclusively from the CLI bridge or a driver, never from the
// core or the MCP server (§4.11 security invariant).
package connection

// Reference is a parsed "@family.alias" token (e.g. "@mysql.default").
type Reference struct {
	Family string
	Alias  string
}

// String renders the reference back to its canonical "@family.alias"
// form.
func (r Reference) String() string {
	return "@" + r.Family + "." + r.Alias
}

// Entry is one named connection as read from connections.yaml,
// config unexpanded.
type Entry struct {
	Family string
	Alias  string
	Config map[string]any
}

// file is the on-disk shape of connections.yaml: family -> alias ->
// raw config.
type file map[string]map[string]map[string]any
