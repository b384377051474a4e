package mcpserver

import _ "embed"

// These are bundled with the binary rather than resolved from a
// contract directory: they're static catalogs shipped with a build,
// not per-run data. Grounded on the pluginmarket package's
// //go:embed builtin_catalog.json pattern for the same "ship a JSON
// catalog inside the binary" need.

//go:embed assets/oml_schema.json
var omlSchemaJSON []byte

//go:embed assets/usecases.json
var usecasesJSON []byte

//go:embed assets/guide.md
var guideMarkdown []byte
