package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureOML = `
oml_version: "1"
name: orders-pipeline
steps:
  - id: extract_orders
    component: mysql.extractor
    mode: extract
    config:
      host: db.example.com
      port: 3306
      token: "${params.extract_token}"
  - id: write_orders
    component: postgres.writer
    mode: write
    depends_on: [extract_orders]
    config:
      host: warehouse.example.com
`

const mysqlExtractorSpec = `
name: mysql.extractor
version: "1.0.0"
modes: [extract]
configSchema:
  type: object
  required: [host, port]
  properties:
    host: {type: string}
    port: {type: integer}
    token: {type: string}
doctor:
  protocol: tcp
  hostField: host
  portField: port
`

const postgresWriterSpec = `
name: postgres.writer
version: "1.0.0"
modes: [write]
configSchema:
  type: object
  required: [host]
  properties:
    host: {type: string}
`

// initProject bootstraps a project directory with "osiris init", then
// layers a component registry and connections.yaml on top so compile/
// run/connections/components commands have something real to work
// against.
func initProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })

	root := NewRootCommand()
	root.SetArgs([]string{"init"})
	require.NoError(t, root.Execute())

	writeComponentSpec(t, dir, "mysql.extractor", mysqlExtractorSpec)
	writeComponentSpec(t, dir, "postgres.writer", postgresWriterSpec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.oml.yaml"), []byte(fixtureOML), 0o644))

	// 127.0.0.1:1 refuses immediately (no listener on the reserved TCP
	// port 1), so the doctor probe in connections_test.go resolves fast
	// and deterministically instead of depending on DNS or a live host.
	connectionsYAML := "mysql:\n  default:\n    host: 127.0.0.1\n    port: 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, connectionsFileName), []byte(connectionsYAML), 0o644))

	return dir
}

func writeComponentSpec(t *testing.T, dir, component, contents string) {
	t.Helper()
	specDir := filepath.Join(dir, componentsDirName, component)
	require.NoError(t, os.MkdirAll(specDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(specDir, "spec.yaml"), []byte(contents), 0o644))
}

func execRoot(t *testing.T, args []string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}
