package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, root, component, contents string) string {
	t.Helper()
	dir := filepath.Join(root, component)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const validMySQLSpec = `
name: mysql.extractor
version: "1.0.0"
modes: [extract]
configSchema:
  type: object
  required: [host, port]
  properties:
    host: {type: string}
    port: {type: integer}
    auth:
      type: object
      properties:
        password: {type: string}
secrets:
  - /auth/password
examples:
  - name: basic
    config:
      host: db.example.com
      port: 3306
      auth:
        password: "${DB_PASSWORD}"
llmHints:
  inputAliases:
    hostname: host
`

func TestLoadAndGet(t *testing.T) {
	root := t.TempDir()
	writeSpec(t, root, "mysql.extractor", validMySQLSpec)

	reg, err := Load(root)
	require.NoError(t, err)

	spec, err := reg.Get("mysql.extractor")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", spec.Version)
	assert.True(t, spec.SupportsMode(ModeExtract))
	assert.False(t, spec.SupportsMode(ModeWrite))
}

func TestGetNotFound(t *testing.T) {
	root := t.TempDir()
	reg, err := Load(root)
	require.NoError(t, err)

	_, err = reg.Get("nonexistent.component")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpecNotFound)
}

func TestListFiltersByMode(t *testing.T) {
	root := t.TempDir()
	writeSpec(t, root, "mysql.extractor", validMySQLSpec)
	writeSpec(t, root, "postgres.writer", `
name: postgres.writer
version: "1.0.0"
modes: [write]
configSchema:
  type: object
  properties:
    host: {type: string}
`)

	reg, err := Load(root)
	require.NoError(t, err)

	all := reg.List()
	assert.Len(t, all, 2)

	extractOnly := reg.List(ModeExtract)
	require.Len(t, extractOnly, 1)
	assert.Equal(t, "mysql.extractor", extractOnly[0].Name)
}

func TestLoadExcludesInvalidSpecFromGetAndList(t *testing.T) {
	root := t.TempDir()
	writeSpec(t, root, "broken.component", `
name: broken.component
version: "1.0.0"
modes: [not-a-real-mode]
configSchema:
  type: object
`)

	reg, err := Load(root)
	require.NoError(t, err)

	_, err = reg.Get("broken.component")
	require.Error(t, err)

	assert.Empty(t, reg.List())

	loadErrs := reg.LoadErrors()
	require.Contains(t, loadErrs, "broken.component")
}

func TestLoadRejectsDuplicateComponentName(t *testing.T) {
	root := t.TempDir()
	writeSpec(t, root, "dir-a", `
name: mysql.extractor
version: "1.0.0"
modes: [extract]
configSchema: {type: object}
`)
	writeSpec(t, root, "dir-b", `
name: mysql.extractor
version: "2.0.0"
modes: [extract]
configSchema: {type: object}
`)

	_, err := Load(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateComponent)
}

func TestSecretMap(t *testing.T) {
	root := t.TempDir()
	writeSpec(t, root, "mysql.extractor", validMySQLSpec)

	reg, err := Load(root)
	require.NoError(t, err)

	sm, err := reg.SecretMap("mysql.extractor")
	require.NoError(t, err)
	assert.Equal(t, []string{"/auth/password"}, sm.Secrets)
}

func TestValidateBasicCatchesBadMode(t *testing.T) {
	spec := &Spec{
		Name:    "x.y",
		Version: "1.0.0",
		Modes:   []Mode{"bogus"},
		ConfigSchema: map[string]any{
			"type": "object",
		},
	}
	errs := Validate(spec, LevelBasic)
	assert.NotEmpty(t, errs)
}

func TestValidateEnhancedChecksExamplesAgainstConfigSchema(t *testing.T) {
	spec := &Spec{
		Name:    "x.y",
		Version: "1.0.0",
		Modes:   []Mode{ModeExtract},
		ConfigSchema: map[string]any{
			"type":     "object",
			"required": []any{"host"},
			"properties": map[string]any{
				"host": map[string]any{"type": "string"},
			},
		},
		Examples: []Example{
			{Name: "missing-host", Config: map[string]any{"port": 1}},
		},
	}
	errs := Validate(spec, LevelEnhanced)
	assert.NotEmpty(t, errs)
}

func TestValidateStrictChecksSecretPointersAndAliases(t *testing.T) {
	spec := &Spec{
		Name:    "x.y",
		Version: "1.0.0",
		Modes:   []Mode{ModeExtract},
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"host": map[string]any{"type": "string"},
			},
		},
		Secrets: []string{"/nonexistent_field"},
		LLMHints: LLMHints{
			InputAliases: map[string]string{"missing": "host"},
		},
	}
	errs := Validate(spec, LevelStrict)
	assert.NotEmpty(t, errs)
}

func TestValidateStrictAllowsCommonSecretPrefixes(t *testing.T) {
	spec := &Spec{
		Name:    "x.y",
		Version: "1.0.0",
		Modes:   []Mode{ModeExtract},
		ConfigSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Secrets: []string{"/credentials/token"},
	}
	errs := Validate(spec, LevelStrict)
	assert.Empty(t, errs)
}

func TestRefreshReloadsOnMtimeChange(t *testing.T) {
	root := t.TempDir()
	path := writeSpec(t, root, "mysql.extractor", validMySQLSpec)

	reg, err := Load(root)
	require.NoError(t, err)

	spec, err := reg.Get("mysql.extractor")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", spec.Version)

	// Ensure a detectable mtime change on filesystems with coarse
	// timestamp resolution.
	future := time.Now().Add(2 * time.Second)
	updated := validMySQLSpec + "\n"
	require.NoError(t, os.WriteFile(path, []byte(`
name: mysql.extractor
version: "2.0.0"
modes: [extract]
configSchema:
  type: object
  properties:
    host: {type: string}
`), 0o644))
	require.NoError(t, os.Chtimes(path, future, future))
	_ = updated

	spec, err = reg.Get("mysql.extractor")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", spec.Version)
}
