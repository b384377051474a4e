package aiop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/osiris/pkg/registry"
)

func TestRedactStepConfigsAppliesSecretMapAndDenylist(t *testing.T) {
	root := t.TempDir()
	writeRegistrySpec(t, root, "mysql.extractor", `
name: mysql.extractor
version: "1.0.0"
modes: [extract]
configSchema:
  type: object
  properties:
    host: {type: string}
    auth:
      type: object
      properties:
        password: {type: string}
secrets:
  - /auth/password
`)
	reg, err := registry.Load(root)
	require.NoError(t, err)

	stepConfigs := map[string]map[string]any{
		"extract": {
			"host": "db.internal",
			"auth": map[string]any{"password": "hunter2"},
			"api_key": "top-secret-value",
		},
	}
	stepComponent := map[string]string{"extract": "mysql.extractor"}

	redacted, collected := redactStepConfigs(reg, stepComponent, stepConfigs)
	auth := redacted["extract"]["auth"].(map[string]any)
	assert.Equal(t, "[REDACTED]", auth["password"])
	assert.Equal(t, "[REDACTED]", redacted["extract"]["api_key"])
	assert.Equal(t, "db.internal", redacted["extract"]["host"])
	assert.Contains(t, collected, "hunter2")
	assert.Contains(t, collected, "top-secret-value")
}

func TestRedactStepConfigsWithoutRegistryStillAppliesDenylist(t *testing.T) {
	stepConfigs := map[string]map[string]any{
		"extract": {"password": "hunter2", "host": "db.internal"},
	}
	redacted, collected := redactStepConfigs(nil, map[string]string{}, stepConfigs)
	assert.Equal(t, "[REDACTED]", redacted["extract"]["password"])
	assert.Equal(t, "db.internal", redacted["extract"]["host"])
	assert.Contains(t, collected, "hunter2")
}

func writeRegistrySpec(t *testing.T, root, component, contents string) {
	t.Helper()
	dir := filepath.Join(root, component)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.yaml"), []byte(contents), 0o644))
}
