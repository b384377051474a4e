package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/osiris/pkg/registry"
)

func TestConnectionsList_ShowsConfiguredConnection(t *testing.T) {
	initProject(t)

	out, err := execRoot(t, []string{"connections", "list"})
	require.NoError(t, err)
	assert.Contains(t, out, "@mysql.default")
}

func TestConnectionsDoctor_RequiresFamilyAndAlias(t *testing.T) {
	initProject(t)

	_, err := execRoot(t, []string{"connections", "doctor"})
	require.Error(t, err)
	assert.Equal(t, ExitValidation, ExitCode(err))
}

func TestConnectionsDoctor_ProbesByFamily(t *testing.T) {
	initProject(t)

	// The probe itself will fail to dial (the fixture connection points
	// at 127.0.0.1:1, where nothing listens); what this test checks is
	// that family-to-component resolution and the probe call both run,
	// rather than erroring out on a bad registry lookup.
	_, err := execRoot(t, []string{"connections", "doctor", "--family", "mysql", "--alias", "default", "--json"})
	require.NoError(t, err)
}

func TestFindSpecByFamily(t *testing.T) {
	dir := t.TempDir()
	writeComponentSpec(t, dir, "mysql.extractor", mysqlExtractorSpec)
	reg, err := registry.Load(dir + "/" + componentsDirName)
	require.NoError(t, err)

	spec, ok := findSpecByFamily(reg, "mysql")
	require.True(t, ok)
	assert.Equal(t, "mysql.extractor", spec.Name)

	_, ok = findSpecByFamily(reg, "nonexistent")
	assert.False(t, ok)
}
