package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentsList_ListsBothFixtureComponents(t *testing.T) {
	initProject(t)

	out, err := execRoot(t, []string{"components", "list"})
	require.NoError(t, err)
	assert.Contains(t, out, "mysql.extractor")
	assert.Contains(t, out, "postgres.writer")
}

func TestComponentsShow_UnknownNameFailsValidation(t *testing.T) {
	initProject(t)

	_, err := execRoot(t, []string{"components", "show", "nope"})
	require.Error(t, err)
	assert.Equal(t, ExitValidation, ExitCode(err))
}

func TestComponentsValidate_BasicPasses(t *testing.T) {
	initProject(t)

	out, err := execRoot(t, []string{"components", "validate", "mysql.extractor"})
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestComponentsValidate_RejectsUnknownLevel(t *testing.T) {
	initProject(t)

	_, err := execRoot(t, []string{"components", "validate", "mysql.extractor", "--level", "overkill"})
	require.Error(t, err)
	assert.Equal(t, ExitValidation, ExitCode(err))
}

func TestComponentsConfigExample_NoExamplesFails(t *testing.T) {
	initProject(t)

	_, err := execRoot(t, []string{"components", "config-example", "mysql.extractor"})
	require.Error(t, err)
	assert.Equal(t, ExitValidation, ExitCode(err))
}
