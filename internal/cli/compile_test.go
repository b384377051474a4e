package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommand_WritesManifest(t *testing.T) {
	initProject(t)

	out, err := execRoot(t, []string{"compile", "orders.oml.yaml", "--params", "extract_token=tok-123"})
	require.NoError(t, err)
	assert.Contains(t, out, "manifest_hash:")
	assert.Contains(t, out, "manifest:")
}

func TestCompileCommand_FailsValidationOnUnknownParam(t *testing.T) {
	initProject(t)

	_, err := execRoot(t, []string{"compile", "orders.oml.yaml"})
	require.Error(t, err)
	assert.Equal(t, ExitValidation, ExitCode(err))
}

func TestCompileCommand_FailsCompileOnMissingFile(t *testing.T) {
	initProject(t)

	_, err := execRoot(t, []string{"compile", "does-not-exist.oml.yaml"})
	require.Error(t, err)
	assert.Equal(t, ExitCompile, ExitCode(err))
}

func TestParseParams(t *testing.T) {
	m, err := parseParams([]string{"a=1", "b=two"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "two"}, m)

	_, err = parseParams([]string{"noequals"})
	assert.Error(t, err)
}
