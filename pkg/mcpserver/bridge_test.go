package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCLIScript writes a shell script that ignores its arguments,
// prints body to stdout, and exits with code. Mirrors
// pkg/mcp/transport_test.go's "echo" stand-in for a real subprocess,
// adapted to a custom exit code since run_cli_json's whole job is
// mapping that code to an ErrorFamily.
func fakeCLIScript(t *testing.T, body string, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-osiris.sh")
	script := "#!/bin/sh\ncat <<'EOF'\n" + body + "\nEOF\nexit " + strconv.Itoa(code) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRunCLIJSONSuccess(t *testing.T) {
	path := fakeCLIScript(t, `{"hello":"world"}`, 0)
	result, err := runCLIJSON(context.Background(), path, []string{"connections", "doctor"}, nil, time.Second)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, FamilyOK, result.Family)
	assert.JSONEq(t, `{"hello":"world"}`, string(result.Data))
	assert.NotEmpty(t, result.CorrelationID)
}

func TestRunCLIJSONMapsExitCodeFamily(t *testing.T) {
	path := fakeCLIScript(t, "bad input", 2)
	result, err := runCLIJSON(context.Background(), path, nil, nil, time.Second)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, FamilyConnection, result.Family)
	assert.Equal(t, 2, result.ExitCode)
}

func TestRunCLIJSONTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "slow.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nsleep 5\n"), 0o755))

	result, err := runCLIJSON(context.Background(), path, nil, nil, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, FamilyTimeout, result.Family)
	assert.Equal(t, 4, result.ExitCode)
}
