package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/hoc/internal/harness"
)

// copyScenarios copies the testdata specs and scenarios into a temp dir
// so golden files can be written.
func copyScenarios(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"specs", "scenarios"} {
		src := filepath.Join("testdata", dir)
		entries, err := os.ReadDir(src)
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := os.ReadFile(filepath.Join(src, e.Name()))
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(filepath.Join(root, dir, e.Name()), data, 0o644))
		}
	}
	return filepath.Join(root, "scenarios")
}

func TestTestCommand_Pass(t *testing.T) {
	defer goleak.VerifyNone(t)

	out, err := execute(t, "test", testScenariosDir, "--parallel", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ greeter [4 strategies]")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_JSON(t *testing.T) {
	out, err := execute(t, "test", testScenariosDir, "--format", "json")
	require.NoError(t, err)

	var result harness.SuiteResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "greeter", result.Scenarios[0].Name)
	assert.Len(t, result.Scenarios[0].Strategies, 4)
}

func TestTestCommand_UpdateThenMatch(t *testing.T) {
	dir := copyScenarios(t)

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden: updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "greeter.golden"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(golden), `{"flow_token":"flow-greeter","scenario_name":"greeter"`))
	assert.Contains(t, string(golden), `"method":"Greeter.greet"`)
	assert.NotContains(t, string(golden), "doSomeCalculation")

	out, err = execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "(golden: match)")
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := copyScenarios(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "greeter.golden"), []byte("{}"), 0o644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := copyScenarios(t)
	failing := `name: failing
description: "Expects the wrong product"
specs:
  - ../specs/classes.cue
class: ComposableBase
strategy: factory
flow:
  - call: doSomeCalculation
    args: [2, 5]
    expect:
      value: 11
assertions:
  - type: call_count
    method: doSomeCalculation
    count: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failing.yaml"), []byte(failing), 0o644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "[factory] flow[0] doSomeCalculation: value mismatch")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")

	out, err = execute(t, "test", dir, "--format", "json")
	require.Error(t, err)
	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, "1 scenario(s) failed", resp.Error.Message)
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, "test", testScenariosDir, "--filter", "greet*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")

	out, err = execute(t, "test", testScenariosDir, "--filter", "cart-*")
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)

	out, err = execute(t, "test", testScenariosDir, "--filter", "[", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	resp := decodeResponse(t, out, nil)
	assert.Equal(t, ErrCodeScanError, resp.Error.Code)
}

func TestTestCommand_Empty(t *testing.T) {
	out, err := execute(t, "test", t.TempDir(), "--format", "json")
	require.NoError(t, err)
	var result harness.SuiteResult
	decodeResponse(t, out, &result)
	assert.Equal(t, 0, result.Total)
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	out, err := execute(t, "test", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
