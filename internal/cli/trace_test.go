package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDB records three calls in flow f1 and one in f2.
func seedDB(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "hoc.db")
	calls := [][]string{
		{"ComposableBase.doSomeCalculation", "--args", "[2, 5]", "--flow", "f1"},
		{"ComposableBase.doSomethingIllegal", "--flow", "f1"},
		{"Greeter.greet", "--construct", `["ada"]`, "--flow", "f1"},
		{"ComposableBase.doSomeCalculation", "--args", "[3, 3]", "--flow", "f2"},
	}
	for _, c := range calls {
		args := append([]string{"call", testSpecsDir}, c...)
		_, _ = execute(t, append(args, "--db", db)...)
	}
	return db
}

func TestTrace_Text(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "trace", "--db", db, "--flow", "f1")
	require.NoError(t, err)
	assert.Contains(t, out, "Trace for Flow: f1")
	assert.Contains(t, out, "[1] INV  ComposableBase.doSomeCalculation(2, 5)")
	assert.Contains(t, out, "[2] COMP ComposableBase.doSomeCalculation Success {value=10}")
	assert.Contains(t, out, "[3] INV  ComposableBase.doSomethingIllegal()")
	assert.Contains(t, out, "[4] COMP ComposableBase.doSomethingIllegal Error {error=Oh no!}")
	assert.Contains(t, out, "[5] INV  Greeter.greet()")
	assert.Contains(t, out, "[6] COMP Greeter.greet Success {value=ada}")
	assert.Contains(t, out, "Total Events: 6")
	assert.Contains(t, out, "Failed:       1")
	assert.NotContains(t, out, "Strategy:")
}

func TestTrace_Verbose(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "trace", "--db", db, "--flow", "f2", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Strategy: extend-all-methods")
	assert.Contains(t, out, "ID: ")
}

func TestTrace_JSON(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "trace", "--db", db, "--flow", "f1", "--format", "json")
	require.NoError(t, err)

	var result TraceResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "f1", result.FlowToken)
	require.Len(t, result.Timeline, 6)
	assert.Equal(t, TraceStats{
		TotalEvents: 6,
		Invocations: 3,
		Completions: 3,
		Failed:      1,
		LastSeq:     6,
	}, result.Stats)

	first := result.Timeline[0]
	assert.Equal(t, "invocation", first.Type)
	assert.Equal(t, "ComposableBase.doSomeCalculation", first.Method)
	assert.Equal(t, []any{float64(2), float64(5)}, first.Args)
	assert.Len(t, first.ID, 64)

	second := result.Timeline[1]
	assert.Equal(t, "completion", second.Type)
	assert.Equal(t, "ComposableBase.doSomeCalculation", second.Method)
	assert.Equal(t, "Success", second.OutputCase)
	assert.Equal(t, map[string]any{"value": float64(10)}, second.Result)
}

func TestTrace_MethodFilter(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "trace", "--db", db, "--flow", "f1", "--method", "Greeter.greet", "--format", "json")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Timeline, 2)
	for _, ev := range result.Timeline {
		assert.Equal(t, "Greeter.greet", ev.Method)
	}
	assert.Equal(t, 2, result.Stats.TotalEvents)
	assert.Equal(t, 3, result.Stats.Invocations)
}

func TestTrace_ListFlows(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Flows (2):\n  f1\n  f2\n", out)

	out, err = execute(t, "trace", "--db", db, "--format", "json")
	require.NoError(t, err)
	var data map[string][]string
	decodeResponse(t, out, &data)
	assert.Equal(t, []string{"f1", "f2"}, data["flows"])
}

func TestTrace_EmptyFlow(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "trace", "--db", db, "--flow", "nope")
	require.NoError(t, err)
	assert.Equal(t, "No events found for flow: nope\n", out)

	out, err = execute(t, "trace", "--db", db, "--flow", "nope", "--format", "json")
	require.NoError(t, err)
	var result TraceResult
	decodeResponse(t, out, &result)
	assert.Empty(t, result.Timeline)
	assert.NotNil(t, result.Timeline)
}

func TestTrace_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No flows recorded\n", out)
}

func TestTrace_All(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "trace", "--db", db, "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Trace for all flows")
	assert.Contains(t, out, "[1] INV  ComposableBase.doSomeCalculation(2, 5) flow=f1")
	assert.Contains(t, out, "[7] INV  ComposableBase.doSomeCalculation(3, 3) flow=f2")
	assert.Contains(t, out, "[8] COMP ComposableBase.doSomeCalculation Success {value=9}")

	out, err = execute(t, "trace", "--db", db, "--all", "--format", "json")
	require.NoError(t, err)
	var result TraceResult
	decodeResponse(t, out, &result)
	assert.Empty(t, result.FlowToken)
	require.Len(t, result.Timeline, 8)
	assert.Equal(t, "f2", result.Timeline[7].Flow)
	assert.Equal(t, TraceStats{
		TotalEvents: 8,
		Invocations: 4,
		Completions: 4,
		Failed:      1,
		LastSeq:     8,
	}, result.Stats)
}

func TestTrace_AllEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	out, err := execute(t, "trace", "--db", db, "--all")
	require.NoError(t, err)
	assert.Equal(t, "No events recorded\n", out)
}

func TestTrace_CallByID(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "trace", "--db", db, "--flow", "f2", "--format", "json")
	require.NoError(t, err)
	var flow TraceResult
	decodeResponse(t, out, &flow)
	require.Len(t, flow.Timeline, 2)

	for _, id := range []string{flow.Timeline[0].ID, flow.Timeline[1].ID} {
		out, err := execute(t, "trace", "--db", db, "--id", id, "--format", "json")
		require.NoError(t, err)
		var call TraceResult
		decodeResponse(t, out, &call)
		assert.Equal(t, "f2", call.FlowToken)
		assert.Equal(t, flow.Timeline, call.Timeline)
		assert.Equal(t, TraceStats{TotalEvents: 2, Invocations: 1, Completions: 1, LastSeq: 8}, call.Stats)
	}

	out, err = execute(t, "trace", "--db", db, "--id", flow.Timeline[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Trace for Flow: f2")
	assert.Contains(t, out, "[7] INV  ComposableBase.doSomeCalculation(3, 3)\n")
}

func TestTrace_CallByIDNotFound(t *testing.T) {
	db := seedDB(t)

	out, err := execute(t, "trace", "--db", db, "--id", "missing", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	resp := decodeResponse(t, out, nil)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestTrace_SelectorsAreExclusive(t *testing.T) {
	db := seedDB(t)

	_, err := execute(t, "trace", "--db", db, "--flow", "f1", "--all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestTrace_RequiresDB(t *testing.T) {
	_, err := execute(t, "trace", "--flow", "f1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "<nil>"},
		{int64(3), "3"},
		{"x", "x"},
		{[]any{}, "()"},
		{[]any{int64(1), "a"}, "(1, a)"},
		{map[string]any{}, "{}"},
		{map[string]any{"b": int64(2), "a": []any{true}}, "{a=(true), b=2}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}
