package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "hoc", cmd.Use)
	assert.Contains(t, cmd.Long, "four composition strategies")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"demo", "validate", "compile", "call", "test", "trace"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flag    string
		def     string
	}{
		{"compile", "output", ""},
		{"call", "strategy", "extend-all-methods"},
		{"call", "args", "[]"},
		{"call", "construct", "[]"},
		{"call", "db", ":memory:"},
		{"call", "flow", ""},
		{"test", "filter", ""},
		{"test", "parallel", "1"},
		{"test", "update", "false"},
		{"trace", "db", ""},
		{"trace", "flow", ""},
		{"trace", "method", ""},
		{"trace", "id", ""},
		{"trace", "all", "false"},
		{"demo", "strategy", "all"},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestCompileOutputShorthand(t *testing.T) {
	root := NewRootCommand()
	sub, _, err := root.Find([]string{"compile"})
	require.NoError(t, err)
	assert.Equal(t, "o", sub.Flags().Lookup("output").Shorthand)
}

func TestTraceRequiresDB(t *testing.T) {
	root := NewRootCommand()
	sub, _, err := root.Find([]string{"trace"})
	require.NoError(t, err)
	annotations := sub.Flags().Lookup("db").Annotations
	assert.Contains(t, annotations, cobra.BashCompOneRequiredFlag)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "demo", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}
