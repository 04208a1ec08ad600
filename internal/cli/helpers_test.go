package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testSpecsDir     = "testdata/specs"
	testScenariosDir = "testdata/scenarios"
)

// writeSpecs writes a single CUE file into a fresh directory and returns
// the directory.
func writeSpecs(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specs.cue"), []byte(content), 0o644))
	return dir
}

// decodeResponse decodes a JSON CLIResponse, with Data decoded into data
// when it is non-nil.
func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data), string(raw.Data))
	}
	return raw.CLIResponse
}
