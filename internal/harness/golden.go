package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hoc/internal/ir"
)

// TraceSnapshot is the golden form of a scenario run. It omits the
// strategy, so every strategy of one scenario shares a snapshot.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	FlowToken    string       `json:"flow_token"`
	Trace        []TraceEvent `json:"trace"`
}

func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type":   event.Type,
			"method": event.Method,
			"seq":    event.Seq,
		}
		if event.Type == EventInvocation {
			eventMap["args"] = event.Args
		}
		if event.Type == EventCompletion {
			eventMap["output_case"] = event.OutputCase
			eventMap["result"] = event.Result
		}
		traceList[i] = eventMap
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"flow_token":    s.FlowToken,
		"trace":         traceList,
	}
}

// Snapshot renders a result as canonical JSON.
func Snapshot(result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		ScenarioName: result.Scenario,
		FlowToken:    result.FlowToken,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snap.toCanonicalMap())
}

// SharedSnapshot renders the snapshot every result agrees on. Results
// whose traces differ are an error naming the first diverging strategy.
func SharedSnapshot(results []*Result) ([]byte, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no results")
	}
	first, err := Snapshot(results[0])
	if err != nil {
		return nil, err
	}
	for _, r := range results[1:] {
		data, err := Snapshot(r)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(first, data) {
			return nil, fmt.Errorf("trace of strategy %s differs from strategy %s", r.Strategy, results[0].Strategy)
		}
	}
	return first, nil
}

// RunWithGolden runs every strategy of the scenario and compares the
// shared trace against testdata/golden/<scenario name>.golden. Regenerate
// with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) ([]*Result, error) {
	t.Helper()

	results, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, results); err != nil {
		return results, err
	}
	return results, nil
}

// AssertGolden compares already computed results against the golden file
// for name.
func AssertGolden(t *testing.T, name string, results []*Result) error {
	t.Helper()

	data, err := SharedSnapshot(results)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// GoldenPath returns where the CLI keeps the golden file of a scenario:
// golden/<file name>.golden next to the scenario file.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// WriteGolden stores the shared snapshot of results at path.
func WriteGolden(path string, results []*Result) error {
	data, err := SharedSnapshot(results)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether results match the golden file at path.
func CompareGolden(path string, results []*Result) (bool, error) {
	golden, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	data, err := SharedSnapshot(results)
	if err != nil {
		return false, err
	}
	return bytes.Equal(golden, data), nil
}
