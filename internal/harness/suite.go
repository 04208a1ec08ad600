package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ScenarioOutcome is the result of one scenario file across its strategies.
type ScenarioOutcome struct {
	File       string   `json:"file"`
	Name       string   `json:"name"`
	Strategies []string `json:"strategies,omitempty"`
	Pass       bool     `json:"pass"`
	Golden     string   `json:"golden,omitempty"` // "match", "updated" or "" when absent
	Errors     []string `json:"errors,omitempty"`
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// SuiteOptions controls RunSuite.
type SuiteOptions struct {
	// Parallel bounds concurrently running scenarios. Values below 1 mean 1.
	Parallel int

	// Update rewrites golden files instead of comparing them.
	Update bool

	Options []Option
}

// Discover returns the .yaml and .yml files under dir, sorted. A non-empty
// filter is a glob matched against the file name without extension.
func Discover(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite runs each scenario file, up to opts.Parallel at a time. Every
// scenario gets its own stores. Outcomes keep the order of files.
func RunSuite(ctx context.Context, files []string, opts SuiteOptions) (*SuiteResult, error) {
	outcomes := make([]ScenarioOutcome, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Parallel, 1))
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = runScenarioFile(ctx, file, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SuiteResult{Scenarios: outcomes, Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

func runScenarioFile(ctx context.Context, file string, opts SuiteOptions) ScenarioOutcome {
	out := ScenarioOutcome{File: file, Name: filepath.Base(file)}
	fail := func(format string, args ...any) ScenarioOutcome {
		out.Pass = false
		out.Errors = append(out.Errors, fmt.Sprintf(format, args...))
		return out
	}

	scenario, err := LoadScenario(file)
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	out.Name = scenario.Name

	results, err := Run(ctx, scenario, opts.Options...)
	if err != nil {
		return fail("execution failed: %v", err)
	}

	out.Pass = true
	for _, r := range results {
		out.Strategies = append(out.Strategies, r.Strategy)
		for _, e := range r.Errors {
			out.Pass = false
			out.Errors = append(out.Errors, fmt.Sprintf("[%s] %s", r.Strategy, e))
		}
	}

	goldenPath := GoldenPath(file)
	switch {
	case opts.Update:
		if err := WriteGolden(goldenPath, results); err != nil {
			return fail("failed to update golden file: %v", err)
		}
		out.Golden = "updated"
	default:
		if _, err := os.Stat(goldenPath); os.IsNotExist(err) {
			return out
		}
		match, err := CompareGolden(goldenPath, results)
		if err != nil {
			return fail("golden comparison failed: %v", err)
		}
		if !match {
			return fail("trace does not match golden file (run with --update to regenerate)")
		}
		out.Golden = "match"
	}
	return out
}
