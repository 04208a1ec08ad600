package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/hoc/internal/catalog"
	"github.com/roach88/hoc/internal/class"
	"github.com/roach88/hoc/internal/compiler"
	"github.com/roach88/hoc/internal/compose"
	"github.com/roach88/hoc/internal/ir"
	"github.com/roach88/hoc/internal/record"
	"github.com/roach88/hoc/internal/store"
	"github.com/roach88/hoc/internal/testutil"
)

// Harness runs one scenario under one strategy.
type Harness struct {
	store   *store.Store
	clock   *testutil.DeterministicClock
	flowGen *testutil.FixedFlowGenerator
	logger  *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger routes recorder and harness logs to l. By default they are
// discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes the scenario once per strategy it selects. An error means
// the scenario could not be executed at all; failed expectations are
// reported in the results.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) ([]*Result, error) {
	strategies, err := scenario.Strategies()
	if err != nil {
		return nil, err
	}
	results := make([]*Result, 0, len(strategies))
	for _, st := range strategies {
		res, err := RunStrategy(ctx, scenario, st, opts...)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", st, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Passed reports whether every result passed.
func Passed(results []*Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

// RunStrategy executes the scenario with a single strategy in a fresh
// in-memory store.
func RunStrategy(ctx context.Context, scenario *Scenario, strategy compose.Strategy, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:   st,
		clock:   testutil.NewDeterministicClock(),
		flowGen: testutil.NewFixedFlowGenerator(scenario.FlowToken),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	cat, err := LoadCatalog(scenario.Specs)
	if err != nil {
		return nil, err
	}
	base, ok := cat.Class(scenario.Class)
	if !ok {
		return nil, fmt.Errorf("class %q not found in specs", scenario.Class)
	}

	rec := record.New(ctx, st,
		record.WithClock(h.clock),
		record.WithFlowGenerator(h.flowGen),
		record.WithStrategy(strategy),
		record.WithClass(scenario.Class),
		record.WithLogger(h.logger),
	)
	composed, err := compose.Apply(strategy, rec.Transform(), base)
	if err != nil {
		return nil, err
	}
	inst, err := composed.New(scenario.Construct...)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", scenario.Class, err)
	}

	result := NewResult(scenario.Name, string(strategy), rec.FlowToken())
	h.executeFlow(inst, scenario.Flow, result)

	trace, err := ReadTrace(ctx, st, rec.FlowToken())
	if err != nil {
		return nil, err
	}
	result.Trace = trace

	actx := &AssertionContext{
		Ctx:       ctx,
		Store:     st,
		Catalog:   cat,
		Class:     scenario.Class,
		FlowToken: rec.FlowToken(),
		Composed:  composed,
		Instance:  inst,
		Construct: scenario.Construct,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"strategy", string(strategy),
		"pass", result.Pass,
		"events", len(result.Trace),
	)
	return result, nil
}

// LoadCatalog compiles, validates and builds the classes in specPaths.
func LoadCatalog(specPaths []string) (*catalog.Catalog, error) {
	var specs []ir.ClassSpec
	for _, path := range specPaths {
		fileSpecs, err := compiler.CompileFile(path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, fileSpecs...)
	}

	var errs []error
	for i := range specs {
		for _, verr := range compiler.Validate(&specs[i]) {
			errs = append(errs, fmt.Errorf("class %s: %w", specs[i].Name, verr))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return catalog.Build(specs)
}

// executeFlow performs each call and checks its expect clause. Failures
// are collected; the flow always runs to the end.
func (h *Harness) executeFlow(inst *class.Instance, flow []FlowStep, result *Result) {
	for i, step := range flow {
		value, err := inst.Call(step.Call, step.Args...)

		expect := step.Expect
		if expect == nil {
			expect = &ExpectClause{}
		}

		switch {
		case expect.Error != "":
			if err == nil {
				result.AddError(fmt.Sprintf("flow[%d] %s: expected error %q, got value %v", i, step.Call, expect.Error, value))
			} else if err.Error() != expect.Error {
				result.AddError(fmt.Sprintf("flow[%d] %s: expected error %q, got %q", i, step.Call, expect.Error, err.Error()))
			}
		case err != nil:
			result.AddError(fmt.Sprintf("flow[%d] %s: unexpected error: %v", i, step.Call, err))
		case expect.Value != nil:
			if diff := valueDiff(expect.Value, value); diff != "" {
				result.AddError(fmt.Sprintf("flow[%d] %s: value mismatch (-want +got):\n%s", i, step.Call, diff))
			}
		}

		h.logger.Debug("flow step completed",
			"step", i,
			"method", step.Call,
			"error", err,
		)
	}
}

// ReadTrace loads a flow from the store as trace events. Completions carry
// the method of their invocation.
func ReadTrace(ctx context.Context, st *store.Store, flowToken string) ([]TraceEvent, error) {
	events, err := st.ReadFlowEvents(ctx, flowToken)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	methods := make(map[string]string, len(events))
	trace := make([]TraceEvent, 0, len(events))
	for _, ev := range events {
		switch ev.Type {
		case store.EventInvocation:
			inv := ev.Invocation
			methods[inv.ID] = string(inv.MethodRef)
			args := inv.Args
			if args == nil {
				args = ir.IRArray{}
			}
			trace = append(trace, TraceEvent{
				Type:   EventInvocation,
				Method: string(inv.MethodRef),
				Args:   args,
				Seq:    inv.Seq,
			})
		case store.EventCompletion:
			comp := ev.Completion
			res := comp.Result
			if res == nil {
				res = ir.IRObject{}
			}
			trace = append(trace, TraceEvent{
				Type:       EventCompletion,
				Method:     methods[comp.InvocationID],
				OutputCase: comp.OutputCase,
				Result:     res,
				Seq:        comp.Seq,
			})
		}
	}
	return trace, nil
}
