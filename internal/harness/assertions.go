package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/hoc/internal/catalog"
	"github.com/roach88/hoc/internal/class"
	"github.com/roach88/hoc/internal/compose"
	"github.com/roach88/hoc/internal/ir"
	"github.com/roach88/hoc/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		n := 0
		for _, event := range e.Trace {
			if event.Type == EventInvocation {
				n++
				fmt.Fprintf(&buf, "  [%d] %s %s\n", n, event.Method, formatArgs(event.Args))
			}
		}
	}
	return buf.String()
}

// AssertionContext carries what instance assertions need beyond the trace.
type AssertionContext struct {
	Ctx       context.Context
	Store     *store.Store
	Catalog   *catalog.Catalog
	Class     string
	FlowToken string
	Composed  compose.Constructible
	Instance  *class.Instance
	Construct []any
}

// qualify turns a bare method name into a Class.method ref.
func qualify(className, method string) string {
	if strings.Contains(method, ".") {
		return method
	}
	return string(ir.NewMethodRef(className, method))
}

func assertCallCount(trace []TraceEvent, className string, a Assertion) error {
	ref := qualify(className, a.Method)
	count := 0
	for _, ev := range trace {
		if ev.Type == EventInvocation && ev.Method == ref {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertCallCount,
			Expected: fmt.Sprintf("%d calls of %s", a.Count, ref),
			Actual:   fmt.Sprintf("%d calls", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertTraceContains(trace []TraceEvent, className string, a Assertion) error {
	ref := qualify(className, a.Method)
	for _, ev := range trace {
		if ev.Type != EventInvocation || ev.Method != ref {
			continue
		}
		if a.Args == nil || valueDiff(a.Args, argsToGo(ev.Args)) == "" {
			return nil
		}
	}

	expected := ref
	if a.Args != nil {
		expected = fmt.Sprintf("%s with args %v", ref, a.Args)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks the first occurrence of each method. Other calls
// may appear in between.
func assertTraceOrder(trace []TraceEvent, className string, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if ev.Type != EventInvocation {
			continue
		}
		if _, seen := positions[ev.Method]; !seen {
			positions[ev.Method] = i + 1
		}
	}

	refs := make([]string, len(a.Methods))
	for i, m := range a.Methods {
		refs[i] = qualify(className, m)
		if positions[refs[i]] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all methods present: %v", a.Methods),
				Actual:   fmt.Sprintf("missing method: %s", refs[i]),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(refs); i++ {
		prev, curr := refs[i-1], refs[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("methods in order: %v", a.Methods),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertInstanceOf(actx *AssertionContext, a Assertion) error {
	target, ok := actx.Catalog.Class(a.Class)
	if !ok {
		return fmt.Errorf("instance_of: class %q not found in specs", a.Class)
	}
	if !actx.Instance.InstanceOf(target) {
		return &AssertionError{
			Type:     AssertInstanceOf,
			Expected: fmt.Sprintf("instance of %s", a.Class),
			Actual:   fmt.Sprintf("instance of %s", actx.Instance.Class().Name()),
		}
	}
	return nil
}

func assertAccessor(actx *AssertionContext, a Assertion) error {
	got, err := actx.Instance.Get(a.Name)
	if err != nil {
		return &AssertionError{
			Type:     AssertAccessor,
			Expected: fmt.Sprintf("accessor %s = %v", a.Name, a.Value),
			Actual:   err.Error(),
		}
	}
	if diff := valueDiff(a.Value, got); diff != "" {
		return &AssertionError{
			Type:     AssertAccessor,
			Expected: fmt.Sprintf("accessor %s = %v", a.Name, a.Value),
			Actual:   fmt.Sprintf("%v (-want +got):\n%s", got, diff),
		}
	}
	return nil
}

// assertIndependentInstances builds two more instances from the same
// composed artifact, calls the method on each and checks that they are
// distinct, agree on the result, and are each recorded once.
func assertIndependentInstances(actx *AssertionContext, a Assertion) error {
	ref := ir.MethodRef(qualify(actx.Class, a.Method))
	name := ref.Method()
	fail := func(expected, actual string) error {
		return &AssertionError{Type: AssertIndependentInstances, Expected: expected, Actual: actual}
	}

	first, err := actx.Composed.New(actx.Construct...)
	if err != nil {
		return fail("two new instances", err.Error())
	}
	second, err := actx.Composed.New(actx.Construct...)
	if err != nil {
		return fail("two new instances", err.Error())
	}
	if first == second || first == actx.Instance {
		return fail("distinct instances", "the same instance was returned twice")
	}
	if first.HasOwn(name) != second.HasOwn(name) {
		return fail(fmt.Sprintf("%s installed alike on both instances", name),
			fmt.Sprintf("own=%t and own=%t", first.HasOwn(name), second.HasOwn(name)))
	}

	before, err := actx.Store.CountCalls(actx.Ctx, actx.FlowToken, ref)
	if err != nil {
		return err
	}
	v1, err1 := first.Call(name, a.Args...)
	v2, err2 := second.Call(name, a.Args...)
	if (err1 == nil) != (err2 == nil) {
		return fail("both calls to fail or succeed alike", fmt.Sprintf("%v and %v", err1, err2))
	}
	if err1 == nil {
		if diff := valueDiff(v1, v2); diff != "" {
			return fail("equal results", diff)
		}
	}
	after, err := actx.Store.CountCalls(actx.Ctx, actx.FlowToken, ref)
	if err != nil {
		return err
	}
	if after-before != 2 {
		return fail(fmt.Sprintf("2 new recorded calls of %s", ref), fmt.Sprintf("%d", after-before))
	}
	return nil
}

// EvaluateAssertions evaluates all assertions and returns the failure
// messages. actx may be nil when only trace assertions are present.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	className := ""
	if actx != nil {
		className = actx.Class
	}

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCallCount:
			err = assertCallCount(result.Trace, className, a)
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, className, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, className, a)
		case AssertInstanceOf, AssertAccessor, AssertIndependentInstances:
			if actx == nil || actx.Instance == nil {
				err = fmt.Errorf("assertion[%d]: %s requires an instance", i, a.Type)
				break
			}
			switch a.Type {
			case AssertInstanceOf:
				err = assertInstanceOf(actx, a)
			case AssertAccessor:
				err = assertAccessor(actx, a)
			default:
				err = assertIndependentInstances(actx, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// valueDiff compares two call values in IR form so int widths and slice
// types do not matter. Returns "" when equal.
func valueDiff(want, got any) string {
	w, werr := ir.FromGo(want)
	g, gerr := ir.FromGo(got)
	if werr != nil || gerr != nil {
		return cmp.Diff(fmt.Sprint(want), fmt.Sprint(got))
	}
	return cmp.Diff(w, g)
}

func argsToGo(args ir.IRArray) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = ir.ToGo(a)
	}
	return out
}

func formatArgs(args ir.IRArray) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(ir.ToGo(a))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
