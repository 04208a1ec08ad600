package harness

import "github.com/roach88/hoc/internal/ir"

// Trace event types.
const (
	EventInvocation = "invocation"
	EventCompletion = "completion"
)

// TraceEvent is one recorded invocation or completion. Method is set on
// both; Args only on invocations; OutputCase and Result only on
// completions.
type TraceEvent struct {
	Type       string      `json:"type"`
	Method     string      `json:"method"`
	Args       ir.IRArray  `json:"args,omitempty"`
	OutputCase string      `json:"output_case,omitempty"`
	Result     ir.IRObject `json:"result,omitempty"`
	Seq        int64       `json:"seq"`
}

// Result is the outcome of running a scenario under one strategy.
type Result struct {
	Scenario  string       `json:"scenario"`
	Strategy  string       `json:"strategy"`
	FlowToken string       `json:"flow_token"`
	Pass      bool         `json:"pass"`
	Trace     []TraceEvent `json:"trace"`
	Errors    []string     `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult(scenario, strategy, flowToken string) *Result {
	return &Result{
		Scenario:  scenario,
		Strategy:  strategy,
		FlowToken: flowToken,
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Invocations returns the invocation events of the trace in order.
func (r *Result) Invocations() []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if ev.Type == EventInvocation {
			out = append(out, ev)
		}
	}
	return out
}
