// Package harness runs YAML scenarios against composed classes.
//
// A scenario names CUE class specs, the class to compose, and one
// composition strategy or "all". For each strategy the harness builds the
// class, composes it with a recording transform, constructs an instance,
// performs the flow of calls and then evaluates assertions against the
// recorded trace and the live instance.
//
// # Scenario Format
//
//	name: composable-calculation
//	description: "Calculation is wrapped once, errors pass through"
//	specs:
//	  - ../specs/composable.cue
//	class: ComposableBase
//	strategy: all
//	construct: ["ada"]
//	flow_token: flow-calc
//	flow:
//	  - call: doSomeCalculation
//	    args: [2, 5]
//	    expect: { value: 10 }
//	  - call: doSomethingIllegal
//	    args: []
//	    expect: { error: "Oh no!" }
//	assertions:
//	  - type: call_count
//	    method: doSomeCalculation
//	    count: 1
//	  - type: accessor
//	    name: Name
//	    value: ada
//
// Spec paths are relative to the scenario file.
//
// # Assertion Types
//
//   - call_count: a method was recorded exactly count times
//   - trace_contains: a method was recorded, optionally with exact args
//   - trace_order: methods were first recorded in the given order
//   - instance_of: the instance is an instance of a named class
//   - accessor: an accessor evaluates to a value
//   - independent_instances: two more instances answer a call alike and
//     each call is recorded separately
//
// Trace assertions see the trace captured right after the flow; instance
// assertions may make further calls that are not part of it.
//
// # Deterministic Testing
//
// Every strategy run gets a fresh in-memory store, a clock starting at 0
// and a fixed flow token, so the trace is byte-identical across runs and
// across strategies. RunWithGolden compares it against
// testdata/golden/<name>.golden:
//
//	go test ./internal/harness -update
package harness
