// Package record logs calls made through composed classes.
//
// A Recorder supplies a compose.Transform. Every call routed through it is
// written to the store twice: an invocation before the wrapped method runs
// and a completion after it returns. Both records carry content-addressed
// IDs and a seq from a logical clock, so a flow replayed with the same
// clock start and flow token produces byte-identical rows.
//
// Call records are keyed by the base class name, not the composed subtype,
// which keeps traces comparable across composition strategies:
//
//	rec := record.New(ctx, st, record.WithStrategy(compose.StrategyFactory))
//	composed, _ := compose.Apply(compose.StrategyFactory, rec.Transform(), base)
//	inst, _ := composed.New()
//	inst.Call("doSomeCalculation", 2, 5) // logged as ComposableBase.doSomeCalculation
package record
