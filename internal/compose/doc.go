// Package compose wraps every eligible method of a class with a Transform.
//
// A Transform receives the original method and its name and returns the
// replacement. A composer factory turns a Transform into a class composer,
// and a class composer turns a base class into a composed artifact.
// Four strategies are provided and kept distinct on purpose:
//
//   - ExtendAllMethods: a subtype whose own methods are the transformed
//     originals, filtered inline while iterating the base's members.
//   - ExtendConstructor: a subtype whose initializer installs transformed
//     methods onto each new instance as own properties.
//   - ExtendFunctionally: same result as ExtendAllMethods, expressed as
//     filter-then-apply over the base's member names using the standalone
//     IsComposableMemberOf predicate.
//   - NewFactory: a Factory that builds a base instance and installs the
//     transformed methods on it. IsFactory identifies factories built here.
//
// The composers do not validate their inputs. A nil base panics at
// composition time for every strategy except NewFactory, whose Factory
// panics on New. A panicking Transform fails at composition time for the
// two prototype strategies and at instantiation time for the two
// per-instance strategies. Apply is the validating entry point used by the
// CLI and harness.
//
// Usage:
//
//	verbose := transform.Verbose(logger)
//	Verbose := compose.ExtendAllMethods(verbose)(base)
//	inst, err := Verbose.New()
//	v, err := inst.Call("doSomeCalculation", 2, 5)
package compose
