// Package class provides the type-definition model that composers operate on.
//
// Go types cannot gain or lose methods at runtime, so a Class is an explicit
// registry: a name, an optional parent, an initializer, and an ordered list
// of own members. Each member carries the two mutability attributes the
// composers respect (Writable and Configurable).
//
// Method resolution on an Instance checks the instance's own properties
// first, then walks the class chain from the instance's class up to the
// root. This is the only dispatch rule; composed subtypes and per-instance
// overrides both rely on it.
//
// Classes are immutable once built. Instances are not safe for concurrent
// mutation (Assign, SetField) but concurrent Call on an instance that is no
// longer being mutated is fine.
package class
