package compose

import "github.com/roach88/hoc/internal/class"

// sentinel marks factories produced by NewFactory.
type sentinel struct{ name string }

// factorySentinel is created once at package init and never mutated.
var factorySentinel = &sentinel{name: "ClassFactory"}

// Factory builds instances of a base class with composed methods installed.
// Factory values must come from NewFactory; a zero Factory is not a factory.
type Factory struct {
	tag       *sentinel
	base      *class.Class
	transform Transform
}

// FactoryComposer turns a base class into a Factory.
type FactoryComposer func(base *class.Class) *Factory

// NewFactory returns a composer producing factories for t.
func NewFactory(t Transform) FactoryComposer {
	return func(base *class.Class) *Factory {
		return &Factory{
			tag:       factorySentinel,
			base:      base,
			transform: t,
		}
	}
}

// Base returns the class the factory instantiates.
func (f *Factory) Base() *class.Class {
	return f.base
}

// New constructs a fresh base instance with args, then assigns
// transform(original, name) onto it for every eligible own method of the
// base.
func (f *Factory) New(args ...any) (*class.Instance, error) {
	inst, err := f.base.New(args...)
	if err != nil {
		return nil, err
	}
	for _, m := range f.base.OwnMembers() {
		if m.Name == class.ConstructorName || m.Kind != class.KindMethod ||
			!m.Callable() || !m.Writable || !m.Configurable {
			continue
		}
		inst.Assign(m.Name, f.transform(m.Fn, m.Name))
	}
	return inst, nil
}

// IsFactory reports whether candidate is a Factory produced by NewFactory.
func IsFactory(candidate any) bool {
	f, ok := candidate.(*Factory)
	return ok && f != nil && f.tag == factorySentinel
}
