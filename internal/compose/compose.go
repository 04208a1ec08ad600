package compose

import (
	"slices"

	"github.com/roach88/hoc/internal/class"
)

// Transform returns the replacement for method, which is named name.
type Transform func(method class.Func, name string) class.Func

// ClassComposer turns a base class into a composed subtype.
type ClassComposer func(base *class.Class) *class.Class

// Constructible is satisfied by both composed classes and factories.
type Constructible interface {
	New(args ...any) (*class.Instance, error)
}

// composedName names the subtype produced for base.
func composedName(base *class.Class) string {
	return "Composed(" + base.Name() + ")"
}

// ExtendAllMethods returns a composer that declares, on a new subtype of the
// base, an override t(original, name) for every eligible own method of the
// base. Everything else is inherited unchanged.
func ExtendAllMethods(t Transform) ClassComposer {
	return func(base *class.Class) *class.Class {
		var overrides []class.Option
		for _, m := range base.OwnMembers() {
			// the constructor and accessors are never replaced, nor are
			// read-only or non-configurable methods
			if m.Name == class.ConstructorName || m.Kind != class.KindMethod ||
				!m.Callable() || !m.Writable || !m.Configurable {
				continue
			}
			overrides = append(overrides, class.WithMethod(m.Name, t(m.Fn, m.Name)))
		}
		return class.Extend(base, composedName(base), overrides...)
	}
}

// ExtendConstructor returns a composer whose subtype initializer runs the
// base initializers and then assigns t(original, name) onto the new
// instance for every eligible own method of the base. The base's methods
// are left alone and shadowed per instance.
func ExtendConstructor(t Transform) ClassComposer {
	return func(base *class.Class) *class.Class {
		return class.Extend(base, composedName(base),
			class.WithInit(func(self *class.Instance, super class.Super, args ...any) error {
				if err := super(args...); err != nil {
					return err
				}
				for _, m := range base.OwnMembers() {
					if m.Name == class.ConstructorName || m.Kind != class.KindMethod ||
						!m.Callable() || !m.Writable || !m.Configurable {
						continue
					}
					self.Assign(m.Name, t(m.Fn, m.Name))
				}
				return nil
			}),
		)
	}
}

// IsComposableMemberOf returns a predicate reporting whether a member name
// of base may be replaced by a composer.
func IsComposableMemberOf(base *class.Class) func(name string) bool {
	return func(name string) bool {
		return class.Eligible(base, name)
	}
}

// ExtendFunctionally is equivalent to ExtendAllMethods from the outside. The
// member names are filtered first with IsComposableMemberOf, then each
// survivor is transformed.
func ExtendFunctionally(t Transform) ClassComposer {
	return func(base *class.Class) *class.Class {
		names := slices.DeleteFunc(base.OwnNames(), func(name string) bool {
			return !IsComposableMemberOf(base)(name)
		})

		overrides := make([]class.Option, 0, len(names))
		for _, name := range names {
			m, _ := base.OwnMember(name)
			overrides = append(overrides, class.WithMethod(name, t(m.Fn, name)))
		}
		return class.Extend(base, composedName(base), overrides...)
	}
}
