// Package catalog binds compiled class specs to runnable classes.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hoc/internal/class"
	"github.com/roach88/hoc/internal/ir"
)

var (
	// ErrDuplicateClass is returned when two specs share a name.
	ErrDuplicateClass = errors.New("duplicate class")

	// ErrUnknownParent is returned when extends names a class not in the set.
	ErrUnknownParent = errors.New("unknown parent class")

	// ErrInheritanceCycle is returned when extends chains loop.
	ErrInheritanceCycle = errors.New("inheritance cycle")

	// ErrReservedMember is returned when a spec declares a member named
	// like the constructor.
	ErrReservedMember = errors.New("reserved member name")
)

// Catalog holds classes built from specs, keyed by name.
type Catalog struct {
	classes map[string]*class.Class
	specs   map[string]*ir.ClassSpec
	order   []string
}

// Build creates a class for every spec. Parents are built before their
// subclasses regardless of input order.
func Build(specs []ir.ClassSpec) (*Catalog, error) {
	byName := make(map[string]*ir.ClassSpec, len(specs))
	for i := range specs {
		s := &specs[i]
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateClass, s.Name)
		}
		byName[s.Name] = s
	}

	cat := &Catalog{
		classes: make(map[string]*class.Class, len(specs)),
		specs:   byName,
	}

	for i := range specs {
		if _, err := cat.build(specs[i].Name, nil); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// build resolves name, building its ancestors first. path tracks the
// chain being resolved for cycle reporting.
func (c *Catalog) build(name string, path []string) (*class.Class, error) {
	if cls, ok := c.classes[name]; ok {
		return cls, nil
	}
	if slices.Contains(path, name) {
		cycle := append(path[slices.Index(path, name):], name)
		return nil, fmt.Errorf("%w: %s", ErrInheritanceCycle, strings.Join(cycle, " → "))
	}
	spec := c.specs[name]
	path = append(path, name)

	var parent *class.Class
	if spec.Extends != "" {
		if _, ok := c.specs[spec.Extends]; !ok {
			return nil, fmt.Errorf("%w: %s extends %s", ErrUnknownParent, name, spec.Extends)
		}
		var err error
		if parent, err = c.build(spec.Extends, path); err != nil {
			return nil, err
		}
	}

	opts, err := classOptions(spec)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", name, err)
	}

	var cls *class.Class
	if parent == nil {
		cls = class.Define(name, opts...)
	} else {
		cls = class.Extend(parent, name, opts...)
	}
	c.classes[name] = cls
	c.order = append(c.order, name)
	return cls, nil
}

// Class returns the built class for name.
func (c *Catalog) Class(name string) (*class.Class, bool) {
	cls, ok := c.classes[name]
	return cls, ok
}

// Spec returns the spec a class was built from.
func (c *Catalog) Spec(name string) (*ir.ClassSpec, bool) {
	s, ok := c.specs[name]
	return s, ok
}

// Names lists classes in build order: every parent precedes its subclasses.
func (c *Catalog) Names() []string {
	return slices.Clone(c.order)
}

func classOptions(spec *ir.ClassSpec) ([]class.Option, error) {
	var opts []class.Option
	if spec.Constructor != nil {
		opts = append(opts, class.WithInit(fieldInit(spec.Constructor.Fields)))
	}
	for _, acc := range spec.Accessors {
		if acc.Name == class.ConstructorName {
			return nil, fmt.Errorf("%w: %s.%s", ErrReservedMember, spec.Name, acc.Name)
		}
		opts = append(opts, class.WithAccessor(acc.Name, fieldGetter(acc.Field)))
	}
	for _, m := range spec.Methods {
		if m.Name == class.ConstructorName {
			return nil, fmt.Errorf("%w: %s.%s", ErrReservedMember, spec.Name, m.Name)
		}
		fn, err := Builtin(m)
		if err != nil {
			return nil, err
		}
		var mopts []class.MethodOption
		if !m.Writable {
			mopts = append(mopts, class.ReadOnly())
		}
		if !m.Configurable {
			mopts = append(mopts, class.NonConfigurable())
		}
		opts = append(opts, class.WithMethod(m.Name, fn, mopts...))
	}
	return opts, nil
}

// fieldInit runs the parent initializer with the same args, then stores
// positional args into fields. Missing args leave fields unset.
func fieldInit(fields []string) class.Init {
	return func(self *class.Instance, super class.Super, args ...any) error {
		if err := super(args...); err != nil {
			return err
		}
		for i, f := range fields {
			if i >= len(args) {
				break
			}
			self.SetField(f, args[i])
		}
		return nil
	}
}

func fieldGetter(field string) class.Getter {
	return func(self *class.Instance) any {
		v, _ := self.Field(field)
		return v
	}
}
