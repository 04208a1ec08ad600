package class

import (
	"fmt"
	"slices"
)

// ConstructorName is the member name every class reports for its initializer.
const ConstructorName = "constructor"

// Func is the callable shape of every method. self is the receiving instance;
// args are forwarded positionally.
type Func func(self *Instance, args ...any) (any, error)

// Getter evaluates an accessor against an instance.
type Getter func(self *Instance) any

// Super runs the parent chain's initializer with the given arguments.
type Super func(args ...any) error

// Init initializes a freshly allocated instance. It must call super to run
// the parent initializers; the root class receives a no-op super.
type Init func(self *Instance, super Super, args ...any) error

// MemberKind distinguishes constructors, methods and accessors.
type MemberKind int

const (
	KindConstructor MemberKind = iota
	KindMethod
	KindAccessor
)

func (k MemberKind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindMethod:
		return "method"
	case KindAccessor:
		return "accessor"
	default:
		return "unknown"
	}
}

// Member describes one directly declared member of a class.
type Member struct {
	Name         string
	Kind         MemberKind
	Fn           Func   // KindMethod only
	Get          Getter // KindAccessor only
	Writable     bool
	Configurable bool
}

// Callable reports whether the member holds a function that can be invoked.
func (m Member) Callable() bool {
	return m.Kind == KindMethod && m.Fn != nil
}

// Class is a named, constructible type definition.
type Class struct {
	name    string
	parent  *Class
	init    Init
	members []Member
	index   map[string]int
}

// Option configures a class under construction.
type Option func(*Class)

// MethodOption adjusts the attributes of a single method.
type MethodOption func(*Member)

// ReadOnly marks a method as not writable.
func ReadOnly() MethodOption {
	return func(m *Member) { m.Writable = false }
}

// NonConfigurable marks a method as not configurable.
func NonConfigurable() MethodOption {
	return func(m *Member) { m.Configurable = false }
}

// WithInit sets the class initializer.
func WithInit(fn Init) Option {
	return func(c *Class) { c.init = fn }
}

// WithMethod declares a method. Methods are writable and configurable unless
// adjusted by opts. Declaring the same name twice replaces the earlier
// declaration in place. Declaring ConstructorName panics.
func WithMethod(name string, fn Func, opts ...MethodOption) Option {
	return func(c *Class) {
		m := Member{
			Name:         name,
			Kind:         KindMethod,
			Fn:           fn,
			Writable:     true,
			Configurable: true,
		}
		for _, opt := range opts {
			opt(&m)
		}
		c.declare(m)
	}
}

// WithAccessor declares a read-only accessor. Declaring ConstructorName
// panics.
func WithAccessor(name string, get Getter) Option {
	return func(c *Class) {
		c.declare(Member{
			Name:         name,
			Kind:         KindAccessor,
			Get:          get,
			Configurable: true,
		})
	}
}

// Define builds a root class.
func Define(name string, opts ...Option) *Class {
	return build(nil, name, opts)
}

// Extend builds a subtype of parent. Without WithInit the subtype forwards
// every constructor argument unchanged to parent.
func Extend(parent *Class, name string, opts ...Option) *Class {
	return build(parent, name, opts)
}

func build(parent *Class, name string, opts []Option) *Class {
	c := &Class{
		name:   name,
		parent: parent,
		index:  make(map[string]int),
	}
	c.declare(Member{Name: ConstructorName, Kind: KindConstructor})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Class) declare(m Member) {
	if m.Name == ConstructorName && m.Kind != KindConstructor {
		panic(fmt.Sprintf("class %s: %q is reserved for the constructor", c.name, ConstructorName))
	}
	if i, ok := c.index[m.Name]; ok {
		c.members[i] = m
		return
	}
	c.index[m.Name] = len(c.members)
	c.members = append(c.members, m)
}

// Name returns the class name.
func (c *Class) Name() string {
	return c.name
}

// Parent returns the parent class, or nil for a root class.
func (c *Class) Parent() *Class {
	return c.parent
}

// OwnMembers returns the directly declared members in declaration order,
// constructor first. Inherited members are never included.
func (c *Class) OwnMembers() []Member {
	return slices.Clone(c.members)
}

// OwnNames returns the names of OwnMembers.
func (c *Class) OwnNames() []string {
	names := make([]string, len(c.members))
	for i, m := range c.members {
		names[i] = m.Name
	}
	return names
}

// OwnMember looks up a directly declared member.
func (c *Class) OwnMember(name string) (Member, bool) {
	i, ok := c.index[name]
	if !ok {
		return Member{}, false
	}
	return c.members[i], true
}

// Lookup resolves name along the class chain, nearest class first.
func (c *Class) Lookup(name string) (Member, *Class, bool) {
	for k := c; k != nil; k = k.parent {
		if m, ok := k.OwnMember(name); ok && m.Kind != KindConstructor {
			return m, k, true
		}
	}
	return Member{}, nil, false
}

// IsSubclassOf reports whether c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.parent {
		if k == other {
			return true
		}
	}
	return false
}

// New allocates an instance and runs the initializer chain with args.
func (c *Class) New(args ...any) (*Instance, error) {
	inst := &Instance{
		class:  c,
		fields: make(map[string]any),
		own:    make(map[string]Func),
	}
	if err := c.initialize(inst, args); err != nil {
		return nil, err
	}
	return inst, nil
}

func (c *Class) initialize(inst *Instance, args []any) error {
	super := func(superArgs ...any) error {
		if c.parent == nil {
			return nil
		}
		return c.parent.initialize(inst, superArgs)
	}
	if c.init == nil {
		return super(args...)
	}
	return c.init(inst, super, args...)
}

// Eligible reports whether the own member name of c may be replaced by a
// composer: it must be a callable method, both writable and configurable,
// and not the constructor.
func Eligible(c *Class, name string) bool {
	m, ok := c.OwnMember(name)
	if !ok {
		return false
	}
	return name != ConstructorName && m.Kind != KindConstructor &&
		m.Callable() && m.Writable && m.Configurable
}
