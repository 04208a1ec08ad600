package class

// Instance is a constructed value of a Class.
type Instance struct {
	class  *Class
	fields map[string]any
	own    map[string]Func
}

// Class returns the class the instance was constructed from.
func (i *Instance) Class() *Class {
	return i.class
}

// InstanceOf reports whether the instance's class is c or a subtype of c.
func (i *Instance) InstanceOf(c *Class) bool {
	return i.class.IsSubclassOf(c)
}

// Field returns a stored field value.
func (i *Instance) Field(name string) (any, bool) {
	v, ok := i.fields[name]
	return v, ok
}

// SetField stores a field value.
func (i *Instance) SetField(name string, v any) {
	i.fields[name] = v
}

// Assign installs fn as an own property of this instance, shadowing any
// method of the same name on the class chain.
func (i *Instance) Assign(name string, fn Func) {
	i.own[name] = fn
}

// HasOwn reports whether name is an own property of the instance.
func (i *Instance) HasOwn(name string) bool {
	_, ok := i.own[name]
	return ok
}

// Method resolves name to a callable without invoking it.
func (i *Instance) Method(name string) (Func, error) {
	if fn, ok := i.own[name]; ok {
		return fn, nil
	}
	m, owner, ok := i.class.Lookup(name)
	if !ok {
		return nil, &Error{Code: ErrCodeNoSuchMethod, Class: i.class.name, Member: name}
	}
	if !m.Callable() {
		return nil, &Error{Code: ErrCodeNotCallable, Class: owner.name, Member: name}
	}
	return m.Fn, nil
}

// Call invokes the method name with args. Errors returned by the method are
// passed through untouched.
func (i *Instance) Call(name string, args ...any) (any, error) {
	fn, err := i.Method(name)
	if err != nil {
		return nil, err
	}
	return fn(i, args...)
}

// Get evaluates the accessor name.
func (i *Instance) Get(name string) (any, error) {
	m, owner, ok := i.class.Lookup(name)
	if !ok || m.Kind != KindAccessor {
		return nil, &Error{Code: ErrCodeNoSuchAccessor, Class: i.class.name, Member: name}
	}
	if m.Get == nil {
		return nil, &Error{Code: ErrCodeNotCallable, Class: owner.name, Member: name}
	}
	return m.Get(i), nil
}
