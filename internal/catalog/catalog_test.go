package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hoc/internal/class"
	"github.com/roach88/hoc/internal/compose"
	"github.com/roach88/hoc/internal/ir"
)

func composableBase() ir.ClassSpec {
	return ir.ClassSpec{
		Name:        "ComposableBase",
		Purpose:     "demo",
		Constructor: &ir.ConstructorSpec{Fields: []string{"name"}},
		Accessors:   []ir.AccessorSpec{{Name: "Name", Field: "name"}},
		Methods: []ir.MethodSpec{
			{Name: "doSomeCalculation", Impl: ir.ImplMultiply, Writable: true, Configurable: true},
			{Name: "doSomethingIllegal", Impl: ir.ImplFail, Message: "Oh no!", Writable: true, Configurable: true},
			{Name: "frozen", Impl: ir.ImplConstant, Value: ir.IRInt(7), Configurable: true},
		},
	}
}

func TestBuild_ComposableBase(t *testing.T) {
	cat, err := Build([]ir.ClassSpec{composableBase()})
	require.NoError(t, err)

	cls, ok := cat.Class("ComposableBase")
	require.True(t, ok)
	assert.Equal(t, []string{"constructor", "Name", "doSomeCalculation", "doSomethingIllegal", "frozen"}, cls.OwnNames())

	inst, err := cls.New("testArg")
	require.NoError(t, err)

	name, err := inst.Get("Name")
	require.NoError(t, err)
	assert.Equal(t, "testArg", name)

	v, err := inst.Call("doSomeCalculation", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v)

	_, err = inst.Call("doSomethingIllegal")
	assert.EqualError(t, err, "Oh no!")

	assert.True(t, class.Eligible(cls, "doSomeCalculation"))
	assert.False(t, class.Eligible(cls, "frozen"), "read-only")
	assert.False(t, class.Eligible(cls, "Name"), "accessor")
}

func TestBuild_FailErrorIdentityAcrossStrategies(t *testing.T) {
	cat, err := Build([]ir.ClassSpec{composableBase()})
	require.NoError(t, err)
	cls, _ := cat.Class("ComposableBase")

	plain, err := cls.New()
	require.NoError(t, err)
	_, want := plain.Call("doSomethingIllegal")

	identity := func(method class.Func, _ string) class.Func { return method }
	for _, st := range compose.Strategies() {
		composed, err := compose.Apply(st, identity, cls)
		require.NoError(t, err)
		inst, err := composed.New()
		require.NoError(t, err)
		_, got := inst.Call("doSomethingIllegal")
		assert.ErrorIs(t, got, want, string(st))
	}
}

func TestBuild_ParentsFirst(t *testing.T) {
	child := ir.ClassSpec{
		Name:        "Child",
		Purpose:     "sub",
		Extends:     "ComposableBase",
		Constructor: &ir.ConstructorSpec{Fields: []string{"name", "age"}},
		Methods: []ir.MethodSpec{
			{Name: "age", Impl: ir.ImplField, Field: "age", Writable: true, Configurable: true},
		},
	}
	cat, err := Build([]ir.ClassSpec{child, composableBase()})
	require.NoError(t, err)
	assert.Equal(t, []string{"ComposableBase", "Child"}, cat.Names())

	base, _ := cat.Class("ComposableBase")
	cls, _ := cat.Class("Child")
	assert.Same(t, base, cls.Parent())

	inst, err := cls.New("ann", 30)
	require.NoError(t, err)
	assert.True(t, inst.InstanceOf(base))

	age, err := inst.Call("age")
	require.NoError(t, err)
	assert.Equal(t, 30, age)

	v, err := inst.Call("doSomeCalculation", 3, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(12), v)

	spec, ok := cat.Spec("Child")
	require.True(t, ok)
	assert.Equal(t, "ComposableBase", spec.Extends)
}

func TestBuild_Errors(t *testing.T) {
	spec := func(name, extends string) ir.ClassSpec {
		return ir.ClassSpec{Name: name, Purpose: "p", Extends: extends,
			Methods: []ir.MethodSpec{{Name: "m", Impl: ir.ImplEcho, Writable: true, Configurable: true}}}
	}
	tests := []struct {
		name  string
		specs []ir.ClassSpec
		want  error
		msg   string
	}{
		{"duplicate", []ir.ClassSpec{spec("A", ""), spec("A", "")}, ErrDuplicateClass, "A"},
		{"unknown parent", []ir.ClassSpec{spec("A", "Missing")}, ErrUnknownParent, "A extends Missing"},
		{"cycle", []ir.ClassSpec{spec("A", "B"), spec("B", "A")}, ErrInheritanceCycle, "A → B → A"},
		{"self cycle", []ir.ClassSpec{spec("A", "A")}, ErrInheritanceCycle, "A → A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.specs)
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestBuild_ReservedMemberName(t *testing.T) {
	method := composableBase()
	method.Methods[0].Name = class.ConstructorName
	_, err := Build([]ir.ClassSpec{method})
	require.ErrorIs(t, err, ErrReservedMember)
	assert.Contains(t, err.Error(), "ComposableBase.constructor")

	accessor := composableBase()
	accessor.Accessors[0].Name = class.ConstructorName
	_, err = Build([]ir.ClassSpec{accessor})
	require.ErrorIs(t, err, ErrReservedMember)
}

func TestBuild_UnknownImpl(t *testing.T) {
	bad := composableBase()
	bad.Methods[0].Impl = "divide"
	_, err := Build([]ir.ClassSpec{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown impl "divide"`)
}
