package class

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errIllegal = errors.New("Oh no!")

// newBase mirrors the composable base used throughout the composer tests.
func newBase() *Class {
	return Define("ComposableBase",
		WithInit(func(self *Instance, super Super, args ...any) error {
			name := ""
			if len(args) > 0 {
				name, _ = args[0].(string)
			}
			self.SetField("name", name)
			return super()
		}),
		WithAccessor("Name", func(self *Instance) any {
			v, _ := self.Field("name")
			return v
		}),
		WithMethod("doSomeCalculation", func(_ *Instance, args ...any) (any, error) {
			return args[0].(int) * args[1].(int), nil
		}),
		WithMethod("doSomethingIllegal", func(*Instance, ...any) (any, error) {
			return nil, errIllegal
		}),
		WithMethod("frozen", func(*Instance, ...any) (any, error) {
			return "frozen", nil
		}, ReadOnly()),
		WithMethod("pinned", func(*Instance, ...any) (any, error) {
			return "pinned", nil
		}, NonConfigurable()),
	)
}

func TestOwnMembers_ConstructorFirstInDeclarationOrder(t *testing.T) {
	c := newBase()
	assert.Equal(t, []string{
		"constructor", "Name", "doSomeCalculation", "doSomethingIllegal", "frozen", "pinned",
	}, c.OwnNames())

	members := c.OwnMembers()
	assert.Equal(t, KindConstructor, members[0].Kind)
	assert.Equal(t, KindAccessor, members[1].Kind)
	assert.Equal(t, KindMethod, members[2].Kind)
}

func TestOwnMembers_ExcludesInherited(t *testing.T) {
	base := newBase()
	child := Extend(base, "Child", WithMethod("extra", func(*Instance, ...any) (any, error) {
		return nil, nil
	}))
	assert.Equal(t, []string{"constructor", "extra"}, child.OwnNames())
	_, ok := child.OwnMember("doSomeCalculation")
	assert.False(t, ok)
}

func TestWithMethod_RedeclareReplacesInPlace(t *testing.T) {
	c := Define("C",
		WithMethod("a", func(*Instance, ...any) (any, error) { return 1, nil }),
		WithMethod("b", func(*Instance, ...any) (any, error) { return 2, nil }),
		WithMethod("a", func(*Instance, ...any) (any, error) { return 3, nil }),
	)
	assert.Equal(t, []string{"constructor", "a", "b"}, c.OwnNames())

	inst, err := c.New()
	require.NoError(t, err)
	v, err := inst.Call("a")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestEligible(t *testing.T) {
	c := newBase()
	tests := []struct {
		name string
		want bool
	}{
		{"constructor", false},
		{"Name", false},
		{"doSomeCalculation", true},
		{"doSomethingIllegal", true},
		{"frozen", false},
		{"pinned", false},
		{"missing", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(c, tt.name))
		})
	}
}

func TestEligible_InheritedMemberIsNotOwn(t *testing.T) {
	child := Extend(newBase(), "Child")
	assert.False(t, Eligible(child, "doSomeCalculation"))
}

func TestEligible_NilFunctionIsNotCallable(t *testing.T) {
	c := Define("C", WithMethod("hollow", nil))
	assert.False(t, Eligible(c, "hollow"))
}

func TestConstructorNameIsReserved(t *testing.T) {
	fn := func(*Instance, ...any) (any, error) { return nil, nil }

	assert.PanicsWithValue(t, `class Base: "constructor" is reserved for the constructor`, func() {
		Define("Base", WithMethod(ConstructorName, fn))
	})
	assert.Panics(t, func() {
		Extend(newBase(), "Child", WithAccessor(ConstructorName, func(*Instance) any { return nil }))
	})

	c := Define("Base", WithMethod("run", fn))
	m, ok := c.OwnMember(ConstructorName)
	require.True(t, ok)
	assert.Equal(t, KindConstructor, m.Kind)
	assert.False(t, Eligible(c, ConstructorName))
}

func TestNew_RunsInitializerChain(t *testing.T) {
	base := newBase()
	var order []string
	child := Extend(base, "Child", WithInit(func(self *Instance, super Super, args ...any) error {
		order = append(order, "child")
		if err := super(args...); err != nil {
			return err
		}
		order = append(order, "after-super")
		return nil
	}))

	inst, err := child.New("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"child", "after-super"}, order)

	name, err := inst.Get("Name")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestNew_DefaultInitForwardsArguments(t *testing.T) {
	inst, err := Extend(newBase(), "Child").New("bob")
	require.NoError(t, err)

	name, err := inst.Get("Name")
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
}

func TestNew_InitializerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	c := Define("C", WithInit(func(*Instance, Super, ...any) error { return boom }))
	_, err := Extend(c, "D").New()
	assert.ErrorIs(t, err, boom)
}

func TestInstanceOf(t *testing.T) {
	base := newBase()
	child := Extend(base, "Child")
	other := Define("Other")

	inst, err := child.New()
	require.NoError(t, err)
	assert.True(t, inst.InstanceOf(child))
	assert.True(t, inst.InstanceOf(base))
	assert.False(t, inst.InstanceOf(other))
	assert.Same(t, child, inst.Class())
}

func TestCall(t *testing.T) {
	inst, err := newBase().New()
	require.NoError(t, err)

	v, err := inst.Call("doSomeCalculation", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	_, err = inst.Call("doSomethingIllegal")
	assert.ErrorIs(t, err, errIllegal)
}

func TestCall_ResolutionErrors(t *testing.T) {
	inst, err := newBase().New()
	require.NoError(t, err)

	_, err = inst.Call("missing")
	assert.True(t, IsNoSuchMethod(err))
	assert.EqualError(t, err, "NO_SUCH_METHOD: ComposableBase.missing")

	_, err = inst.Call("Name")
	assert.True(t, IsNotCallable(err))

	_, err = inst.Call("constructor")
	assert.True(t, IsNoSuchMethod(err))

	_, err = inst.Get("doSomeCalculation")
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeNoSuchAccessor, ce.Code)
}

func TestAssign_ShadowsClassChainForThatInstanceOnly(t *testing.T) {
	c := newBase()
	a, err := c.New()
	require.NoError(t, err)
	b, err := c.New()
	require.NoError(t, err)

	a.Assign("doSomeCalculation", func(*Instance, ...any) (any, error) { return -1, nil })
	assert.True(t, a.HasOwn("doSomeCalculation"))
	assert.False(t, b.HasOwn("doSomeCalculation"))

	v, err := a.Call("doSomeCalculation", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, -1, v)

	v, err = b.Call("doSomeCalculation", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestLookup_NearestClassWins(t *testing.T) {
	base := newBase()
	child := Extend(base, "Child", WithMethod("doSomeCalculation", func(*Instance, ...any) (any, error) {
		return "child", nil
	}))

	m, owner, ok := child.Lookup("doSomeCalculation")
	require.True(t, ok)
	assert.Same(t, child, owner)
	v, err := m.Fn(nil)
	require.NoError(t, err)
	assert.Equal(t, "child", v)

	_, owner, ok = child.Lookup("frozen")
	require.True(t, ok)
	assert.Same(t, base, owner)
}

func TestMemberKindString(t *testing.T) {
	assert.Equal(t, "constructor", KindConstructor.String())
	assert.Equal(t, "method", KindMethod.String())
	assert.Equal(t, "accessor", KindAccessor.String())
	assert.Equal(t, "unknown", MemberKind(42).String())
}
