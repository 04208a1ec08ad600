package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hoc/internal/class"
)

func identity(method class.Func, _ string) class.Func {
	return func(self *class.Instance, args ...any) (any, error) {
		return method(self, args...)
	}
}

func TestIsFactory(t *testing.T) {
	base := composableBase()
	tests := []struct {
		name      string
		candidate any
		want      bool
	}{
		{"factory", NewFactory(identity)(base), true},
		{"nil", nil, false},
		{"typed nil factory", (*Factory)(nil), false},
		{"zero factory", &Factory{}, false},
		{"factory value", Factory{}, false},
		{"plain func", func() {}, false},
		{"class func", class.Func(func(*class.Instance, ...any) (any, error) { return nil, nil }), false},
		{"base class", base, false},
		{"subtype class", ExtendAllMethods(identity)(base), false},
		{"constructor-injected class", ExtendConstructor(identity)(base), false},
		{"factory composer", NewFactory(identity), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFactory(tt.candidate))
		})
	}
}

func TestFactory_ReturnsInstancesOfBase(t *testing.T) {
	base := composableBase()
	f := NewFactory(identity)(base)
	assert.Same(t, base, f.Base())

	inst, err := f.New("testArg")
	require.NoError(t, err)
	assert.True(t, inst.InstanceOf(base))
	assert.Same(t, base, inst.Class())

	name, err := inst.Get("Name")
	require.NoError(t, err)
	assert.Equal(t, "testArg", name)
}

func TestFactory_FreshInstancePerCall(t *testing.T) {
	f := NewFactory(identity)(composableBase())
	a, err := f.New("a")
	require.NoError(t, err)
	b, err := f.New("b")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.True(t, IsFactory(f), "tag is stable across calls")
}

func TestFactory_InitializerErrorPropagates(t *testing.T) {
	failing := class.Define("Failing", class.WithInit(func(*class.Instance, class.Super, ...any) error {
		return assert.AnError
	}))
	s := newSpy()
	_, err := NewFactory(s.transform)(failing).New()
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, s.composed)
}

func TestFactory_WrapsEachEligibleMethod(t *testing.T) {
	s := newSpy()
	inst, err := NewFactory(s.transform)(composableBase()).New()
	require.NoError(t, err)

	_, err = inst.Call("doSomeCalculation", 1, 2)
	require.NoError(t, err)
	_, err = inst.Call("doSomethingIllegal")
	require.Error(t, err)

	assert.Equal(t, 1, s.calls["doSomeCalculation"])
	assert.Equal(t, 1, s.calls["doSomethingIllegal"])
	_, seen := s.calls["Name"]
	assert.False(t, seen)
}
