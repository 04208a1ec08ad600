package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/hoc/internal/class"
	"github.com/roach88/hoc/internal/ir"
)

// ErrIntegerOverflow is returned by multiply and add when the result does
// not fit in an int64.
var ErrIntegerOverflow = errors.New("integer overflow")

// Builtin returns the implementation a method spec names.
//
//	multiply  product of integer args, ErrIntegerOverflow past int64
//	add       sum of integer args, ErrIntegerOverflow past int64
//	concat    args joined as text, Message is the separator
//	echo      the single arg, or all args as a slice
//	constant  Value
//	field     the instance field named by Field
//	fail      always returns an error with Message
func Builtin(m ir.MethodSpec) (class.Func, error) {
	switch m.Impl {
	case ir.ImplMultiply:
		return foldInts(m.Name, 1, mulInt64), nil
	case ir.ImplAdd:
		return foldInts(m.Name, 0, addInt64), nil
	case ir.ImplConcat:
		sep := m.Message
		return func(_ *class.Instance, args ...any) (any, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = fmt.Sprint(a)
			}
			return strings.Join(parts, sep), nil
		}, nil
	case ir.ImplEcho:
		return func(_ *class.Instance, args ...any) (any, error) {
			if len(args) == 1 {
				return args[0], nil
			}
			return args, nil
		}, nil
	case ir.ImplConstant:
		if m.Value == nil {
			return nil, fmt.Errorf("method %s: constant requires a value", m.Name)
		}
		v := ir.ToGo(m.Value)
		return func(*class.Instance, ...any) (any, error) {
			return v, nil
		}, nil
	case ir.ImplField:
		field := m.Field
		return func(self *class.Instance, _ ...any) (any, error) {
			v, ok := self.Field(field)
			if !ok {
				return nil, fmt.Errorf("%s: field %q is not set", m.Name, field)
			}
			return v, nil
		}, nil
	case ir.ImplFail:
		// One error value per method so callers can match it with errors.Is.
		err := errors.New(m.Message)
		return func(*class.Instance, ...any) (any, error) {
			return nil, err
		}, nil
	default:
		return nil, fmt.Errorf("method %s: unknown impl %q", m.Name, m.Impl)
	}
}

func foldInts(name string, seed int64, op func(acc, n int64) (int64, bool)) class.Func {
	return func(_ *class.Instance, args ...any) (any, error) {
		acc := seed
		for i, a := range args {
			n, err := toInt64(a)
			if err != nil {
				return nil, fmt.Errorf("%s: arg %d: %w", name, i, err)
			}
			var ok bool
			if acc, ok = op(acc, n); !ok {
				return nil, fmt.Errorf("%s: arg %d: %w", name, i, ErrIntegerOverflow)
			}
		}
		return acc, nil
	}
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

func addInt64(a, b int64) (int64, bool) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, false
	}
	return r, true
}

func toInt64(v any) (int64, error) {
	irv, err := ir.FromGo(v)
	if err != nil {
		return 0, err
	}
	n, ok := irv.(ir.IRInt)
	if !ok {
		return 0, fmt.Errorf("want int, got %T", v)
	}
	return int64(n), nil
}
