package compose

import (
	"errors"
	"fmt"

	"github.com/roach88/hoc/internal/class"
)

// Strategy names one of the four composition techniques.
type Strategy string

const (
	StrategyExtendAllMethods   Strategy = "extend-all-methods"
	StrategyExtendConstructor  Strategy = "extend-constructor"
	StrategyExtendFunctionally Strategy = "extend-functionally"
	StrategyFactory            Strategy = "factory"
)

var (
	// ErrUnknownStrategy is returned for a strategy name that is not registered.
	ErrUnknownStrategy = errors.New("unknown composition strategy")

	// ErrNilClass is returned by Apply when no base class is given.
	ErrNilClass = errors.New("base class is nil")
)

// Strategies returns every strategy in a stable order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyExtendAllMethods,
		StrategyExtendConstructor,
		StrategyExtendFunctionally,
		StrategyFactory,
	}
}

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Apply composes base with t using strategy s.
func Apply(s Strategy, t Transform, base *class.Class) (Constructible, error) {
	if base == nil {
		return nil, ErrNilClass
	}
	switch s {
	case StrategyExtendAllMethods:
		return ExtendAllMethods(t)(base), nil
	case StrategyExtendConstructor:
		return ExtendConstructor(t)(base), nil
	case StrategyExtendFunctionally:
		return ExtendFunctionally(t)(base), nil
	case StrategyFactory:
		return NewFactory(t)(base), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}
