package testutil

import (
	"errors"

	"github.com/roach88/hoc/internal/class"
)

// ErrIllegal is the error ComposableBase.doSomethingIllegal returns.
var ErrIllegal = errors.New("Oh no!")

// ComposableBase returns a fresh copy of the reference base class:
//
//	doSomeCalculation(a, b)  a * b
//	doSomethingIllegal()     fails with ErrIllegal
//	Name                     accessor over the "name" constructor arg
func ComposableBase() *class.Class {
	return class.Define("ComposableBase",
		class.WithInit(func(self *class.Instance, super class.Super, args ...any) error {
			if err := super(); err != nil {
				return err
			}
			name := ""
			if len(args) > 0 {
				name, _ = args[0].(string)
			}
			self.SetField("name", name)
			return nil
		}),
		class.WithAccessor("Name", func(self *class.Instance) any {
			v, _ := self.Field("name")
			return v
		}),
		class.WithMethod("doSomeCalculation", func(_ *class.Instance, args ...any) (any, error) {
			return args[0].(int) * args[1].(int), nil
		}),
		class.WithMethod("doSomethingIllegal", func(*class.Instance, ...any) (any, error) {
			return nil, ErrIllegal
		}),
	)
}
