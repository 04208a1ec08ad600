package compiler

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/hoc/internal/ir"
)

// ErrNoClasses is returned when a CUE value declares no classes.
var ErrNoClasses = errors.New("no classes found")

// CompileClasses compiles every class under the top-level "class" field of
// v, in declaration order. Errors are collected so one bad class does not
// hide the others; each is a *CompileError when a position is known.
func CompileClasses(v cue.Value) ([]ir.ClassSpec, []error) {
	classesVal := v.LookupPath(cue.ParsePath("class"))
	if !classesVal.Exists() {
		return nil, []error{ErrNoClasses}
	}
	iter, err := classesVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var specs []ir.ClassSpec
	var errs []error
	for iter.Next() {
		spec, err := CompileClass(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, *spec)
	}
	return specs, errs
}

// CompileFile compiles a single CUE file and returns its classes.
func CompileFile(path string) ([]ir.ClassSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	specs, errs := CompileClasses(v)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	return specs, nil
}
