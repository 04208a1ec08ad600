package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/hoc/internal/ir"
)

// CompileClass parses a CUE value into a ClassSpec. The value is the class
// struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`class: Calc: { ... }`)
//	spec, err := CompileClass(v.LookupPath(cue.ParsePath("class.Calc")))
//
// Methods are writable and configurable unless the spec says otherwise.
func CompileClass(v cue.Value) (*ir.ClassSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ClassSpec{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	purposeVal := v.LookupPath(cue.ParsePath("purpose"))
	if !purposeVal.Exists() {
		return nil, &CompileError{Field: "purpose", Message: "purpose is required", Pos: v.Pos()}
	}
	purpose, err := purposeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Purpose = purpose

	if spec.Extends, err = optionalString(v, "extends"); err != nil {
		return nil, err
	}

	if spec.Constructor, err = parseConstructor(v); err != nil {
		return nil, err
	}
	if spec.Accessors, err = parseAccessors(v); err != nil {
		return nil, err
	}
	if spec.Methods, err = parseMethods(v); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseConstructor(v cue.Value) (*ir.ConstructorSpec, error) {
	ctorVal := v.LookupPath(cue.ParsePath("constructor"))
	if !ctorVal.Exists() {
		return nil, nil
	}
	ctor := &ir.ConstructorSpec{}
	fieldsVal := ctorVal.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return ctor, nil
	}
	iter, err := fieldsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ctor.Fields = append(ctor.Fields, name)
	}
	return ctor, nil
}

func parseAccessors(v cue.Value) ([]ir.AccessorSpec, error) {
	var accessors []ir.AccessorSpec
	accVal := v.LookupPath(cue.ParsePath("accessor"))
	if !accVal.Exists() {
		return accessors, nil
	}
	iter, err := accVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		field, err := optionalString(iter.Value(), "field")
		if err != nil {
			return nil, err
		}
		accessors = append(accessors, ir.AccessorSpec{Name: iter.Label(), Field: field})
	}
	return accessors, nil
}

func parseMethods(v cue.Value) ([]ir.MethodSpec, error) {
	var methods []ir.MethodSpec
	methodVal := v.LookupPath(cue.ParsePath("method"))
	if !methodVal.Exists() {
		return methods, nil
	}
	iter, err := methodVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		mv := iter.Value()

		implVal := mv.LookupPath(cue.ParsePath("impl"))
		if !implVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("method.%s.impl", name),
				Message: "method impl is required",
				Pos:     mv.Pos(),
			}
		}
		impl, err := implVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		m := ir.MethodSpec{Name: name, Impl: impl, Writable: true, Configurable: true}

		if argsVal := mv.LookupPath(cue.ParsePath("args")); argsVal.Exists() {
			argsIter, err := argsVal.Fields()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for argsIter.Next() {
				argType, err := extractTypeName(argsIter.Value())
				if err != nil {
					return nil, err
				}
				m.Args = append(m.Args, ir.NamedArg{Name: argsIter.Label(), Type: argType})
			}
		}

		if m.Message, err = optionalString(mv, "message"); err != nil {
			return nil, err
		}
		if m.Field, err = optionalString(mv, "field"); err != nil {
			return nil, err
		}
		if valueVal := mv.LookupPath(cue.ParsePath("value")); valueVal.Exists() {
			if m.Value, err = extractConstant(valueVal); err != nil {
				return nil, err
			}
		}
		if m.Writable, err = optionalBool(mv, "writable", true); err != nil {
			return nil, err
		}
		if m.Configurable, err = optionalBool(mv, "configurable", true); err != nil {
			return nil, err
		}

		methods = append(methods, m)
	}
	return methods, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, field string, def bool) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// extractConstant reads a concrete scalar for the constant impl.
func extractConstant(v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.FloatKind:
		return nil, &CompileError{Field: "value", Message: "float values are forbidden, use int instead", Pos: v.Pos()}
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("constant must be a concrete string, int or bool, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// extractTypeName converts a CUE type to an IR type name. Floats are
// rejected; top (_) maps to "any".
func extractTypeName(v cue.Value) (string, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return "string", nil
	case cue.IntKind:
		return "int", nil
	case cue.BoolKind:
		return "bool", nil
	case cue.ListKind:
		return "array", nil
	case cue.StructKind:
		return "object", nil
	case cue.TopKind:
		return "any", nil
	case cue.FloatKind, cue.NumberKind:
		return "", &CompileError{
			Field:   "type",
			Message: "float types are forbidden, use int instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError is a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
