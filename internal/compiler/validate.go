package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/hoc/internal/ir"
)

// Validation error codes (E100-E199).
const (
	ErrClassPurposeEmpty  = "E101" // purpose is required
	ErrClassNoMembers     = "E102" // at least one method or accessor required
	ErrUnknownImpl        = "E103" // impl is not a builtin
	ErrInvalidFieldType   = "E104" // invalid type string
	ErrDuplicateName      = "E105" // duplicate member name
	ErrFloatTypeForbidden = "E106" // float types not allowed
	ErrReservedName       = "E107" // "constructor" cannot be declared
	ErrMissingImplParam   = "E108" // impl needs message/field/value
	ErrUnknownField       = "E109" // field not set by the constructor
	ErrInvalidClassName   = "E110" // class name format
	ErrSelfExtends        = "E111" // class extends itself
)

// ValidationError is a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var classNamePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)

// Validate checks a compiled class spec and returns every problem found.
func Validate(spec *ir.ClassSpec) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if !classNamePattern.MatchString(spec.Name) {
		add("name", ErrInvalidClassName, "invalid class name %q, must start with an uppercase letter", spec.Name)
	}
	if strings.TrimSpace(spec.Purpose) == "" {
		add("purpose", ErrClassPurposeEmpty, "purpose is required and must be non-empty")
	}
	if spec.Extends != "" && spec.Extends == spec.Name {
		add("extends", ErrSelfExtends, "class %q cannot extend itself", spec.Name)
	}
	if len(spec.Methods) == 0 && len(spec.Accessors) == 0 {
		add("members", ErrClassNoMembers, "at least one method or accessor is required")
	}

	// Field references are only checked on root classes with a declared
	// constructor. Subclasses may read fields set by a parent.
	var ctorFields []string
	if spec.Constructor != nil {
		ctorFields = spec.Constructor.Fields
	}
	checkField := func(path, field string) {
		if spec.Constructor != nil && spec.Extends == "" && !slices.Contains(ctorFields, field) {
			add(path, ErrUnknownField, "field %q is not set by the constructor", field)
		}
	}

	seen := make(map[string]bool)
	claim := func(path, name string) {
		if name == "constructor" {
			add(path, ErrReservedName, "%q is reserved", name)
		}
		if seen[name] {
			add(path, ErrDuplicateName, "duplicate member name: %q", name)
		}
		seen[name] = true
	}

	for i, acc := range spec.Accessors {
		path := fmt.Sprintf("accessors[%d]", i)
		claim(path+".name", acc.Name)
		if acc.Field == "" {
			add(path+".field", ErrMissingImplParam, "accessor %q requires a field", acc.Name)
			continue
		}
		checkField(path+".field", acc.Field)
	}

	for i, m := range spec.Methods {
		path := fmt.Sprintf("methods[%d]", i)
		claim(path+".name", m.Name)

		if !ir.ValidImpls[m.Impl] {
			add(path+".impl", ErrUnknownImpl, "unknown impl %q for method %q", m.Impl, m.Name)
		}
		switch m.Impl {
		case ir.ImplFail:
			if m.Message == "" {
				add(path+".message", ErrMissingImplParam, "impl %q requires a message", m.Impl)
			}
		case ir.ImplField:
			if m.Field == "" {
				add(path+".field", ErrMissingImplParam, "impl %q requires a field", m.Impl)
			} else {
				checkField(path+".field", m.Field)
			}
		case ir.ImplConstant:
			if m.Value == nil {
				add(path+".value", ErrMissingImplParam, "impl %q requires a value", m.Impl)
			}
		}

		for j, arg := range m.Args {
			errs = append(errs, validateFieldType(arg.Type, fmt.Sprintf("%s.args[%d].type", path, j), arg.Name)...)
		}
	}

	return errs
}

// validateFieldType reports invalid and float type names.
func validateFieldType(fieldType, fieldPath, fieldName string) []ValidationError {
	if isFloatType(fieldType) {
		return []ValidationError{{
			Field:   fieldPath,
			Message: fmt.Sprintf("float type forbidden for field %q, use int instead", fieldName),
			Code:    ErrFloatTypeForbidden,
		}}
	}
	if !ir.ValidTypes[fieldType] {
		return []ValidationError{{
			Field:   fieldPath,
			Message: fmt.Sprintf("invalid type %q for field %q", fieldType, fieldName),
			Code:    ErrInvalidFieldType,
		}}
	}
	return nil
}

func isFloatType(t string) bool {
	switch t {
	case "float", "float32", "float64", "number", "double":
		return true
	}
	return false
}
