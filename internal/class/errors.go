package class

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes member resolution failures.
type ErrorCode string

const (
	// ErrCodeNoSuchMethod indicates no method of that name exists on the
	// instance or its class chain.
	ErrCodeNoSuchMethod ErrorCode = "NO_SUCH_METHOD"

	// ErrCodeNotCallable indicates the member exists but has nothing to call.
	ErrCodeNotCallable ErrorCode = "NOT_CALLABLE"

	// ErrCodeNoSuchAccessor indicates no accessor of that name exists.
	ErrCodeNoSuchAccessor ErrorCode = "NO_SUCH_ACCESSOR"
)

// Error reports a failure to resolve a member on an instance.
type Error struct {
	Code   ErrorCode
	Class  string
	Member string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s.%s", e.Code, e.Class, e.Member)
}

// IsNoSuchMethod returns true if err is a NO_SUCH_METHOD error.
// Uses errors.As to handle wrapped errors.
func IsNoSuchMethod(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeNoSuchMethod
	}
	return false
}

// IsNotCallable returns true if err is a NOT_CALLABLE error.
func IsNotCallable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeNotCallable
	}
	return false
}
