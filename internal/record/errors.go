package record

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes recording errors.
type ErrorCode string

const (
	// ErrCodeQuotaExceeded means the flow reached its call limit; the
	// method was not run.
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeWriteFailed means the call ran but its record could not be
	// stored.
	ErrCodeWriteFailed ErrorCode = "WRITE_FAILED"
)

// Error is returned by recorded methods alongside or instead of the
// method's own error.
type Error struct {
	Code      ErrorCode
	Message   string
	FlowToken string
	Method    string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s (flow=%s, method=%s)", e.Code, e.Message, e.FlowToken, e.Method)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsQuotaError reports whether err carries ErrCodeQuotaExceeded.
func IsQuotaError(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == ErrCodeQuotaExceeded
}

// IsWriteError reports whether err carries ErrCodeWriteFailed.
func IsWriteError(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Code == ErrCodeWriteFailed
}
