package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorfOrNil wraps e with a formatted prefix, or returns nil when e is nil.
func ErrorfOrNil(e error, format string, args ...any) error {
	if e == nil {
		return nil
	}
	if len(format) == 0 {
		return e
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), e)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
