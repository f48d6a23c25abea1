package errors

import "fmt"

// DriverError is the common interface every fallible IonicFS operation
// returns. It behaves like a normal Go error. One built with WithMessage
// keeps its originating IonicError kind reachable via errors.Is/errors.As;
// one built with WrapError unwraps to the wrapped cause instead, and its
// kind then appears only in the message text.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
	Unwrap() error
}

type customDriverError struct {
	message       string
	originalError error
}

func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}
