// Package errors defines the closed set of error kinds IonicFS operations can
// fail with. The meaning of each kind is fixed by the on-disk format and the
// command surface; the exact message text is not.
package errors

import (
	"fmt"
)

// IonicError is a named error kind. Every fallible operation in this module
// returns one of these, optionally decorated with a message or a wrapped
// cause.
type IonicError string

// PathInvalid: disk file missing, is a directory, or is empty.
const ErrPathInvalid = IonicError("disk path is invalid")

// IoFailure: read or write to the image failed or short-read.
const ErrIoFailure = IonicError("I/O error")

// BadSuperblock: magic or version bytes do not match, or partition-table
// parse failed.
const ErrBadSuperblock = IonicError("bad superblock")

// NotFound: a path component could not be resolved, or a named entry does
// not exist.
const ErrNotFound = IonicError("not found")

// AlreadyExists: attempt to create a name already present in its parent.
const ErrAlreadyExists = IonicError("already exists")

// NoSpace: allocator exhausted within the target partition, directory chain
// cannot be grown, or a boot payload exceeds 400 bytes.
const ErrNoSpace = IonicError("no space left on partition")

// Corruption: region type does not match expectation, or a region number
// falls outside its partition's range.
const ErrCorruption = IonicError("filesystem corruption detected")

// ArgError: invalid verb, out-of-range partition index, or malformed size
// specifier.
const ErrArgError = IonicError("invalid argument")

func (e IonicError) Error() string {
	return string(e)
}

// WithMessage attaches additional context to the error kind while keeping it
// identifiable via errors.Is.
func (e IonicError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

// WrapError records `err` as the cause of this error kind.
func (e IonicError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}
