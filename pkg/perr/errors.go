// Package perr defines the error taxonomy shared by every prxcore package.
package perr

import "github.com/spiral/errors"

// Sentinels matching the taxonomy emitted by the core. Wrap with
// errors.E(op, sentinel) at the point of failure so callers can match
// with errors.Is against the values here.
var (
	ErrOutOfMemory   = errors.Str("out of memory")
	ErrInvalidFormat = errors.Str("invalid format")
	ErrNotSupported  = errors.Str("not supported")
	ErrFault         = errors.Str("fault")
	ErrArg           = errors.Str("argument out of range")
	ErrReading       = errors.Str("stream read failed")
	ErrWriting       = errors.Str("stream write failed")
	ErrAlreadyExists = errors.Str("already exists")
	ErrNotFound      = errors.Str("not found")
	ErrClosed        = errors.Str("closed")
)
