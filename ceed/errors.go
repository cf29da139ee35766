package ceed

import (
	"errors"
	"fmt"
)

// ErrorClass groups errors by how a caller is expected to react
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	// ConfigurationError reports bad dimensions, mismatched fields or
	// out of range indices found while creating an object
	ConfigurationError
	// ResourceError reports a missing backend or a failed allocation
	ResourceError
	// StateError reports misuse such as a second checkout or destroying an
	// object that is still referenced
	StateError
	// ComputeError reports a failed QFunction
	ComputeError
)

func (c ErrorClass) String() string {
	switch c {
	case ConfigurationError:
		return "ConfigurationError"
	case ResourceError:
		return "ResourceError"
	case StateError:
		return "StateError"
	case ComputeError:
		return "ComputeError"
	}
	return "UnknownError"
}

var (
	ErrBackendNotFound   = errors.New("ceed: no backend matches resource")
	ErrBackendInitFailed = errors.New("ceed: backend initialization failed")
	ErrInvalidMemType    = errors.New("ceed: memory type not supported")
	ErrAlreadyCheckedOut = errors.New("ceed: array already checked out")
	ErrNullArray         = errors.New("ceed: no array checked out")
	ErrIndexOutOfRange   = errors.New("ceed: index out of range")
	ErrFieldMismatch     = errors.New("ceed: fields do not match qfunction")
	ErrDimensionMismatch = errors.New("ceed: dimension mismatch")
	ErrInvalidArgument   = errors.New("ceed: invalid argument")
	ErrUnsupported       = errors.New("ceed: operation not supported")
	ErrInUse             = errors.New("ceed: object in use")
	ErrDestroyed         = errors.New("ceed: object destroyed")
	ErrReadOnly          = errors.New("ceed: array is read-only")
	ErrNoData            = errors.New("ceed: vector has no data")
	ErrRegistryClosed    = errors.New("ceed: registry shut down")
	ErrQFunction         = errors.New("ceed: qfunction failed")
)

var sentinelClass = map[error]ErrorClass{
	ErrBackendNotFound:   ResourceError,
	ErrBackendInitFailed: ResourceError,
	ErrInvalidMemType:    ResourceError,
	ErrAlreadyCheckedOut: StateError,
	ErrNullArray:         StateError,
	ErrIndexOutOfRange:   ConfigurationError,
	ErrFieldMismatch:     ConfigurationError,
	ErrDimensionMismatch: ConfigurationError,
	ErrInvalidArgument:   ConfigurationError,
	ErrUnsupported:       ResourceError,
	ErrInUse:             StateError,
	ErrDestroyed:         StateError,
	ErrReadOnly:          StateError,
	ErrNoData:            StateError,
	ErrRegistryClosed:    StateError,
	ErrQFunction:         ComputeError,
}

// Error is the error type returned by every ceed object. Err wraps one of
// the package sentinels, so errors.Is works on the result.
type Error struct {
	Class  ErrorClass
	Object string // object kind, e.g. "Vector"
	Op     string // operation, e.g. "GetArray"
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Object, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified error around sentinel. The class follows the
// sentinel; format adds the offending values.
func Errorf(object, op string, sentinel error, format string, args ...any) error {
	err := sentinel
	if format != "" {
		err = fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
	}
	return &Error{Class: sentinelClass[sentinel], Object: object, Op: op, Err: err}
}

// wrap attaches object context to an error from a backend. Errors that
// already carry a class keep it.
func wrap(object, op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Class: ClassOf(err), Object: object, Op: op, Err: err}
}

// ClassOf returns the class of err, or ClassUnknown for foreign errors
func ClassOf(err error) ErrorClass {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Class
	}
	for sentinel, class := range sentinelClass {
		if errors.Is(err, sentinel) {
			return class
		}
	}
	return ClassUnknown
}
