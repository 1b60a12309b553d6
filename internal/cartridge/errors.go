package cartridge

import (
	"errors"
	"fmt"
)

// LoadErrorKind classifies why a ROM image could not be loaded
type LoadErrorKind uint8

const (
	BadHeader LoadErrorKind = iota
	UnknownMapper
	IOError
)

// Sentinel errors matched by LoadError.Is
var (
	ErrBadHeader     = errors.New("bad header")
	ErrUnknownMapper = errors.New("unknown mapper")
	ErrIO            = errors.New("i/o error")
)

// LoadError is returned by every failed load attempt. No cartridge is
// produced alongside it.
type LoadError struct {
	Kind LoadErrorKind
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cartridge load failed: %v", e.sentinel())
	}
	return fmt.Sprintf("cartridge load failed: %v: %v", e.sentinel(), e.Err)
}

// Unwrap returns the underlying cause
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching this error's kind
func (e *LoadError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *LoadError) sentinel() error {
	switch e.Kind {
	case BadHeader:
		return ErrBadHeader
	case UnknownMapper:
		return ErrUnknownMapper
	default:
		return ErrIO
	}
}

func badHeader(format string, args ...interface{}) error {
	return &LoadError{Kind: BadHeader, Err: fmt.Errorf(format, args...)}
}

func ioError(err error) error {
	return &LoadError{Kind: IOError, Err: err}
}
