// Package apperr defines the error kinds shared across rcsgrep.
//
// Domain packages return typed errors that match one of these sentinels
// through errors.Is, so callers can branch on the kind without depending
// on the concrete type.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrConfig marks a bad invocation (format spec, pattern, flags).
	ErrConfig = errors.New("config error")
	// ErrIO marks an input file that could not be opened or read.
	ErrIO = errors.New("io error")
	// ErrFormat marks malformed RCS syntax.
	ErrFormat = errors.New("rcs format error")
	// ErrDanglingReference marks a revision tree that points at revisions it does not contain.
	ErrDanglingReference = errors.New("dangling revision reference")
	// ErrUnresolvedTag marks a revision name that maps to no revision.
	ErrUnresolvedTag = errors.New("unresolved tag")
	// ErrReconstruction marks a delta that cannot be applied to its source text.
	ErrReconstruction = errors.New("reconstruction error")
)

// ConfigError reports an invalid setting detected before any file is processed.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// IOError reports a file that could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
