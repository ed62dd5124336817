package rcs

import (
	"fmt"

	"github.com/starford/rcsgrep/internal/apperr"
)

// FormatError reports malformed RCS syntax at a byte offset of the file.
type FormatError struct {
	Offset int
	Rev    Num
	Msg    string
}

func (e *FormatError) Error() string {
	if e.Rev != "" {
		return fmt.Sprintf("rcs: byte %d: revision %s: %s", e.Offset, e.Rev, e.Msg)
	}
	return fmt.Sprintf("rcs: byte %d: %s", e.Offset, e.Msg)
}

func (e *FormatError) Is(target error) bool { return target == apperr.ErrFormat }

// DanglingReferenceError reports a revision tree link to a missing revision,
// or a tree that is not a single rooted tree.
type DanglingReferenceError struct {
	From Num
	To   Num
	Msg  string
}

func (e *DanglingReferenceError) Error() string {
	switch {
	case e.From != "" && e.To != "":
		return fmt.Sprintf("rcs: revision %s: %s %s", e.From, e.Msg, e.To)
	case e.To != "":
		return fmt.Sprintf("rcs: %s %s", e.Msg, e.To)
	}
	return "rcs: " + e.Msg
}

func (e *DanglingReferenceError) Is(target error) bool {
	return target == apperr.ErrDanglingReference
}

// UnresolvedTagError reports a revision name with no mapping.
type UnresolvedTagError struct {
	Name string
}

func (e *UnresolvedTagError) Error() string {
	return fmt.Sprintf("rcs: no revision named %q", e.Name)
}

func (e *UnresolvedTagError) Is(target error) bool { return target == apperr.ErrUnresolvedTag }

// ReconstructionError reports an edit directive that does not fit its source text.
type ReconstructionError struct {
	Rev       Num
	Directive string
	Msg       string
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("rcs: revision %s: %s: %s", e.Rev, e.Directive, e.Msg)
}

func (e *ReconstructionError) Is(target error) bool { return target == apperr.ErrReconstruction }
