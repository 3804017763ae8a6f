package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies backend failures. Every gateway error carries
// exactly one kind so callers can branch without string matching.
type ErrorKind int

const (
	// Repository errors.
	ErrNotARepository ErrorKind = iota
	ErrDirtyWorkingTree
	ErrMergeConflict

	// Reference errors.
	ErrInvalidReference
	ErrAmbiguousReference

	// Network errors.
	ErrAuthenticationFailed
	ErrNetworkUnavailable
	ErrBackendTimeout

	// Local coordination.
	ErrCancelled

	// Anything the taxonomy doesn't name.
	ErrUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotARepository:
		return "not a repository"
	case ErrDirtyWorkingTree:
		return "dirty working tree"
	case ErrMergeConflict:
		return "merge conflict"
	case ErrInvalidReference:
		return "invalid reference"
	case ErrAmbiguousReference:
		return "ambiguous reference"
	case ErrAuthenticationFailed:
		return "authentication failed"
	case ErrNetworkUnavailable:
		return "network unavailable"
	case ErrBackendTimeout:
		return "backend timeout"
	case ErrCancelled:
		return "cancelled"
	default:
		return "unknown error"
	}
}

// IsNetwork reports whether the kind is one of the network failures.
func (k ErrorKind) IsNetwork() bool {
	return k == ErrAuthenticationFailed || k == ErrNetworkUnavailable || k == ErrBackendTimeout
}

// OpError is a backend failure attached to the operation that produced it.
type OpError struct {
	Op     string // gateway operation, e.g. "push"
	Kind   ErrorKind
	Detail string // trimmed stderr or underlying error text
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("git %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("git %s: %s: %s", e.Op, e.Kind, e.Detail)
}

// NewOpError builds an OpError for the given operation.
func NewOpError(op string, kind ErrorKind, detail string) *OpError {
	return &OpError{Op: op, Kind: kind, Detail: detail}
}

// KindOf extracts the ErrorKind from err, or ErrUnknown if err is not an
// OpError.
func KindOf(err error) ErrorKind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return ErrUnknown
}

// IsKind reports whether err is an OpError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
