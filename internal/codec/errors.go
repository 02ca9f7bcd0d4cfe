package codec

import (
	"errors"
	"fmt"
)

// Error represents a failure detected during encode or decode.
//
// Encode/decode failures are determinism and compatibility errors, not
// transient faults: they abort the whole call, leave no partial
// output, and are never retried.
//
// Error includes structured fields for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// TypeName is the qualified name involved (for type errors).
	TypeName string

	// ID is the object id involved (for reference errors).
	ID int64

	// Attr is the attribute being applied (for state errors).
	Attr string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes codec errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedType indicates an encode-time value whose type
	// cannot be represented (no qualified name, no construction path).
	ErrCodeUnsupportedType ErrorCode = "UNSUPPORTED_TYPE"

	// ErrCodeUnknownType indicates a decode-time qualified name absent
	// from the supplied resolver.
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"

	// ErrCodeDanglingReference indicates a reference to an id that was
	// never allocated - corrupt or foreign input.
	ErrCodeDanglingReference ErrorCode = "DANGLING_REFERENCE"

	// ErrCodeStateApplication indicates an attribute that could not be
	// applied to a shell, e.g. an incompatible shape.
	ErrCodeStateApplication ErrorCode = "STATE_APPLICATION"

	// ErrCodeIncompatibleTree indicates an envelope produced by an
	// unknown format or version.
	ErrCodeIncompatibleTree ErrorCode = "INCOMPATIBLE_TREE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.TypeName != "" && e.Attr != "":
		return fmt.Sprintf("%s: %s (type=%s, attr=%s)", e.Code, e.Message, e.TypeName, e.Attr)
	case e.TypeName != "":
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.TypeName)
	case e.ID != 0:
		return fmt.Sprintf("%s: %s (id=%d)", e.Code, e.Message, e.ID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnsupportedType returns true for encode-time unrepresentable-type
// errors. Uses errors.As to handle wrapped errors.
func IsUnsupportedType(err error) bool {
	return hasCode(err, ErrCodeUnsupportedType)
}

// IsUnknownType returns true for decode-time unresolvable-name errors.
func IsUnknownType(err error) bool {
	return hasCode(err, ErrCodeUnknownType)
}

// IsDanglingReference returns true for unresolvable-id errors.
func IsDanglingReference(err error) bool {
	return hasCode(err, ErrCodeDanglingReference)
}

// IsStateApplication returns true for shell-population errors.
func IsStateApplication(err error) bool {
	return hasCode(err, ErrCodeStateApplication)
}

// IsIncompatibleTree returns true for envelope format/version errors.
func IsIncompatibleTree(err error) bool {
	return hasCode(err, ErrCodeIncompatibleTree)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// NewUnsupportedTypeError creates an Error naming the offending type.
func NewUnsupportedTypeError(typeName, message string) *Error {
	return &Error{
		Code:     ErrCodeUnsupportedType,
		Message:  message,
		TypeName: typeName,
	}
}

// NewUnknownTypeError creates an Error for a name the resolver cannot
// supply.
func NewUnknownTypeError(typeName string) *Error {
	return &Error{
		Code:     ErrCodeUnknownType,
		Message:  "qualified name not resolvable",
		TypeName: typeName,
	}
}

// NewDanglingReferenceError creates an Error for a reference to an id
// with no allocated shell.
func NewDanglingReferenceError(id int64) *Error {
	return &Error{
		Code:    ErrCodeDanglingReference,
		Message: "reference to unallocated id",
		ID:      id,
	}
}

// NewStateApplicationError creates an Error for a failed shell
// population.
func NewStateApplicationError(typeName, attr string, cause error) *Error {
	return &Error{
		Code:     ErrCodeStateApplication,
		Message:  "could not apply attribute state",
		TypeName: typeName,
		Attr:     attr,
		Err:      cause,
	}
}

// NewIncompatibleTreeError creates an Error for an envelope this build
// cannot decode.
func NewIncompatibleTreeError(format string, version int) *Error {
	return &Error{
		Code:    ErrCodeIncompatibleTree,
		Message: fmt.Sprintf("cannot decode tree %s@%d", format, version),
	}
}
