package udigest

import (
	"errors"
	"strconv"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindConfig      Kind = "Config"
	KindUnsupported Kind = "Unsupported"
	KindEncode      Kind = "Encode"
	KindInternal    Kind = "Internal"
)

// ErrInvalidOutputSize is the cause of every error returned when a variable
// output hash rejects the requested output size.
var ErrInvalidOutputSize = errors.New("udigest: invalid output size")

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., UDIGEST-CFG-001, UDIGEST-TYPE-002).
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// InvalidOutputSize returns the error reported when an algorithm cannot
// produce size bytes of output.
func InvalidOutputSize(algorithm string, size int, cause error) error {
	if cause == nil {
		cause = ErrInvalidOutputSize
	} else if !errors.Is(cause, ErrInvalidOutputSize) {
		cause = errors.Join(ErrInvalidOutputSize, cause)
	}
	return wrapError(KindConfig, "UDIGEST-CFG-001", "udigest: "+algorithm+" cannot produce "+strconv.Itoa(size)+" bytes of output", cause)
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
