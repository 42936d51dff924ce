package model

import (
	"errors"
	"fmt"
)

// Error codes for the metagraph core, grouped by concern.
// MG100-MG109: property and instance access
const (
	CodeUnknownProperty   = "MG100"
	CodeCardinality       = "MG101"
	CodeValuePresent      = "MG102"
	CodeIDConflict        = "MG103"
	CodeInvalidInternalID = "MG104"
	CodeUnresolvable      = "MG105"
	CodeInitialization    = "MG106"
	CodeUnknownClassifier = "MG107"
	CodePropertyConflict  = "MG108"
)

// Sentinel errors. Every error produced by the core wraps exactly one of these
// so callers can branch with errors.Is.
var (
	ErrUnknownProperty   = errors.New("unknown property")
	ErrCardinality       = errors.New("cardinality violation")
	ErrValuePresent      = errors.New("value already present")
	ErrIDConflict        = errors.New("id index conflict")
	ErrInvalidInternalID = errors.New("invalid internal id")
	ErrUnresolvable      = errors.New("unresolvable reference")
	ErrInitialization    = errors.New("initialization failed")
	ErrUnknownClassifier = errors.New("unknown classifier")
	ErrPropertyConflict  = errors.New("property conflict")
)

var codes = map[error]string{
	ErrUnknownProperty:   CodeUnknownProperty,
	ErrCardinality:       CodeCardinality,
	ErrValuePresent:      CodeValuePresent,
	ErrIDConflict:        CodeIDConflict,
	ErrInvalidInternalID: CodeInvalidInternalID,
	ErrUnresolvable:      CodeUnresolvable,
	ErrInitialization:    CodeInitialization,
	ErrUnknownClassifier: CodeUnknownClassifier,
	ErrPropertyConflict:  CodePropertyConflict,
}

// Error is a coded core error. Kind is one of the package sentinels and Err is
// an optional underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Errorf builds an Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrapf builds an Error of the given kind around cause.
func Wrapf(kind error, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Code returns the error code of the kind, or an empty string for foreign kinds.
func (e *Error) Code() string {
	return codes[e.Kind]
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if code := e.Code(); code != "" {
		return code + ": " + msg
	}
	return msg
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IDConflictError reports that an ID index found more than one element for Key.
type IDConflictError struct {
	Key interface{}
}

func (e *IDConflictError) Error() string {
	return fmt.Sprintf("multiple values for id %v", e.Key)
}

func (e *IDConflictError) Is(target error) bool {
	return target == ErrIDConflict
}

// CodeOf extracts the error code from err, if any.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code()
	}
	if errors.Is(err, ErrIDConflict) {
		return CodeIDConflict
	}
	return ""
}
