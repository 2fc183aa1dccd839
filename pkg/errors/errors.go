// Package errors provides coded errors for hoister.
//
// Every failure a caller may want to act on carries a [Code]. Resolution
// failures also carry the dependency pattern that was being resolved, so the
// CLI can name the offending dependency without parsing messages:
//
//	err := errors.New(errors.ErrCodePackageNotFound, "no version matches").For("lodash@^9.0.0")
//	errors.Is(err, errors.ErrCodePackageNotFound) // true
//	errors.PatternOf(err)                         // "lodash@^9.0.0"
//
// Codes are grouped by prefix: INVALID_* for rejected input, *_NOT_FOUND for
// missing packages and files, NETWORK_ERROR and TIMEOUT for registry
// transport, INTERNAL_ERROR for broken invariants.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable error category.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidPattern  Code = "INVALID_PATTERN"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a coded error.
type Error struct {
	Code    Code
	Message string
	Pattern string // dependency pattern being resolved, if any
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Pattern != "" {
		b.WriteString(" [" + e.Pattern + "]")
	}
	b.WriteString(": " + e.Message)
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// For records the pattern that failed and returns e.
func (e *Error) For(pattern string) *Error {
	e.Pattern = pattern
	return e
}

// New returns an error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with a formatted message and a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// As is [errors.As] from the standard library.
func As(err error, target any) bool { return errors.As(err, target) }

// chain calls fn for every *Error in err's cause chain, outermost first,
// until fn returns true.
func chain(err error, fn func(*Error) bool) {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) || fn(e) {
			return
		}
		err = e.Cause
	}
}

// Is reports whether any error in err's chain has code.
func Is(err error, code Code) bool {
	found := false
	chain(err, func(e *Error) bool {
		found = e.Code == code
		return found
	})
	return found
}

// GetCode returns the outermost code in err, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// PatternOf returns the outermost pattern recorded in err's chain, or "".
func PatternOf(err error) string {
	var p string
	chain(err, func(e *Error) bool {
		p = e.Pattern
		return p != ""
	})
	return p
}

// UserMessage renders err without codes: the pattern, if any, then each
// message in the chain.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := e.Message
	if e.Pattern != "" {
		msg = e.Pattern + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + UserMessage(e.Cause)
	}
	return msg
}
