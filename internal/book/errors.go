package book

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFormat indicates structurally required data is missing or malformed.
	ErrFormat = errors.New("invalid book format")
	// ErrUnsupportedFormat indicates no parser is registered for a file.
	ErrUnsupportedFormat = errors.New("unsupported book format")
)

// FormatError is returned when a parse fails. It is always fatal to the
// current parse and never accompanied by a partial Book.
type FormatError struct {
	Format string // e.g. "epub", "mobi"
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("%s: %s", e.Format, e.Msg)
	}
	return e.Msg
}

func (e *FormatError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrFormat
}

// Is makes every FormatError match ErrFormat, even when it wraps a cause.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// NewFormatError creates a FormatError with a formatted message.
func NewFormatError(format, msg string, args ...any) *FormatError {
	return &FormatError{Format: format, Msg: fmt.Sprintf(msg, args...)}
}

// AsFormatError converts err into a FormatError for the given format.
// An existing FormatError is returned unchanged; anything else is wrapped
// with its message preserved.
func AsFormatError(format string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe
	}
	return &FormatError{Format: format, Msg: err.Error(), Err: err}
}

// UnsupportedFormatError is returned when a file name matches no registered parser.
type UnsupportedFormatError struct {
	Name     string
	Accepted []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format for %q (accepted: %s)", e.Name, strings.Join(e.Accepted, ", "))
}

func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}
