// Package errtyp defines the module's error taxonomy: every error raised
// by a core component carries a Kind so callers and log lines can report
// which subsystem failed without string-matching messages.
package errtyp

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the subsystem that raised an error.
type Kind int

const (
	Config Kind = iota
	PdfRead
	PdfWrite
	ContentStream
	Render
	Segmentation
	Jbig2Encode
	JpegEncode
	ImageXObject
	Cache
	Linearize
	Io
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "Config"
	case PdfRead:
		return "PdfRead"
	case PdfWrite:
		return "PdfWrite"
	case ContentStream:
		return "ContentStream"
	case Render:
		return "Render"
	case Segmentation:
		return "Segmentation"
	case Jbig2Encode:
		return "Jbig2Encode"
	case JpegEncode:
		return "JpegEncode"
	case ImageXObject:
		return "ImageXObject"
	case Cache:
		return "Cache"
	case Linearize:
		return "Linearize"
	case Io:
		return "Io"
	default:
		return "Unknown"
	}
}

// Error is the module's error type: a Kind plus a wrapped cause carrying
// a stack trace via github.com/pkg/errors.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.err
}

// Format supports %+v stack-trace formatting by delegating to the
// wrapped pkg/errors cause, if any.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %s", e.Kind, e.msg)
		if e.err != nil {
			fmt.Fprintf(s, "\n%+v", e.err)
		}
		return
	}
	fmt.Fprint(s, e.Error())
}

// New creates an Error of the given kind with a plain message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, msg: msg, err: errors.New(msg)}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, msg: msg, err: errors.New(msg)}
}

// Wrap attaches kind and msg to an existing error, preserving its stack
// trace via errors.Wrap.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, msg: msg, err: errors.Wrap(err, msg)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, msg: msg, err: errors.Wrap(err, msg)}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
