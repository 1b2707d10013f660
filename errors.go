package hl7v2

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage is returned when a parser or serializer is handed nothing
// to work with.
var ErrEmptyMessage = errors.New("hl7v2: empty message")

// ParseError describes a structural failure while parsing ER7 text. It is
// only produced in strict mode; tolerant parsing converts the same
// conditions into Warnings.
type ParseError struct {
	// Msg is the human-readable description of what went wrong.
	Msg string

	// Line is the 1-based segment line number, or 0 when the failure is
	// not tied to one line.
	Line int

	// SegmentName is the name of the offending segment when known.
	SegmentName string

	// Err is the underlying cause, if any.
	Err error
}

func (e *ParseError) Error() string {
	s := "hl7v2: parse error"
	if e.SegmentName != "" {
		s += " in segment " + e.SegmentName
	}
	if e.Line > 0 {
		s += fmt.Sprintf(" (line %d)", e.Line)
	}
	s += ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError builds a ParseError tied to a segment line. Line 0 and an
// empty segment name are both allowed and simply omitted from the message.
func NewParseError(line int, segmentName, format string, args ...any) *ParseError {
	return &ParseError{
		Msg:         fmt.Sprintf(format, args...),
		Line:        line,
		SegmentName: segmentName,
	}
}

// ValidationError reports misuse of a builder, such as framing an empty
// batch. Envelope validation of parsed messages never returns errors; it
// produces Reports (see the batch package), because "parses" and "is a
// structurally valid envelope" are independent questions.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "hl7v2: " + e.Msg
}

// Warning is one recoverable problem recorded during tolerant parsing.
type Warning struct {
	// Line is the 1-based segment line number the problem was seen on,
	// or 0 when it applies to the whole message.
	Line int

	// Msg describes the problem and what the parser did about it.
	Msg string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Msg)
	}
	return w.Msg
}
