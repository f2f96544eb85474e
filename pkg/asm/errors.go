package asm

import (
	"errors"
	"fmt"
)

var (
	ErrNoMatch         = errors.New("unrecognized fragment")
	ErrUnknownSymbol   = errors.New("unknown symbol")
	ErrMalformedNumber = errors.New("malformed numeric literal")

	ErrLabelName         = errors.New("label naming error")
	ErrNotMnemonic       = errors.New("not an instruction")
	ErrMissingOperand    = errors.New("missing operand")
	ErrMalformedOperand  = errors.New("malformed operand")
	ErrInvalidOperand    = errors.New("invalid operand")
	ErrUnexpectedOperand = errors.New("unexpected operand")

	ErrMalformedDirective = errors.New("malformed directive")
)

// SyntaxError reports a structural problem in one line. Column is 1-based and
// counts bytes of the whitespace-collapsed, macro-expanded line.
type SyntaxError struct {
	Column   int
	Fragment string
	Err      error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("column %d: %v: %q", e.Column, e.Err, e.Fragment)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// DirectiveError reports a line that has a directive's shape but not its
// field count.
type DirectiveError struct {
	Directive string
	Fields    int
	Err       error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s directive: %v: expected 3 fields, got %d", e.Directive, e.Err, e.Fields)
}

func (e *DirectiveError) Unwrap() error { return e.Err }

// LineError attaches the source position to an error raised while parsing
// one line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Column returns the column of the underlying syntax error, or 0.
func (e *LineError) Column() int {
	var se *SyntaxError
	if errors.As(e.Err, &se) {
		return se.Column
	}
	return 0
}
