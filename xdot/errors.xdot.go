package xdot

import "fmt"

// ParseError reports a draw string the grammar does not accept.
type ParseError struct {
	Input     string
	Offset    int
	Remainder string // unconsumed input starting at Offset
	Reason    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("xdot: %s at offset %d: %q", e.Reason, e.Offset, e.Remainder)
}

func newParseError(input string, offset int, reason string) *ParseError {
	if offset > len(input) {
		offset = len(input)
	}
	return &ParseError{
		Input:     input,
		Offset:    offset,
		Remainder: input[offset:],
		Reason:    reason,
	}
}
