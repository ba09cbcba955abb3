package blockcode

import (
	"fmt"
	"strings"
)

// remainderPreview bounds how much of the offending input an error message
// carries. Architecture codes for deep networks run to thousands of
// characters; the head is enough to locate the problem.
const remainderPreview = 60

// MalformedCodeError reports an architecture code whose delimiters do not
// balance, or whose nesting exceeds the decoder's depth ceiling.
type MalformedCodeError struct {
	Code    string // offending code, possibly a suffix of the original input
	Pos     int    // index of the opening delimiter being matched, -1 when not positional
	Message string
}

func (e *MalformedCodeError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("malformed architecture code: %s at index %d in %q",
			e.Message, e.Pos, preview(e.Code))
	}
	return fmt.Sprintf("malformed architecture code: %s in %q", e.Message, preview(e.Code))
}

// UnknownBlockTypeError reports a non-empty remainder whose head matches no
// registered block type.
type UnknownBlockTypeError struct {
	Remainder string
}

func (e *UnknownBlockTypeError) Error() string {
	return fmt.Sprintf("no registered block type matches %q", preview(e.Remainder))
}

// AmbiguousGrammarError reports an input head claimed by more than one
// registered decoder. This is a registry configuration bug, never a property
// of well-formed input against a correctly built registry.
type AmbiguousGrammarError struct {
	Remainder string
	Matches   []string // type names of every matching decoder, sorted
}

func (e *AmbiguousGrammarError) Error() string {
	return fmt.Sprintf("ambiguous grammar: types %s all match %q",
		strings.Join(e.Matches, ", "), preview(e.Remainder))
}

// InvalidParameterError reports a parameter body with the wrong arity, a
// field that does not convert to its declared type, or a block name already
// used elsewhere in the same graph.
type InvalidParameterError struct {
	TypeName string
	Field    string // offending field or name, empty for arity errors
	Message  string
}

func (e *InvalidParameterError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid parameter %q for %s: %s", e.Field, e.TypeName, e.Message)
	}
	return fmt.Sprintf("invalid parameters for %s: %s", e.TypeName, e.Message)
}

func preview(s string) string {
	if len(s) > remainderPreview {
		return s[:remainderPreview] + "..."
	}
	return s
}
