package blockcode

import (
	"github.com/modelsmith/archforge/pkgs/invariant"
)

// FindMatchingClose returns the index of the ')' that closes the '(' at
// openIndex, accounting for nested parentheses. The character at openIndex
// must be '('; calling it on anything else is a caller bug. An input that
// runs out before the delimiter closes yields a MalformedCodeError.
func FindMatchingClose(code string, openIndex int) (int, error) {
	invariant.InRange(openIndex, 0, len(code)-1, "openIndex")
	invariant.Precondition(code[openIndex] == '(', "character at openIndex must be '('")

	depth := 0
	for i := openIndex; i < len(code); i++ {
		switch code[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, &MalformedCodeError{Code: code, Pos: openIndex, Message: "unbalanced parentheses"}
}
