package parser

import (
	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/internal/jsstr"
	"github.com/dgallion1/nexthydra/value"
)

// quoted parses a payload that is a single quoted string literal.
func quoted(body string, offset int) (*value.Value, *hydration.Failure) {
	quote := body[0]
	inner := body[1 : len(body)-1]

	unterminated := func(at int, msg string) *hydration.Failure {
		return &hydration.Failure{Kind: hydration.FailureUnterminatedString, Offset: offset + at, Message: msg}
	}

	// The closing quote is escaped when an odd run of backslashes precedes it.
	run := 0
	for i := len(inner) - 1; i >= 0 && inner[i] == '\\'; i-- {
		run++
	}
	if run%2 == 1 {
		return nil, unterminated(len(body)-1, "closing quote is escaped")
	}
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '\\':
			i++
		case quote:
			return nil, unterminated(i+1, "unescaped quote inside string")
		}
	}

	s, ok := jsstr.Unescape(inner)
	if !ok {
		return nil, unterminated(1, "invalid escape sequence")
	}
	return value.Str(s), nil
}
