package parser

import (
	"encoding/json"
	"strings"

	"github.com/dgallion1/nexthydra/hydration"
)

// Classification is the dialect chosen for an assembled payload.
type Classification struct {
	Dialect    hydration.Kind
	Identifier string // IdentifierPrefixed only
	Body       string // text the parser should start from
	Offset     int    // byte offset of Body within the payload
}

// Classify picks the dialect of payload. Rules are applied in order:
//
//  1. <identifier>:{... or <identifier>:[... is IdentifierPrefixed. The
//     identifier runs up to the colon right before the first bracket, so a
//     base64 tag such as base64:eyJ9:{...} keeps its inner colon.
//  2. text starting with a bracket is PlainJSON when strictly valid,
//     otherwise JSObjectLiteral.
//  3. text wrapped in matching quotes is QuotedString.
//  4. anything else is JSObjectLiteral and gets an embedded-structure search.
func Classify(payload string) Classification {
	trimmed := strings.TrimSpace(payload)
	lead := len(payload) - len(strings.TrimLeft(payload, whitespace))

	if id, at, ok := identifierPrefix(trimmed); ok {
		return Classification{
			Dialect:    hydration.KindIdentifierPrefixed,
			Identifier: id,
			Body:       trimmed[at:],
			Offset:     lead + at,
		}
	}

	if trimmed != "" && (trimmed[0] == '{' || trimmed[0] == '[') {
		kind := hydration.KindJSObjectLiteral
		if json.Valid([]byte(trimmed)) {
			kind = hydration.KindPlainJSON
		}
		return Classification{Dialect: kind, Body: trimmed, Offset: lead}
	}

	if len(trimmed) >= 2 && isQuote(trimmed[0]) && trimmed[len(trimmed)-1] == trimmed[0] {
		return Classification{Dialect: hydration.KindQuotedString, Body: trimmed, Offset: lead}
	}

	return Classification{Dialect: hydration.KindJSObjectLiteral, Body: payload}
}

const whitespace = " \t\r\n"

// identifierPrefix reports the identifier and the index of the bracket that
// follows it.
func identifierPrefix(s string) (string, int, bool) {
	at := strings.IndexAny(s, "{[")
	if at < 2 || s[at-1] != ':' {
		return "", 0, false
	}
	id := s[:at-1]
	for i := 0; i < len(id); i++ {
		if !isIdentifierByte(id[i]) {
			return "", 0, false
		}
	}
	return id, at, true
}

func isIdentifierByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '_', ':', '-', '+', '/', '=':
		return true
	}
	return false
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}
