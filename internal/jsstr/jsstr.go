// Package jsstr decodes the escape sequences of JavaScript string literals.
package jsstr

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Unescape decodes raw, the text between a string literal's quotes. It
// reports false for a dangling backslash or a malformed \x or \u sequence.
func Unescape(raw string) (string, bool) {
	return decode(raw, false)
}

// UnescapeLenient is like Unescape but never fails: a malformed \x or \u
// keeps its letter and a dangling backslash is dropped. The flight scanner
// uses it so that one odd escape costs a character, not a whole fragment of
// a chunk that other fragments continue.
func UnescapeLenient(raw string) string {
	s, _ := decode(raw, true)
	return s
}

func decode(raw string, lenient bool) (string, bool) {
	if !strings.Contains(raw, `\`) {
		return raw, true
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); {
		if raw[i] != '\\' {
			j := strings.IndexByte(raw[i:], '\\')
			if j < 0 {
				b.WriteString(raw[i:])
				break
			}
			b.WriteString(raw[i : i+j])
			i += j
			continue
		}
		if i+1 >= len(raw) {
			if lenient {
				break
			}
			return "", false
		}
		e := raw[i+1]
		i += 2
		switch e {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i < len(raw) && raw[i] == '\n' {
				i++
			}
		case 'x':
			r, ok := hexRune(raw, i, 2)
			if !ok {
				if !lenient {
					return "", false
				}
				b.WriteByte('x')
				continue
			}
			b.WriteRune(r)
			i += 2
		case 'u':
			r, ok := hexRune(raw, i, 4)
			if !ok {
				if !lenient {
					return "", false
				}
				b.WriteByte('u')
				continue
			}
			i += 4
			if utf16.IsSurrogate(r) && strings.HasPrefix(raw[i:], `\u`) {
				if r2, ok := hexRune(raw, i+2, 4); ok {
					if pair := utf16.DecodeRune(r, r2); pair != utf8.RuneError {
						r = pair
						i += 6
					}
				}
			}
			b.WriteRune(r)
		default:
			b.WriteByte(e)
		}
	}
	return b.String(), true
}

// hexRune parses n hex digits of s starting at i.
func hexRune(s string, i, n int) (rune, bool) {
	if i+n > len(s) {
		return 0, false
	}
	var r rune
	for _, c := range []byte(s[i : i+n]) {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			r |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}
	return r, true
}
