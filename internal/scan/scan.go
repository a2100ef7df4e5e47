// Package scan locates Next.js flight push calls in raw HTML text.
//
// A call looks like
//
//	self.__next_f.push([1,"{\"a\":1}"])
//
// and carries a chunk id and a JavaScript string literal holding one
// fragment of that chunk's payload. Matching is done by a byte cursor, not
// a regular expression, so scanning stays linear in the input size.
package scan

import (
	"iter"
	"strings"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/internal/jsstr"
)

const (
	callPattern = "__next_f.push("
	selfPrefix  = "self."
)

// Fragments yields every well-formed push call in html in source order.
// Each range over the returned sequence rescans from the start.
func Fragments(html string) iter.Seq[hydration.RawFragment] {
	return func(yield func(hydration.RawFragment) bool) {
		scanText(html, 0, yield)
	}
}

// Collect drains a fragment sequence into a slice.
func Collect(seq iter.Seq[hydration.RawFragment]) []hydration.RawFragment {
	var out []hydration.RawFragment
	for f := range seq {
		out = append(out, f)
	}
	return out
}

// scanText scans text and reports fragments with positions shifted by base.
// It returns false when yield asked to stop.
func scanText(text string, base int, yield func(hydration.RawFragment) bool) bool {
	from := 0
	for from < len(text) {
		i := strings.Index(text[from:], callPattern)
		if i < 0 {
			return true
		}
		start := from + i
		next := start + len(callPattern)

		pos := start
		if start >= len(selfPrefix) && text[start-len(selfPrefix):start] == selfPrefix {
			pos = start - len(selfPrefix)
		}

		c := cursor{src: text, pos: next}
		if id, payload, ok := c.call(); ok {
			if !yield(hydration.RawFragment{ChunkID: id, Payload: payload, Position: base + pos}) {
				return false
			}
			next = c.pos
		}
		from = next
	}
	return true
}

// cursor walks the argument list of a single push call.
type cursor struct {
	src string
	pos int
}

func (c *cursor) peek() byte {
	if c.pos >= len(c.src) {
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) skipSpace() {
	for c.pos < len(c.src) {
		switch c.src[c.pos] {
		case ' ', '\t', '\n', '\r':
			c.pos++
		default:
			return
		}
	}
}

func (c *cursor) expect(b byte) bool {
	c.skipSpace()
	if c.peek() != b {
		return false
	}
	c.pos++
	return true
}

// call matches `[ <digits> , <string> ] )` after the opening parenthesis.
func (c *cursor) call() (int, string, bool) {
	if !c.expect('[') {
		return 0, "", false
	}
	c.skipSpace()
	id, ok := c.chunkID()
	if !ok {
		return 0, "", false
	}
	if !c.expect(',') {
		return 0, "", false
	}
	c.skipSpace()
	payload, ok := c.stringLiteral()
	if !ok {
		return 0, "", false
	}
	if !c.expect(']') || !c.expect(')') {
		return 0, "", false
	}
	return id, payload, true
}

const maxChunkIDDigits = 9

func (c *cursor) chunkID() (int, bool) {
	start := c.pos
	n := 0
	for c.pos < len(c.src) && c.src[c.pos] >= '0' && c.src[c.pos] <= '9' {
		if c.pos-start >= maxChunkIDDigits {
			return 0, false
		}
		n = n*10 + int(c.src[c.pos]-'0')
		c.pos++
	}
	return n, c.pos > start
}

// stringLiteral decodes a single- or double-quoted JavaScript string.
// Escapes are decoded leniently; see jsstr.UnescapeLenient.
func (c *cursor) stringLiteral() (string, bool) {
	quote := c.peek()
	if quote != '"' && quote != '\'' {
		return "", false
	}
	c.pos++
	start := c.pos

	stops := string([]byte{quote, '\\', '<'})
	for c.pos < len(c.src) {
		i := strings.IndexAny(c.src[c.pos:], stops)
		if i < 0 {
			break
		}
		c.pos += i
		switch c.src[c.pos] {
		case quote:
			raw := c.src[start:c.pos]
			c.pos++
			return jsstr.UnescapeLenient(raw), true
		case '\\':
			c.pos += 2
		default:
			// A script body cannot contain its own end tag.
			if closesScript(c.src[c.pos:]) {
				return "", false
			}
			c.pos++
		}
	}
	return "", false
}

func closesScript(s string) bool {
	const tag = "</script"
	return len(s) >= len(tag) && strings.EqualFold(s[:len(tag)], tag)
}
