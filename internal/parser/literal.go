package parser

import (
	"fmt"
	"strings"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/internal/jsstr"
	"github.com/dgallion1/nexthydra/value"
)

// literal parses the JavaScript object-literal superset of JSON: unquoted
// and numeric keys, single- or double-quoted strings, undefined, and
// trailing commas.
//
// At end of input open containers are closed implicitly. A scalar only
// survives once its terminator was seen (closing quote for strings, a
// following delimiter for numbers and keywords) and an open container
// survives only if it holds at least one completed member. Anything cut
// short reports a truncated_structure failure alongside whatever survived.
type literal struct {
	src      string
	pos      int
	depth    int
	maxDepth int
}

func (p *literal) fail(kind hydration.FailureKind, format string, args ...any) *hydration.Failure {
	return &hydration.Failure{Kind: kind, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *literal) truncated() *hydration.Failure {
	return p.fail(hydration.FailureTruncated, "unexpected end of input")
}

func (p *literal) eof() bool {
	return p.pos >= len(p.src)
}

func (p *literal) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

// value parses one value at the cursor. A non-nil value together with a
// truncated failure is a partial container.
func (p *literal) value() (*value.Value, *hydration.Failure) {
	p.skipSpace()
	if p.eof() {
		return nil, p.truncated()
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case isQuote(c):
		s, f := p.str()
		if f != nil {
			return nil, f
		}
		return value.Str(s), nil
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.number()
	case isWordStart(c):
		return p.keyword()
	default:
		return nil, p.fail(hydration.FailureUnparsable, "unexpected character %q", c)
	}
}

func (p *literal) enter() *hydration.Failure {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return p.fail(hydration.FailureUnparsable, "nesting deeper than %d", p.maxDepth)
	}
	return nil
}

// partial closes an open container at end of input.
func partial(v *value.Value, f *hydration.Failure) (*value.Value, *hydration.Failure) {
	if v.Len() == 0 {
		return nil, f
	}
	return v, f
}

func (p *literal) object() (*value.Value, *hydration.Failure) {
	if f := p.enter(); f != nil {
		return nil, f
	}
	defer func() { p.depth-- }()
	p.pos++ // {

	obj := value.Map()
	for {
		p.skipSpace()
		if p.eof() {
			return partial(obj, p.truncated())
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return obj, nil
		}

		key, f := p.key()
		if f != nil {
			if f.Kind == hydration.FailureTruncated {
				return partial(obj, f)
			}
			return nil, f
		}

		p.skipSpace()
		if p.eof() {
			return partial(obj, p.truncated())
		}
		if p.src[p.pos] != ':' {
			return nil, p.fail(hydration.FailureUnparsable, "expected ':' after key %q", key)
		}
		p.pos++

		val, f := p.value()
		if f != nil {
			if f.Kind != hydration.FailureTruncated {
				return nil, f
			}
			if val != nil {
				obj.Set(key, val)
			}
			return partial(obj, f)
		}
		obj.Set(key, val)

		p.skipSpace()
		if p.eof() {
			return partial(obj, p.truncated())
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, p.fail(hydration.FailureUnparsable, "expected ',' or '}' in object")
		}
	}
}

func (p *literal) array() (*value.Value, *hydration.Failure) {
	if f := p.enter(); f != nil {
		return nil, f
	}
	defer func() { p.depth-- }()
	p.pos++ // [

	arr := value.Seq()
	for {
		p.skipSpace()
		if p.eof() {
			return partial(arr, p.truncated())
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return arr, nil
		}

		val, f := p.value()
		if f != nil {
			if f.Kind != hydration.FailureTruncated {
				return nil, f
			}
			if val != nil {
				arr.Append(val)
			}
			return partial(arr, f)
		}
		arr.Append(val)

		p.skipSpace()
		if p.eof() {
			return partial(arr, p.truncated())
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, p.fail(hydration.FailureUnparsable, "expected ',' or ']' in array")
		}
	}
}

// key parses a quoted, bare-identifier or numeric mapping key.
func (p *literal) key() (string, *hydration.Failure) {
	c := p.src[p.pos]
	switch {
	case isQuote(c):
		return p.str()
	case isWordStart(c) || isDigit(c):
		start := p.pos
		for p.pos < len(p.src) && (isWordPart(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		if p.eof() {
			return "", p.truncated()
		}
		return p.src[start:p.pos], nil
	default:
		return "", p.fail(hydration.FailureUnparsable, "unexpected character %q where key expected", c)
	}
}

// str parses a quoted string at the cursor.
func (p *literal) str() (string, *hydration.Failure) {
	quote := p.src[p.pos]
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case quote:
			raw := p.src[start+1 : p.pos]
			p.pos++
			s, ok := jsstr.Unescape(raw)
			if !ok {
				return "", &hydration.Failure{
					Kind:    hydration.FailureUnparsable,
					Offset:  start,
					Message: "invalid escape sequence in string",
				}
			}
			return s, nil
		default:
			p.pos++
		}
	}
	p.pos = len(p.src)
	return "", p.truncated()
}

func (p *literal) number() (*value.Value, *hydration.Failure) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	digits := p.digits()
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		digits += p.digits()
	}
	if digits == 0 {
		if p.eof() {
			return nil, p.truncated()
		}
		return nil, p.fail(hydration.FailureUnparsable, "malformed number %q", p.src[start:p.pos])
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
			p.pos++
		}
		if p.digits() == 0 {
			if p.eof() {
				return nil, p.truncated()
			}
			return nil, p.fail(hydration.FailureUnparsable, "malformed exponent in %q", p.src[start:p.pos])
		}
	}
	if p.eof() {
		return nil, p.truncated()
	}
	if isWordPart(p.src[p.pos]) {
		return nil, p.fail(hydration.FailureUnparsable, "malformed number %q", p.src[start:p.pos+1])
	}

	v, err := value.Number(strings.TrimPrefix(p.src[start:p.pos], "+"))
	if err != nil {
		return nil, &hydration.Failure{Kind: hydration.FailureUnparsable, Offset: start, Message: err.Error()}
	}
	return v, nil
}

func (p *literal) digits() int {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	return p.pos - start
}

var keywords = map[string]func() *value.Value{
	"true":      func() *value.Value { return value.Bool(true) },
	"false":     func() *value.Value { return value.Bool(false) },
	"null":      value.Null,
	"undefined": value.Null,
}

func (p *literal) keyword() (*value.Value, *hydration.Failure) {
	start := p.pos
	for p.pos < len(p.src) && isWordPart(p.src[p.pos]) {
		p.pos++
	}
	word := p.src[start:p.pos]
	if p.eof() {
		for k := range keywords {
			if strings.HasPrefix(k, word) {
				return nil, p.truncated()
			}
		}
	}
	mk, ok := keywords[word]
	if !ok {
		p.pos = start
		return nil, p.fail(hydration.FailureUnparsable, "unexpected identifier %q", word)
	}
	return mk(), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isWordStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$'
}

func isWordPart(c byte) bool {
	return isWordStart(c) || isDigit(c)
}
