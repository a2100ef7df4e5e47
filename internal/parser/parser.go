// Package parser classifies assembled hydration payloads and recovers as
// much structured data from them as it can.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/value"
)

// DefaultMaxDepth bounds container nesting when Options.MaxDepth is unset.
const DefaultMaxDepth = 512

// Options tunes parsing.
type Options struct {
	MaxDepth int
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Result holds the items recovered from one payload. Err is set when part
// or all of the payload could not be recovered; with Items present it is
// non-fatal.
type Result struct {
	Items []hydration.Item
	Err   *hydration.Failure
}

// ParsePayload classifies text and parses it.
func ParsePayload(text string, opts Options) Result {
	return Parse(text, Classify(text), opts)
}

// Parse recovers items from text according to c. It never panics on
// malformed input; every problem is reported through Result.Err.
func Parse(text string, c Classification, opts Options) Result {
	var res recovered
	switch c.Dialect {
	case hydration.KindPlainJSON:
		v, err := Strict(c.Body, opts)
		if err == nil {
			return Result{Items: []hydration.Item{{Kind: hydration.KindPlainJSON, Value: v}}}
		}
		// Valid JSON nested past the depth limit ends up here.
		res = recoverAll(text, c.Offset, opts)

	case hydration.KindIdentifierPrefixed:
		if json.Valid([]byte(c.Body)) {
			if v, err := Strict(c.Body, opts); err == nil {
				return Result{Items: []hydration.Item{{
					Kind:       hydration.KindIdentifierPrefixed,
					Identifier: c.Identifier,
					Value:      v,
				}}}
			}
		}
		res = recoverAll(text, c.Offset, opts)
		if len(res.Items) > 0 && res.starts[0] == c.Offset {
			res.Items[0].Kind = hydration.KindIdentifierPrefixed
			res.Items[0].Identifier = c.Identifier
		}

	case hydration.KindQuotedString:
		v, f := quoted(c.Body, c.Offset)
		if f != nil {
			return Result{Err: f}
		}
		return Result{Items: []hydration.Item{{Kind: hydration.KindQuotedString, Value: v}}}

	default:
		res = recoverAll(text, c.Offset, opts)
	}

	if len(res.Items) == 0 && res.Err == nil {
		res.Err = &hydration.Failure{
			Kind:    hydration.FailureUnparsable,
			Offset:  0,
			Message: "no embedded structure found",
		}
	}
	// Truncation with nothing recovered leaves no partial item to mark.
	if len(res.Items) == 0 && res.Err != nil && res.Err.Kind == hydration.FailureTruncated {
		res.Err = &hydration.Failure{
			Kind:    hydration.FailureUnparsable,
			Offset:  res.Err.Offset,
			Message: "truncated before any structure closed: " + res.Err.Message,
		}
	}
	return res.Result
}

// Strict decodes strict JSON, keeping key order and enforcing the nesting
// limit.
func Strict(text string, opts Options) (*value.Value, error) {
	if d := nesting(text); d > opts.maxDepth() {
		return nil, fmt.Errorf("nesting depth %d exceeds limit %d", d, opts.maxDepth())
	}
	return value.FromJSON([]byte(text))
}

// nesting returns the deepest bracket nesting of a JSON text, ignoring
// brackets inside strings.
func nesting(text string) int {
	depth, deepest := 0, 0
	inString := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			deepest = max(deepest, depth)
		case '}', ']':
			depth--
		}
	}
	return deepest
}

type recovered struct {
	Result
	starts []int // payload offset of each item
}

// recoverAll searches text from offset for bracketed structures and parses
// each with the literal grammar. A structure that fails to parse is
// abandoned and the search resumes one byte after its opening bracket, so
// valid structures nested inside it are still found. The first failure is
// kept. Restarting inside a failed structure makes the worst case quadratic
// in the payload length, for many openers in one long malformed region;
// callers bound the payload size.
func recoverAll(text string, offset int, opts Options) recovered {
	var res recovered
	keep := func(f *hydration.Failure) {
		if res.Err == nil {
			res.Err = f
		}
	}

	pos := offset
	for pos < len(text) {
		i := strings.IndexAny(text[pos:], "{[")
		if i < 0 {
			break
		}
		start := pos + i

		p := &literal{src: text, pos: start, maxDepth: opts.maxDepth()}
		v, f := p.value()
		switch {
		case f == nil:
			kind := hydration.KindJSObjectLiteral
			if json.Valid([]byte(text[start:p.pos])) {
				kind = hydration.KindPlainJSON
			}
			res.Items = append(res.Items, hydration.Item{Kind: kind, Value: v})
			res.starts = append(res.starts, start)
			pos = p.pos

		case f.Kind == hydration.FailureTruncated:
			// Truncation consumed the rest of the payload.
			if v != nil {
				res.Items = append(res.Items, hydration.Item{Kind: hydration.KindJSObjectLiteral, Value: v})
				res.starts = append(res.starts, start)
			}
			keep(f)
			return res

		default:
			keep(f)
			pos = start + 1
		}
	}
	return res
}
