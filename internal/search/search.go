// Package search walks the value trees of extracted chunk records.
package search

import (
	"strconv"
	"strings"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/value"
)

// DefaultKeyDepth is the key-collection depth used when callers have no
// preference.
const DefaultKeyDepth = 3

// FindByPattern returns every mapping key and string value containing
// pattern, in depth-first order: records, then items, then mapping
// insertion order and sequence index order. A key match reports the key's
// value; a string match reports the string. An empty pattern matches
// nothing.
func FindByPattern(records []hydration.ChunkRecord, pattern string, caseSensitive bool) []hydration.PatternMatch {
	if pattern == "" {
		return nil
	}
	m := matcher{pattern: pattern, fold: !caseSensitive}
	if m.fold {
		m.pattern = strings.ToLower(pattern)
	}

	for i := range records {
		r := &records[i]
		for j, item := range r.Items {
			path := "chunk_" + r.Label() + ".items[" + strconv.Itoa(j) + "]"
			m.walk(item.Value, path)
		}
	}
	return m.matches
}

type matcher struct {
	pattern string
	fold    bool
	matches []hydration.PatternMatch
}

func (m *matcher) contains(s string) bool {
	if m.fold {
		s = strings.ToLower(s)
	}
	return strings.Contains(s, m.pattern)
}

func (m *matcher) walk(v *value.Value, path string) {
	switch v.Kind() {
	case value.KindString:
		if s, _ := v.AsStr(); m.contains(s) {
			m.matches = append(m.matches, hydration.PatternMatch{Path: path, Value: v})
		}
	case value.KindSequence:
		for i, item := range v.Items() {
			m.walk(item, path+"["+strconv.Itoa(i)+"]")
		}
	case value.KindMapping:
		for _, e := range v.Entries() {
			child := JoinKey(path, e.Key)
			if m.contains(e.Key) {
				m.matches = append(m.matches, hydration.PatternMatch{Path: child, Value: e.Value})
			}
			m.walk(e.Value, child)
		}
	}
}

// JoinKey appends a mapping key to path, as .key for identifier-like keys
// and as ["key"] otherwise.
func JoinKey(path, key string) string {
	if isIdentifier(key) {
		return path + "." + key
	}
	return path + "[" + strconv.Quote(key) + "]"
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '$':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// CollectKeys counts mapping keys across all items. Keys of an item's root
// mapping are at depth 0 and only keys at depth < maxDepth are counted.
// Sequences do not add depth: a mapping inside a sequence sits at the
// sequence's own depth.
func CollectKeys(records []hydration.ChunkRecord, maxDepth int) map[string]int {
	counts := make(map[string]int)
	for i := range records {
		for _, item := range records[i].Items {
			countKeys(item.Value, 0, maxDepth, counts)
		}
	}
	return counts
}

func countKeys(v *value.Value, depth, maxDepth int, counts map[string]int) {
	if depth >= maxDepth {
		return
	}
	switch v.Kind() {
	case value.KindSequence:
		for _, item := range v.Items() {
			countKeys(item, depth, maxDepth, counts)
		}
	case value.KindMapping:
		for _, e := range v.Entries() {
			counts[e.Key]++
			countKeys(e.Value, depth+1, maxDepth, counts)
		}
	}
}
