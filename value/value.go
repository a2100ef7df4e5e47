// Package value holds the in-memory representation of parsed hydration
// payloads. JSON and JavaScript-literal payloads decode into the same tree.
package value

import (
	"fmt"
	"math"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is a tagged union over null, bool, number, string, sequence and
// mapping. A nil *Value reads as null.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	floatVal float64
	integral bool
	strVal   string

	items   []*Value
	entries []Entry
}

// Entry is one key/value pair of a mapping.
type Entry struct {
	Key   string
	Value *Value
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{kind: KindBool, boolVal: v}
}

// Int creates an integral number.
func Int(v int64) *Value {
	return &Value{kind: KindNumber, intVal: v, floatVal: float64(v), integral: true}
}

// Float creates a floating point number.
func Float(v float64) *Value {
	return &Value{kind: KindNumber, floatVal: v}
}

// Str creates a string value.
func Str(v string) *Value {
	return &Value{kind: KindString, strVal: v}
}

// Seq creates a sequence from the given elements.
func Seq(items ...*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{kind: KindSequence, items: items}
}

// Map creates a mapping from entries. Repeated keys keep the first
// position and the last value.
func Map(entries ...Entry) *Value {
	v := &Value{kind: KindMapping, entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		v.Set(e.Key, e.Value)
	}
	return v
}

// E is shorthand for building an Entry.
func E(key string, val *Value) Entry {
	return Entry{Key: key, Value: val}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the variant tag.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is null.
func (v *Value) IsNull() bool {
	return v == nil || v.kind == KindNull
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if v.Kind() != KindBool {
		return false, fmt.Errorf("value: expected bool, got %s", v.Kind())
	}
	return v.boolVal, nil
}

// AsInt returns an integral number.
func (v *Value) AsInt() (int64, error) {
	if v.Kind() != KindNumber {
		return 0, fmt.Errorf("value: expected number, got %s", v.Kind())
	}
	if !v.integral {
		return 0, fmt.Errorf("value: number %v is not integral", v.floatVal)
	}
	return v.intVal, nil
}

// AsFloat returns any number as float64.
func (v *Value) AsFloat() (float64, error) {
	if v.Kind() != KindNumber {
		return 0, fmt.Errorf("value: expected number, got %s", v.Kind())
	}
	return v.floatVal, nil
}

// IsIntegral reports whether v is a number parsed from an integer literal.
func (v *Value) IsIntegral() bool {
	return v.Kind() == KindNumber && v.integral
}

// AsStr returns the string value.
func (v *Value) AsStr() (string, error) {
	if v.Kind() != KindString {
		return "", fmt.Errorf("value: expected string, got %s", v.Kind())
	}
	return v.strVal, nil
}

// Items returns the elements of a sequence, or nil for other kinds.
func (v *Value) Items() []*Value {
	if v.Kind() != KindSequence {
		return nil
	}
	return v.items
}

// Entries returns the entries of a mapping in insertion order, or nil.
func (v *Value) Entries() []Entry {
	if v.Kind() != KindMapping {
		return nil
	}
	return v.entries
}

// Keys returns mapping keys in insertion order.
func (v *Value) Keys() []string {
	entries := v.Entries()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the length of a sequence or mapping, 0 otherwise.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.entries)
	default:
		return 0
	}
}

// Get returns the value under key, or nil when absent or v is not a mapping.
func (v *Value) Get(key string) *Value {
	for _, e := range v.Entries() {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Index returns the i-th element of a sequence.
func (v *Value) Index(i int) (*Value, error) {
	if v.Kind() != KindSequence {
		return nil, fmt.Errorf("value: not a sequence")
	}
	if i < 0 || i >= len(v.items) {
		return nil, fmt.Errorf("value: index %d out of bounds (len=%d)", i, len(v.items))
	}
	return v.items[i], nil
}

// ============================================================
// Mutators
// ============================================================

// Set stores val under key, replacing an existing entry in place.
func (v *Value) Set(key string, val *Value) {
	if v.kind != KindMapping {
		panic("value: cannot set on non-mapping")
	}
	for i := range v.entries {
		if v.entries[i].Key == key {
			v.entries[i].Value = val
			return
		}
	}
	v.entries = append(v.entries, Entry{Key: key, Value: val})
}

// Append adds an element to a sequence.
func (v *Value) Append(val *Value) {
	if v.kind != KindSequence {
		panic("value: cannot append to non-sequence")
	}
	v.items = append(v.items, val)
}

// ============================================================
// Comparison
// ============================================================

// Equal reports structural equality. Mapping order is significant and
// integral and floating numbers compare by numeric value.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindNumber:
		if a.integral && b.integral {
			return a.intVal == b.intVal
		}
		return a.floatVal == b.floatVal || (math.IsNaN(a.floatVal) && math.IsNaN(b.floatVal))
	case KindString:
		return a.strVal == b.strVal
	case KindSequence:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for i := range a.entries {
			if a.entries[i].Key != b.entries[i].Key || !Equal(a.entries[i].Value, b.entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
