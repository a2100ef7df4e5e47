// Package hydration defines the records produced when extracting Next.js
// hydration chunks from an HTML document.
package hydration

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/nexthydra/value"
)

// RawFragment is one push-call payload found in the source document.
type RawFragment struct {
	ChunkID  int    `json:"chunk_id"`
	Payload  string `json:"payload"`
	Position int    `json:"position"` // byte offset of the call in the source
}

// Kind is the syntactic dialect an item was parsed from.
type Kind string

const (
	KindPlainJSON          Kind = "plain_json"
	KindIdentifierPrefixed Kind = "identifier_prefixed"
	KindJSObjectLiteral    Kind = "js_object_literal"
	KindQuotedString       Kind = "quoted_string"
)

// Item is one structure recovered from a chunk payload.
type Item struct {
	Kind       Kind         `json:"type"`
	Identifier string       `json:"identifier,omitempty"` // IdentifierPrefixed only
	Value      *value.Value `json:"data"`
}

// FailureKind classifies parse failures attached to a record.
type FailureKind string

const (
	FailureTruncated          FailureKind = "truncated_structure"
	FailureUnparsable         FailureKind = "unparsable_content"
	FailureUnterminatedString FailureKind = "unterminated_string"
)

// Failure describes why a payload was not fully recovered. Offset is
// relative to the assembled payload text.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Offset  int         `json:"offset"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", f.Kind, f.Offset, f.Message)
}

// ErrorChunkID replaces the chunk id of records that recovered nothing.
const ErrorChunkID = -1

// ChunkRecord is the reassembled, parsed result for one chunk id.
type ChunkRecord struct {
	ChunkID       int      `json:"-"`
	SourceID      int      `json:"source_id"`
	FragmentCount int      `json:"chunk_count"`
	Positions     []int    `json:"positions"`
	Items         []Item   `json:"extracted_data"`
	Error         *Failure `json:"error,omitempty"`
	Raw           string   `json:"raw_content,omitempty"` // error records only
}

// IsError reports whether the record carries the error marker.
func (r *ChunkRecord) IsError() bool {
	return r.ChunkID == ErrorChunkID
}

// IsPartial reports whether items were recovered alongside a failure.
func (r *ChunkRecord) IsPartial() bool {
	return !r.IsError() && r.Error != nil
}

// Label returns the chunk id as text, or "error" for error records.
func (r *ChunkRecord) Label() string {
	if r.IsError() {
		return "error"
	}
	return fmt.Sprintf("%d", r.ChunkID)
}

// MarshalJSON renders chunk_id as a number, or the string "error" for
// error records.
func (r ChunkRecord) MarshalJSON() ([]byte, error) {
	type plain ChunkRecord
	var id any = r.ChunkID
	if r.IsError() {
		id = "error"
	}
	items := r.Items
	if items == nil {
		items = []Item{}
	}
	p := plain(r)
	p.Items = items
	return json.Marshal(struct {
		ChunkID any `json:"chunk_id"`
		plain
	}{ChunkID: id, plain: p})
}

// PatternMatch is one search hit inside a record's items.
type PatternMatch struct {
	Path  string       `json:"path"`
	Value *value.Value `json:"value"`
}

// Summary aggregates per-document extraction statistics.
type Summary struct {
	Chunks        int          `json:"chunks"`
	ErrorChunks   int          `json:"error_chunks"`
	PartialChunks int          `json:"partial_chunks"`
	Items         int          `json:"items"`
	Fragments     int          `json:"fragments"`
	Kinds         map[Kind]int `json:"kinds"`
	MultiFragment []int        `json:"multi_fragment_chunks"` // source ids assembled from >1 fragment
}

// Summarize computes a Summary over records.
func Summarize(records []ChunkRecord) Summary {
	s := Summary{
		Kinds:         make(map[Kind]int),
		MultiFragment: []int{},
	}
	for i := range records {
		r := &records[i]
		s.Chunks++
		s.Fragments += r.FragmentCount
		s.Items += len(r.Items)
		switch {
		case r.IsError():
			s.ErrorChunks++
		case r.IsPartial():
			s.PartialChunks++
		}
		if r.FragmentCount > 1 {
			s.MultiFragment = append(s.MultiFragment, r.SourceID)
		}
		for _, it := range r.Items {
			s.Kinds[it.Kind]++
		}
	}
	return s
}
