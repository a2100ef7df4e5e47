package chunker

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"testing"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/value"
)

func fragments(frags ...hydration.RawFragment) iter.Seq[hydration.RawFragment] {
	return slices.Values(frags)
}

func TestAssemble_MultiFragmentReassembly(t *testing.T) {
	records := Assemble(fragments(
		hydration.RawFragment{ChunkID: 5, Payload: `{"a":1,`, Position: 10},
		hydration.RawFragment{ChunkID: 5, Payload: `"b":2}`, Position: 90},
	), DefaultConfig())

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ChunkID != 5 || r.FragmentCount != 2 {
		t.Errorf("expected chunk 5 with 2 fragments, got id=%d count=%d", r.ChunkID, r.FragmentCount)
	}
	if !slices.Equal(r.Positions, []int{10, 90}) {
		t.Errorf("expected positions [10 90], got %v", r.Positions)
	}
	if r.Error != nil {
		t.Fatalf("unexpected failure: %v", r.Error)
	}
	want := value.Map(value.E("a", value.Int(1)), value.E("b", value.Int(2)))
	if len(r.Items) != 1 || !value.Equal(r.Items[0].Value, want) {
		t.Errorf("expected %s, got %+v", want, r.Items)
	}
}

func TestAssemble_SplitMidToken(t *testing.T) {
	records := Assemble(fragments(
		hydration.RawFragment{ChunkID: 1, Payload: `{"na`},
		hydration.RawFragment{ChunkID: 1, Payload: `me":"Lap`},
		hydration.RawFragment{ChunkID: 1, Payload: `top"}`},
	), DefaultConfig())
	if got := records[0].Items[0].Value.String(); got != `{"name":"Laptop"}` {
		t.Errorf("expected exact concatenation, got %s", got)
	}
}

func TestAssemble_ErrorIsolation(t *testing.T) {
	records := Assemble(fragments(
		hydration.RawFragment{ChunkID: 1, Payload: `{"x":1}`, Position: 0},
		hydration.RawFragment{ChunkID: 2, Payload: `{broken: json,`, Position: 50},
		hydration.RawFragment{ChunkID: 3, Payload: `{"y":2}`, Position: 100},
	), DefaultConfig())

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].SourceID != 1 || records[0].IsError() {
		t.Errorf("record 1 should be a normal record: %+v", records[0])
	}
	if got := records[0].Items[0].Value.String(); got != `{"x":1}` {
		t.Errorf("record 1 value: %s", got)
	}

	bad := records[1]
	if !bad.IsError() || bad.ChunkID != hydration.ErrorChunkID {
		t.Errorf("record 2 should be an error record: %+v", bad)
	}
	if bad.SourceID != 2 {
		t.Errorf("error record should keep source id 2, got %d", bad.SourceID)
	}
	if bad.Raw != `{broken: json,` {
		t.Errorf("error record should keep raw payload, got %q", bad.Raw)
	}
	if bad.Error == nil || bad.Error.Kind != hydration.FailureUnparsable {
		t.Errorf("expected unparsable failure, got %+v", bad.Error)
	}
	if !slices.Equal(bad.Positions, []int{50}) {
		t.Errorf("error record positions: %v", bad.Positions)
	}

	if got := records[2].Items[0].Value.String(); got != `{"y":2}` {
		t.Errorf("record 3 value: %s", got)
	}
}

func TestAssemble_PartialRecordIsNotAnError(t *testing.T) {
	records := Assemble(fragments(
		hydration.RawFragment{ChunkID: 4, Payload: `{"a": [1,2,`},
	), DefaultConfig())
	r := records[0]
	if r.IsError() {
		t.Fatalf("partial record should keep its chunk id, got %+v", r)
	}
	if !r.IsPartial() || r.Error.Kind != hydration.FailureTruncated {
		t.Errorf("expected non-fatal truncated failure, got %+v", r.Error)
	}
	if r.Raw != "" {
		t.Errorf("raw payload should only be kept for error records")
	}
}

func TestAssemble_TruncatedWithoutItemsIsError(t *testing.T) {
	records := Assemble(fragments(
		hydration.RawFragment{ChunkID: 6, Payload: `{"a": `},
	), DefaultConfig())
	r := records[0]
	if !r.IsError() || r.SourceID != 6 {
		t.Fatalf("expected error record for chunk 6, got %+v", r)
	}
	if r.Error == nil || r.Error.Kind != hydration.FailureUnparsable {
		t.Errorf("expected unparsable failure, got %+v", r.Error)
	}
	if r.Raw != `{"a": ` {
		t.Errorf("error record should keep raw payload, got %q", r.Raw)
	}
}

func TestAssemble_FirstSeenOrder(t *testing.T) {
	records := Assemble(fragments(
		hydration.RawFragment{ChunkID: 9, Payload: `[`},
		hydration.RawFragment{ChunkID: 2, Payload: `{"b":1}`},
		hydration.RawFragment{ChunkID: 9, Payload: `1]`},
		hydration.RawFragment{ChunkID: 0, Payload: `"s"`},
	), DefaultConfig())

	var ids []int
	for _, r := range records {
		ids = append(ids, r.ChunkID)
	}
	if !slices.Equal(ids, []int{9, 2, 0}) {
		t.Errorf("expected first-seen order [9 2 0], got %v", ids)
	}
	if got := records[0].Items[0].Value.String(); got != "[1]" {
		t.Errorf("chunk 9 value: %s", got)
	}
}

func TestAssemble_Empty(t *testing.T) {
	if records := Assemble(fragments(), DefaultConfig()); len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestAssemble_ParallelMatchesSequential(t *testing.T) {
	var frags []hydration.RawFragment
	for i := range 50 {
		payload := fmt.Sprintf(`{"id":%d,"name":"item %d"}`, i, i)
		if i%7 == 0 {
			payload = "not structured " + strings.Repeat("x", i)
		}
		half := len(payload) / 2
		frags = append(frags,
			hydration.RawFragment{ChunkID: i, Payload: payload[:half], Position: i * 2},
			hydration.RawFragment{ChunkID: i, Payload: payload[half:], Position: i*2 + 1},
		)
	}

	seq := Assemble(slices.Values(frags), DefaultConfig())
	cfg := DefaultConfig()
	cfg.Workers = 8
	par := Assemble(slices.Values(frags), cfg)

	if len(seq) != len(par) {
		t.Fatalf("length mismatch: %d vs %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i].ChunkID != par[i].ChunkID || seq[i].SourceID != par[i].SourceID {
			t.Fatalf("record %d differs: %d/%d vs %d/%d", i, seq[i].ChunkID, seq[i].SourceID, par[i].ChunkID, par[i].SourceID)
		}
		if len(seq[i].Items) != len(par[i].Items) {
			t.Fatalf("record %d item count differs", i)
		}
		for j := range seq[i].Items {
			if !value.Equal(seq[i].Items[j].Value, par[i].Items[j].Value) {
				t.Errorf("record %d item %d differs", i, j)
			}
		}
	}
}
