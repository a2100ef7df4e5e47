package search

import (
	"maps"
	"testing"

	"github.com/dgallion1/nexthydra/hydration"
	"github.com/dgallion1/nexthydra/value"
)

func record(id int, vals ...*value.Value) hydration.ChunkRecord {
	r := hydration.ChunkRecord{ChunkID: id, SourceID: id, FragmentCount: 1, Positions: []int{0}}
	for _, v := range vals {
		r.Items = append(r.Items, hydration.Item{Kind: hydration.KindPlainJSON, Value: v})
	}
	return r
}

func mustJSON(t *testing.T, s string) *value.Value {
	t.Helper()
	v, err := value.FromJSON([]byte(s))
	if err != nil {
		t.Fatalf("bad fixture %q: %v", s, err)
	}
	return v
}

func TestFindByPattern_KeyMatchReturnsValue(t *testing.T) {
	records := []hydration.ChunkRecord{
		record(1, mustJSON(t, `{"products":[{"id":1,"name":"Laptop"}]}`)),
	}
	matches := FindByPattern(records, "product", false)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(matches), matches)
	}
	if matches[0].Path != "chunk_1.items[0].products" {
		t.Errorf("unexpected path %q", matches[0].Path)
	}
	if got := matches[0].Value.String(); got != `[{"id":1,"name":"Laptop"}]` {
		t.Errorf("expected the products array, got %s", got)
	}
}

func TestFindByPattern_TraversalOrderAndPaths(t *testing.T) {
	records := []hydration.ChunkRecord{
		record(3, mustJSON(t, `{"user":{"name":"Ann","tags":["admin","user-x"]},"data-user":1}`)),
		{ChunkID: hydration.ErrorChunkID, SourceID: 4},
		record(7, value.Str("a user string")),
	}
	matches := FindByPattern(records, "USER", false)

	want := []string{
		"chunk_3.items[0].user",
		"chunk_3.items[0].user.tags[1]",
		`chunk_3.items[0]["data-user"]`,
		"chunk_7.items[0]",
	}
	if len(matches) != len(want) {
		t.Fatalf("expected %d matches, got %d: %+v", len(want), len(matches), matches)
	}
	for i, w := range want {
		if matches[i].Path != w {
			t.Errorf("match %d: expected path %q, got %q", i, w, matches[i].Path)
		}
	}
}

func TestFindByPattern_CaseSensitive(t *testing.T) {
	records := []hydration.ChunkRecord{record(1, mustJSON(t, `{"Title":"x","title":"y"}`))}
	if got := FindByPattern(records, "title", true); len(got) != 1 {
		t.Errorf("case-sensitive: expected 1 match, got %d", len(got))
	}
	if got := FindByPattern(records, "title", false); len(got) != 2 {
		t.Errorf("case-insensitive: expected 2 matches, got %d", len(got))
	}
}

func TestFindByPattern_ErrorRecordLabel(t *testing.T) {
	r := record(2, mustJSON(t, `{"k":"needle"}`))
	r.ChunkID = hydration.ErrorChunkID
	matches := FindByPattern([]hydration.ChunkRecord{r}, "needle", false)
	if len(matches) != 1 || matches[0].Path != "chunk_error.items[0].k" {
		t.Errorf("unexpected matches %+v", matches)
	}
}

func TestFindByPattern_EmptyPattern(t *testing.T) {
	records := []hydration.ChunkRecord{record(1, mustJSON(t, `{"a":"b"}`))}
	if got := FindByPattern(records, "", false); len(got) != 0 {
		t.Errorf("expected no matches for empty pattern, got %d", len(got))
	}
}

func TestJoinKey(t *testing.T) {
	tests := []struct{ key, want string }{
		{"name", "p.name"},
		{"_id2", "p._id2"},
		{"2nd", `p["2nd"]`},
		{"a b", `p["a b"]`},
		{"", `p[""]`},
		{`q"uote`, `p["q\"uote"]`},
	}
	for _, tt := range tests {
		if got := JoinKey("p", tt.key); got != tt.want {
			t.Errorf("JoinKey(%q) = %s, want %s", tt.key, got, tt.want)
		}
	}
}

func TestCollectKeys_DepthBound(t *testing.T) {
	records := []hydration.ChunkRecord{record(1, mustJSON(t, `{"a":{"b":{"c":1}}}`))}
	got := CollectKeys(records, 2)
	want := map[string]int{"a": 1, "b": 1}
	if !maps.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCollectKeys_SequencesDoNotAddDepth(t *testing.T) {
	records := []hydration.ChunkRecord{
		record(1, mustJSON(t, `[{"id":1,"meta":{"x":1}},{"id":2}]`)),
		record(2, mustJSON(t, `{"id":3,"list":[[{"deep":true}]]}`)),
	}
	got := CollectKeys(records, 2)
	want := map[string]int{"id": 3, "meta": 1, "x": 1, "list": 1, "deep": 1}
	if !maps.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCollectKeys_ZeroDepth(t *testing.T) {
	records := []hydration.ChunkRecord{record(1, mustJSON(t, `{"a":1}`))}
	if got := CollectKeys(records, 0); len(got) != 0 {
		t.Errorf("expected no keys at depth 0, got %v", got)
	}
}
