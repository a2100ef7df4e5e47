package pipeline

import (
	"strings"
	"testing"
)

func TestGenerateULID_Format(t *testing.T) {
	id := generateULID()
	if len(id) != 26 {
		t.Fatalf("expected 26 characters, got %d (%q)", len(id), id)
	}
	for _, r := range id {
		if !strings.ContainsRune(crockford, r) {
			t.Errorf("unexpected character %q in %q", r, id)
		}
	}
	if id[0] > '7' {
		t.Errorf("first character carries only 3 bits, got %q", id[0])
	}
}

func TestGenerateULID_SortsInCreationOrder(t *testing.T) {
	prev := generateULID()
	for range 1000 {
		next := generateULID()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestEncode_KnownValues(t *testing.T) {
	var zero [16]byte
	if got := encode(zero); got != strings.Repeat("0", 26) {
		t.Errorf("zero encodes to %s", got)
	}

	var ones [16]byte
	for i := range ones {
		ones[i] = 0xFF
	}
	if got := encode(ones); got != "7"+strings.Repeat("Z", 25) {
		t.Errorf("all ones encodes to %s", got)
	}
}
