package store

import (
	"strings"
	"testing"
)

func TestListingCodeFormat(t *testing.T) {
	coder := newListingCoder()

	code, err := coder.Code(42)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if !strings.HasPrefix(code, "RG-") {
		t.Errorf("code %q missing RG- prefix", code)
	}
	if len(code) < len("RG-")+8 {
		t.Errorf("code %q shorter than minimum length", code)
	}
	for _, c := range strings.TrimPrefix(code, "RG-") {
		if strings.ContainsRune("01IO", c) {
			t.Errorf("code %q contains ambiguous character %q", code, c)
		}
	}
}

func TestListingCodeStableAndDistinct(t *testing.T) {
	coder := newListingCoder()

	first, err := coder.Code(7)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	again, err := coder.Code(7)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if first != again {
		t.Errorf("code for same id changed: %q vs %q", first, again)
	}

	seen := map[string]int64{}
	for id := int64(1); id <= 500; id++ {
		code, err := coder.Code(id)
		if err != nil {
			t.Fatalf("Code(%d): %v", id, err)
		}
		if other, dup := seen[code]; dup {
			t.Fatalf("ids %d and %d share code %q", other, id, code)
		}
		seen[code] = id
	}
}
