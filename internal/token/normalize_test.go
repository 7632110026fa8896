package token

import (
	"reflect"
	"testing"
)

func TestNormalizeDedupesAndCanonicalizes(t *testing.T) {
	got := Normalize([]string{
		"0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB",
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa",
	})

	want := []string{
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize mismatch: %v != %v", got, want)
	}
}

func TestNormalizeSplitsCommaLists(t *testing.T) {
	got := Normalize([]string{
		"0xcccccccccccccccccccccccccccccccccccccccc, 0xdddddddddddddddddddddddddddddddddddddddd",
	})

	want := []string{
		"0xcccccccccccccccccccccccccccccccccccccccc",
		"0xdddddddddddddddddddddddddddddddddddddddd",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize mismatch: %v != %v", got, want)
	}
}

func TestNormalizeDropsInvalidEntries(t *testing.T) {
	got := Normalize([]string{
		"",
		"not-an-address",
		"0x1234",
		"0xgggggggggggggggggggggggggggggggggggggggg",
		"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
	})

	want := []string{"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalize mismatch: %v != %v", got, want)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
	if got := Normalize([]string{""}); len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}
