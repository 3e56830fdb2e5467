package util

import (
	"reflect"
	"testing"
)

func TestDedupeNonEmptyStrings(t *testing.T) {
	got := DedupeNonEmptyStrings([]string{"b", "", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupeNonEmptyStrings = %v, want %v", got, want)
	}

	if got := DedupeNonEmptyStrings(nil); len(got) != 0 {
		t.Fatalf("nil input produced %v", got)
	}
}
