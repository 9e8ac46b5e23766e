package configs

import (
	"testing"
)

func TestFirst(t *testing.T) {
	loader := NewLoader([]string{"test.cue", "test2.cue"}, testSchema)

	str, err := First[string](loader, "str")
	if err != nil {
		t.Fatal(err)
	}
	if str != "bar" {
		t.Fatalf("got %v", str)
	}

	list, err := First[[]int](loader, "list")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("got %v", list)
	}

	missing, err := First[string](loader, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != "" {
		t.Fatalf("got %v", missing)
	}

	if _, err := First[int](loader, "str"); err == nil {
		t.Fatal("should fail")
	}
}
