package policy

import (
	"errors"
	"slices"
	"testing"
)

func TestBaselines(t *testing.T) {
	def := Default()
	for _, name := range Names() {
		expected := name != "import" && name != "importfrom"
		if def.Enabled(name) != expected {
			t.Fatalf("%s: got %v", name, def.Enabled(name))
		}
	}
	if got := def.Disabled(); !slices.Equal(got, []string{"import", "importfrom"}) {
		t.Fatalf("got %v", got)
	}

	minimal := Minimal()
	for _, name := range Names() {
		if minimal.Enabled(name) {
			t.Fatalf("%s should be disabled", name)
		}
	}

	var zero Config
	if !zero.Enabled("if") || zero.Enabled("import") {
		t.Fatal("zero config should act as default")
	}
	if zero.Enabled("no such construct") {
		t.Fatal("unknown constructs are disabled")
	}
}

func TestLayers(t *testing.T) {
	c, err := New(true, []Override{
		With("if", true),
		With("for", true),
	}, map[string]bool{
		"for":    false,
		"import": true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !c.Enabled("if") {
		t.Fatal("override should enable if")
	}
	if c.Enabled("for") {
		t.Fatal("config mapping should win over overrides")
	}
	if !c.Enabled("import") {
		t.Fatal("config mapping should enable import")
	}
	if c.Enabled("while") {
		t.Fatal("baseline should disable while")
	}

	m := c.Map()
	m["while"] = true
	if c.Enabled("while") {
		t.Fatal("Map should return a copy")
	}
}

func TestUnknown(t *testing.T) {
	if _, err := New(false, []Override{With("goto", true)}, nil); !errors.Is(err, ErrUnknownConstruct) {
		t.Fatalf("got %v", err)
	}
	if _, err := New(false, nil, map[string]bool{"class": true}); !errors.Is(err, ErrUnknownConstruct) {
		t.Fatalf("got %v", err)
	}
}
