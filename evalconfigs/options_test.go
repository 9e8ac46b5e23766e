package evalconfigs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/taieval/configs"
	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/interp"
	"github.com/reusee/taieval/logs"
	"github.com/reusee/taieval/starparse"
)

func writeConfigs(t *testing.T, contents ...string) configs.Loader {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for i, content := range contents {
		path := filepath.Join(dir, string(rune('a'+i))+".cue")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return configs.NewLoader(paths, schema)
}

func TestLoadOptions(t *testing.T) {
	loader := writeConfigs(t, `
minimal: true
readonly_symbols: ["answer"]
constructs: {
	"if": true
}
limits: {
	max_exponent: 50
	max_steps: 1000
}
`, `
minimal: false
use_numeric: true
constructs: {
	"if": false
	"for": true
}
dialect: "starlark"
`)
	options, err := LoadOptions(loader, Flags{})
	if err != nil {
		t.Fatal(err)
	}
	if !options.Minimal {
		t.Fatal("earlier file should win")
	}
	if !options.Numeric {
		t.Fatal("should be set by the second file")
	}
	if len(options.ReadonlySymbols) != 1 || options.ReadonlySymbols[0] != "answer" {
		t.Fatalf("got %v", options.ReadonlySymbols)
	}
	if !options.Config["if"] || !options.Config["for"] {
		t.Fatalf("got %v", options.Config)
	}
	if options.Limits.MaxExponent != 50 || options.Limits.MaxSteps != 1000 {
		t.Fatalf("got %+v", options.Limits)
	}
	if options.Limits.MaxStatementLength == 0 {
		t.Fatal("defaults should be kept")
	}
	if _, ok := options.Parser.(starparse.Parser); !ok {
		t.Fatalf("got %T", options.Parser)
	}
	if options.Importable != nil {
		t.Fatalf("got %v", options.Importable)
	}

	options.Stderr = new(bytes.Buffer)
	in, err := interp.NewFromOptions(options)
	if err != nil {
		t.Fatal(err)
	}
	ret, err := interp.Eval[int](in, "x = 0\nfor i in range(3):\n    x += i\nx")
	if !errors.Is(err, evalerr.ErrConstructDisabled) {
		t.Fatalf("augassign should be disabled, got %v %v", ret, err)
	}
	if _, err := in.Eval("pow(2, 60)", interp.RaiseErrors(true)); !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
}

func TestFlags(t *testing.T) {
	loader := writeConfigs(t, `
dialect: "python"
modules: ["math"]
`)
	options, err := LoadOptions(loader, Flags{
		Minimal:  true,
		Nested:   true,
		Starlark: true,
		Enable:   []string{"for"},
		Disable:  []string{"print"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !options.Minimal || !options.Nested {
		t.Fatalf("got %+v", options)
	}
	if _, ok := options.Parser.(starparse.Parser); !ok {
		t.Fatalf("got %T", options.Parser)
	}
	if len(options.Overrides) != 2 {
		t.Fatalf("got %v", options.Overrides)
	}
	if len(options.Importable) != 1 || options.Importable[0] != "math" {
		t.Fatalf("got %v", options.Importable)
	}
}

func TestBadConfig(t *testing.T) {
	for _, content := range []string{
		`dialect: "lua"`,
		`limits: { max_exponent: -1 }`,
		`limits: { unknown: 1 }`,
		`unknown: 1`,
	} {
		loader := writeConfigs(t, content)
		if _, err := LoadOptions(loader, Flags{}); err == nil {
			t.Fatalf("%q: should fail", content)
		}
	}
}

func TestNoConfig(t *testing.T) {
	options, err := LoadOptions(configs.NewLoader(nil, schema), Flags{})
	if err != nil {
		t.Fatal(err)
	}
	if options.Minimal || options.Config != nil || options.Parser != nil {
		t.Fatalf("got %+v", options)
	}
}

func TestModule(t *testing.T) {
	loader := writeConfigs(t, `
minimal: true
constructs: {
	"print": true
}
`)
	stdout := new(bytes.Buffer)
	dscope.New(
		new(Module),
	).Fork(
		func() configs.Loader {
			return loader
		},
		func() Flags {
			return Flags{}
		},
		func() logs.Writer {
			return new(bytes.Buffer)
		},
	).Call(func(
		newInterpreter interp.NewInterpreter,
	) {
		in, err := newInterpreter(
			interp.WithStdout(stdout),
			interp.WithStderr(new(bytes.Buffer)),
		)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := in.Eval("print(1 + 1)", interp.RaiseErrors(true)); err != nil {
			t.Fatal(err)
		}
		if stdout.String() != "2\n" {
			t.Fatalf("got %q", stdout.String())
		}
		if _, err := in.Eval("if 1:\n    pass", interp.RaiseErrors(true)); !errors.Is(err, evalerr.ErrConstructDisabled) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestFindConfigFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "taieval.cue"), []byte("minimal: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	paths := findConfigFiles([]string{"explicit.cue"})
	if len(paths) < 2 {
		t.Fatalf("got %v", paths)
	}
	if paths[0] != "explicit.cue" || paths[1] != filepath.Join(dir, "taieval.cue") {
		t.Fatalf("got %v", paths)
	}
}

func TestGetOptionsError(t *testing.T) {
	loader := writeConfigs(t, `limits: { max_steps: -1 }`)
	dscope.New(
		new(Module),
	).Fork(
		func() configs.Loader {
			return loader
		},
		func() Flags {
			return Flags{}
		},
		func() logs.Writer {
			return new(bytes.Buffer)
		},
	).Call(func(
		getOptions GetOptions,
	) {
		if _, err := getOptions(); err == nil {
			t.Fatal("should fail")
		}
	})
}
