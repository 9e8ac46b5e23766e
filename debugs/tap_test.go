package debugs

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/reusee/dscope"
	"github.com/reusee/taieval/interp"
	"github.com/reusee/taieval/logs"
)

type scriptLines struct {
	lines   []string
	prompts []string
}

func (s *scriptLines) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", readline.ErrInterrupt
	}
	return line, nil
}

func (s *scriptLines) SetPrompt(prompt string) {
	s.prompts = append(s.prompts, prompt)
}

func testScope(t *testing.T, lines *scriptLines, out *bytes.Buffer) dscope.Scope {
	t.Helper()
	return dscope.New(
		new(Module),
		dscope.Provide(interp.Options{
			Stderr: out,
		}),
	).Fork(
		func() logs.Writer {
			return new(bytes.Buffer)
		},
		func() TapTerminal {
			return func() (LineReader, io.Writer, func() error, error) {
				return lines, out, func() error { return nil }, nil
			}
		},
	)
}

func TestTap(t *testing.T) {
	lines := &scriptLines{
		lines: []string{
			"foo * 2",
			"for i in range(3):",
			"    foo += i",
			"",
			"foo",
			"for i in range(3):",
			"^C",
			"bar['x']",
			"1 / 0",
			"None",
		},
	}
	out := new(bytes.Buffer)
	testScope(t, lines, out).Call(func(
		tap Tap,
	) {
		if err := tap(t.Context(), "test", map[string]any{
			"foo": 42,
			"bar": map[string]int{
				"x": 1,
			},
		}); err != nil {
			t.Fatal(err)
		}
	})
	got := out.String()
	if !strings.HasPrefix(got, "84\n45\n1\n") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(got, "ZeroDivisionError") {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(strings.Join(lines.prompts, ""), continuePrompt) {
		t.Fatalf("got %v", lines.prompts)
	}
}

func TestAccumulate(t *testing.T) {
	var block []string
	if src, ok := Accumulate(&block, "x = 1"); !ok || src != "x = 1" {
		t.Fatalf("got %q %v", src, ok)
	}
	for _, line := range []string{"for i in range(3):", "    x += i"} {
		if _, ok := Accumulate(&block, line); ok {
			t.Fatalf("%q: should continue", line)
		}
	}
	src, ok := Accumulate(&block, "")
	if !ok {
		t.Fatal("should complete")
	}
	if src != "for i in range(3):\n    x += i\n" {
		t.Fatalf("got %q", src)
	}
	if len(block) != 0 {
		t.Fatalf("got %v", block)
	}
}
