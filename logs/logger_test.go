package logs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reusee/dscope"
)

func TestHandler(t *testing.T) {
	buf := new(bytes.Buffer)
	dscope.New(new(Module)).Fork(
		func() Writer {
			return buf
		},
	).Call(func(
		logger Logger,
	) {
		logger.Info("filtered", "hello", "world!")
		logger.Warn("evaluation error", "kind", "Arithmetic")
		ctx := context.WithValue(context.Background(), SpanKey, Span("foo"))
		logger.WarnContext(ctx, "with span")
	})
	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Fatalf("got %s", out)
	}
	if !strings.Contains(out, "kind=Arithmetic") {
		t.Fatalf("got %s", out)
	}
	if !strings.Contains(out, "logs.span=foo") {
		t.Fatalf("got %s", out)
	}
}

func TestLevelFromEnv(t *testing.T) {
	if l := levelFromEnv("debug"); l != slog.LevelDebug {
		t.Fatalf("got %v", l)
	}
	if l := levelFromEnv(""); l != slog.LevelWarn {
		t.Fatalf("got %v", l)
	}
	if l := levelFromEnv("ERROR"); l != slog.LevelError {
		t.Fatalf("got %v", l)
	}
}

func TestWrapSpan(t *testing.T) {
	err := errors.New("foo")
	if got := WrapSpan(context.Background(), err); got != err {
		t.Fatalf("got %v", got)
	}
	ctx := context.WithValue(context.Background(), SpanKey, Span("bar"))
	got := WrapSpan(ctx, err)
	if !errors.Is(got, err) {
		t.Fatalf("got %v", got)
	}
	var spanErr SpanError
	if !errors.As(got, &spanErr) || spanErr.Span != "bar" {
		t.Fatalf("got %v", got)
	}
	if got.Error() != "foo (span bar)" {
		t.Fatalf("got %v", got)
	}
	if WrapSpan(ctx, nil) != nil {
		t.Fatal("should be nil")
	}
}

func TestHandlerWith(t *testing.T) {
	buf := new(bytes.Buffer)
	dscope.New(new(Module)).Fork(
		func() Writer {
			return buf
		},
	).Call(func(
		logger Logger,
	) {
		ctx := context.WithValue(context.Background(), SpanKey, Span("baz"))
		logger.With("source", "repl").WithGroup("eval").WarnContext(ctx, "grouped", "line", 3)
	})
	out := buf.String()
	if !strings.Contains(out, "source=repl") {
		t.Fatalf("got %s", out)
	}
	if !strings.Contains(out, "eval.line=3") {
		t.Fatalf("got %s", out)
	}
	if !strings.Contains(out, "span=baz") {
		t.Fatalf("got %s", out)
	}
}

func TestWriterFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	t.Setenv("TAIEVAL_LOG_FILE", path)
	w := Module{}.Writer()
	if _, err := io.WriteString(w, "hello\n"); err != nil {
		t.Fatal(err)
	}
	if c, ok := w.(io.Closer); ok {
		c.Close()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "hello\n" {
		t.Fatalf("got %q", content)
	}
}

func TestToJournalKey(t *testing.T) {
	if got := toJournalKey("logs.span"); got != "LOGS_SPAN" {
		t.Fatalf("got %v", got)
	}
}
