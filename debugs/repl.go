package debugs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/reusee/taieval/interp"
	"github.com/reusee/taieval/logs"
	"github.com/reusee/taieval/pyvalue"
)

// LineReader is the part of *readline.Instance the REPL uses.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

const (
	prompt         = ">>> "
	continuePrompt = "... "
)

// RunREPL reads statements until the reader fails and prints non-None results
// to out. Errors are rendered by the interpreter.
type RunREPL func(ctx context.Context, in *interp.Interpreter, lines LineReader, out io.Writer)

func (Module) RunREPL(
	newSpan logs.NewSpan,
	logger logs.Logger,
) RunREPL {
	return func(ctx context.Context, in *interp.Interpreter, lines LineReader, out io.Writer) {
		var block []string
		lines.SetPrompt(prompt)
		for {
			line, err := lines.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				block = block[:0]
				lines.SetPrompt(prompt)
				continue
			}
			if err != nil { // Ctrl-D
				return
			}

			src, complete := Accumulate(&block, line)
			if !complete {
				lines.SetPrompt(continuePrompt)
				continue
			}
			lines.SetPrompt(prompt)
			if strings.TrimSpace(src) == "" {
				continue
			}

			ctx, _ := newSpan(ctx, "")
			logger.DebugContext(ctx, "evaluate", "length", len(src))
			ret, _ := in.Eval(src)
			if ret != nil {
				fmt.Fprintln(out, pyvalue.Repr(ret))
			}
		}
	}
}

// Accumulate collects the lines of a compound statement. A line ending with
// a colon opens a block, which ends at the first empty line.
func Accumulate(block *[]string, line string) (src string, complete bool) {
	trimmed := strings.TrimRight(line, " \t")
	if len(*block) == 0 {
		if !strings.HasSuffix(trimmed, ":") {
			return line, true
		}
		*block = append(*block, line)
		return "", false
	}
	if trimmed != "" {
		*block = append(*block, line)
		return "", false
	}
	src = strings.Join(*block, "\n") + "\n"
	*block = (*block)[:0]
	return src, true
}
