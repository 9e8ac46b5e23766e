package debugs

import (
	"context"
	"io"
	"maps"
	"slices"

	"github.com/chzyer/readline"
	"github.com/reusee/taieval/interp"
	"github.com/reusee/taieval/logs"
)

// Tap stops in an interactive prompt with globals defined, for inspecting Go
// values from a running program.
type Tap func(ctx context.Context, what string, globals map[string]any) error

// TapTerminal opens the line reader and output of a tap session.
type TapTerminal func() (LineReader, io.Writer, func() error, error)

func (Module) TapTerminal() TapTerminal {
	return func() (LineReader, io.Writer, func() error, error) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt: prompt,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return rl, rl.Stdout(), rl.Close, nil
	}
}

func (Module) Tap(
	logger logs.Logger,
	newInterpreter interp.NewInterpreter,
	runREPL RunREPL,
	terminal TapTerminal,
) Tap {
	return func(ctx context.Context, what string, globals map[string]any) error {
		names := slices.Sorted(maps.Keys(globals))
		logger.InfoContext(ctx, "tap: "+what,
			"globals", names,
		)
		defer func() {
			logger.InfoContext(ctx, "tap end: "+what)
		}()

		in, err := newInterpreter()
		if err != nil {
			return err
		}
		defer in.Close()
		for _, name := range names {
			in.Define(name, globals[name])
		}

		lines, out, closeFn, err := terminal()
		if err != nil {
			return err
		}
		defer closeFn()
		runREPL(ctx, in, lines, out)
		return nil
	}
}
