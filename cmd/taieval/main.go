// Command taieval evaluates restricted Python expressions and statements.
//
// Inputs are source files given as arguments or with -file, expressions given
// with -expr, or standard input. Without any input on a terminal, or with
// -repl, an interactive prompt is started.
//
// Evaluation is synchronous with no time limit beyond -config limits such as
// max_steps; run it under an external supervisor (timeout(1), a systemd unit
// with RuntimeMaxSec) when the input is untrusted.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/reusee/dscope"
	"github.com/reusee/taieval/cmds"
	"github.com/reusee/taieval/configs"
	"github.com/reusee/taieval/debugs"
	"github.com/reusee/taieval/evalconfigs"
	"github.com/reusee/taieval/interp"
	"github.com/reusee/taieval/logs"
	"github.com/reusee/taieval/pyvalue"
)

var (
	exprs    = cmds.Collect[string]("-expr", "evaluate source text")
	files    = cmds.Collect[string]("-file", "evaluate a file, - for stdin")
	replFlag = cmds.Switch("-repl", "start the interactive prompt after other inputs")
	showFlag = cmds.Switch("-show-config", "print the effective settings and exit")
)

func main() {
	cmds.Fallback(func(arg string) error {
		*files = append(*files, arg)
		return nil
	})
	cmds.Execute(os.Args[1:])

	code := 0
	scope := dscope.New(
		new(Module),
	)
	scope.Call(func(
		getOptions evalconfigs.GetOptions,
	) {
		if !checkOptions(getOptions, os.Stderr) {
			code = 2
		}
	})
	if code != 0 {
		os.Exit(code)
	}
	scope.Call(func(
		newInterpreter interp.NewInterpreter,
		newSpan logs.NewSpan,
		logger logs.Logger,
		runREPL debugs.RunREPL,
		loader configs.Loader,
	) {
		ctx, _ := newSpan(context.Background(), "")
		in, err := newInterpreter()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			code = 2
			return
		}
		defer in.Close()

		if *showFlag {
			paths, err := loader.Paths()
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				code = 2
				return
			}
			showConfig(os.Stdout, in, paths)
			return
		}

		isTerminal := readline.IsTerminal(int(os.Stdin.Fd()))
		inputs, err := collectInputs(*files, *exprs, os.Stdin, !isTerminal)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", logs.WrapSpan(ctx, err))
			code = 2
			return
		}
		if len(inputs) == 0 && (*replFlag || isTerminal) {
			startREPL(ctx, in, runREPL)
			return
		}

		if !evalInputs(ctx, in, inputs, os.Stdout, newSpan, logger) {
			code = 1
		}
		if *replFlag {
			startREPL(ctx, in, runREPL)
		}
	})
	os.Exit(code)
}

// checkOptions reports a configuration error before anything needs the
// options.
func checkOptions(getOptions evalconfigs.GetOptions, stderr io.Writer) bool {
	if _, err := getOptions(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return false
	}
	return true
}

type input struct {
	name string
	src  string
}

func collectInputs(files []string, exprs []string, stdin io.Reader, readStdin bool) (ret []input, err error) {
	for _, path := range files {
		var content []byte
		if path == "-" {
			content, err = io.ReadAll(stdin)
		} else {
			content, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, err
		}
		ret = append(ret, input{
			name: path,
			src:  string(content),
		})
	}
	for _, expr := range exprs {
		ret = append(ret, input{
			name: "<expr>",
			src:  expr,
		})
	}
	if len(ret) == 0 && readStdin {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		if len(content) > 0 {
			ret = append(ret, input{
				name: "<stdin>",
				src:  string(content),
			})
		}
	}
	return ret, nil
}

// evalInputs evaluates each input in the same interpreter and prints non-None
// results. It reports whether all inputs succeeded.
func evalInputs(
	ctx context.Context,
	in *interp.Interpreter,
	inputs []input,
	out io.Writer,
	newSpan logs.NewSpan,
	logger logs.Logger,
) bool {
	ok := true
	for _, input := range inputs {
		ctx, _ := newSpan(ctx, "")
		logger.DebugContext(ctx, "evaluate", "name", input.name, "length", len(input.src))
		ret, _ := in.Eval(input.src)
		if len(in.Errors()) > 0 {
			ok = false
			continue
		}
		if ret != nil {
			fmt.Fprintln(out, pyvalue.Repr(ret))
		}
	}
	return ok
}
