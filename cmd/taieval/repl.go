package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/reusee/taieval/debugs"
	"github.com/reusee/taieval/interp"
)

func startREPL(ctx context.Context, in *interp.Interpreter, runREPL debugs.RunREPL) {
	var historyFile string
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".taieval_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile: historyFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	defer rl.Close()
	runREPL(ctx, in, rl, rl.Stdout())
}
