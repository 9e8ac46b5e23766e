package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/reusee/taieval/interp"
)

// showConfig prints the effective settings of in.
func showConfig(out io.Writer, in *interp.Interpreter, paths []string) {
	if len(paths) == 0 {
		fmt.Fprintln(out, "config files: none")
	} else {
		fmt.Fprintf(out, "config files: %s\n", strings.Join(paths, ", "))
	}
	fmt.Fprintf(out, "disabled: %s\n", strings.Join(in.Policy().Disabled(), " "))
	limits := in.Limits()
	fmt.Fprintf(out, "max_statement_length: %d\n", limits.MaxStatementLength)
	fmt.Fprintf(out, "max_exponent: %d\n", limits.MaxExponent)
	fmt.Fprintf(out, "max_shift: %d\n", limits.MaxShift)
	fmt.Fprintf(out, "max_string_length: %d\n", limits.MaxStringLength)
	fmt.Fprintf(out, "max_open_files: %d\n", limits.MaxOpenFiles)
	fmt.Fprintf(out, "max_buffer_size: %d\n", limits.MaxBufferSize)
	fmt.Fprintf(out, "max_recursion_depth: %d\n", limits.MaxRecursionDepth)
	fmt.Fprintf(out, "max_steps: %d\n", limits.MaxSteps)
	fmt.Fprintf(out, "file_modes: %s\n", strings.Join(limits.FileModes, " "))
}
