package cmds

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// SetUsageOutput sets where PrintUsage writes.
func (p *Executor) SetUsageOutput(w io.Writer) {
	p.usage = w
}

func (p *Executor) PrintUsage() {
	printCommands(p.usage, p.commands, 0)
}

func printCommands(w io.Writer, commands map[string]*Command, depth int) {
	// aliases share the command value, print each once under its first name
	names := make(map[*Command][]string)
	var order []*Command
	for name, cmd := range commands {
		if cmd == nil {
			continue
		}
		if _, ok := names[cmd]; !ok {
			order = append(order, cmd)
		}
		names[cmd] = append(names[cmd], name)
	}
	for _, cmd := range order {
		slices.Sort(names[cmd])
	}
	slices.SortFunc(order, func(a, b *Command) int {
		return strings.Compare(names[a][0], names[b][0])
	})

	indent := strings.Repeat("  ", depth)
	for _, cmd := range order {
		line := indent + strings.Join(names[cmd], ", ")
		if args := argNames(cmd); args != "" {
			line += " " + args
		}
		if cmd.Description != "" {
			line += "\t" + cmd.Description
		}
		fmt.Fprintln(w, line)
		if len(cmd.Subs) > 0 {
			printCommands(w, cmd.Subs, depth+1)
		}
	}
}

func argNames(cmd *Command) string {
	if !cmd.Func.IsValid() {
		return ""
	}
	t := cmd.Func.Type()
	var parts []string
	for i := 0; i < t.NumIn(); i++ {
		name := strings.ToLower(t.In(i).Kind().String())
		if i < len(cmd.ArgNames) {
			name = cmd.ArgNames[i]
		}
		parts = append(parts, "<"+name+">")
	}
	return strings.Join(parts, " ")
}
