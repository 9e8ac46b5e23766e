package cmds

import (
	"bytes"
	"strings"
	"testing"
)

func TestUsage(t *testing.T) {
	executor := NewExecutor()
	buf := new(bytes.Buffer)
	executor.SetUsageOutput(buf)
	executor.Define("foo", Sub(map[string]*Command{
		"bar": Func(func() {
		}).Desc("BAR"),
		"baz": Sub(map[string]*Command{
			"qux": Func(func(int) {}).Desc("QUX"),
		}).Desc("BAZ"),
	}).Desc("FOO"))
	executor.Define("-file", Func(func(string) {}).Args("path").Desc("read source from path"))
	executor.PrintUsage()
	out := buf.String()
	for _, expected := range []string{
		"--help, -h, -help, help\tprint this usage\n",
		"foo\tFOO\n",
		"  bar\tBAR\n",
		"    qux <int>\tQUX\n",
		"-file <path>\tread source from path\n",
	} {
		if !strings.Contains(out, expected) {
			t.Fatalf("missing %q in\n%s", expected, out)
		}
	}
}
