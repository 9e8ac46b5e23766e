package debugs

import (
	"github.com/reusee/dscope"
	"github.com/reusee/taieval/interp"
	"github.com/reusee/taieval/logs"
)

type Module struct {
	dscope.Module
	Logs   logs.Module
	Interp interp.Module
}
