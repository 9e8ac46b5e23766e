package main

import (
	"github.com/reusee/dscope"
	"github.com/reusee/taieval/debugs"
	"github.com/reusee/taieval/evalconfigs"
)

type Module struct {
	dscope.Module
	Configs evalconfigs.Module
	Debugs  debugs.Module
}
