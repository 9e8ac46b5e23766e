package evaluator

import (
	"fmt"

	"github.com/reusee/taieval/pyast"
)

type EventKind uint8

const (
	EventAssign EventKind = iota + 1
	EventCall
	EventReturn
	EventException
)

func (k EventKind) String() string {
	switch k {
	case EventAssign:
		return "assign"
	case EventCall:
		return "call"
	case EventReturn:
		return "return"
	case EventException:
		return "exception"
	}
	return "unknown"
}

// Event is one entry of the execution trace.
type Event struct {
	Kind    EventKind
	Pos     pyast.Pos
	Message string
}

func (e Event) String() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("Line %d: %s", e.Pos.Line, e.Message)
	}
	return e.Message
}
