package symtable

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrReadonly    = errors.New("read-only symbol")
	ErrInvalidName = errors.New("invalid symbol name")
	ErrNotFound    = errors.New("symbol not found")
)

// Table maps identifiers to values.
type Table interface {
	Lookup(name string) (any, bool)
	// Assign stores a value on behalf of evaluated code, honouring
	// read-only protection.
	Assign(name string, value any) error
	// CheckAssign reports the error Assign would return, without storing.
	CheckAssign(name string) error
	Remove(name string) error
	Contains(name string) bool
	// Define stores a value without any protection check.
	Define(name string, value any)
	Names() []string
	Protection() *Protection
}

var ReservedWords = func() map[string]bool {
	ret := make(map[string]bool)
	for _, word := range strings.Fields(`
		and as assert async await break class continue def del elif else
		except exec finally for from global if import in is lambda nonlocal
		not or pass print raise return try while with yield True False None
		eval execfile __import__ __package__
	`) {
		ret[word] = true
	}
	return ret
}()

// ValidName reports whether name is an identifier that is not reserved.
func ValidName(name string) bool {
	if name == "" || ReservedWords[name] {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func invalidName(name string) error {
	return fmt.Errorf("%w: '%s'", ErrInvalidName, name)
}

func readonly(name string) error {
	return fmt.Errorf("%w: '%s'", ErrReadonly, name)
}

func notFound(name string) error {
	return fmt.Errorf("%w: '%s'", ErrNotFound, name)
}
