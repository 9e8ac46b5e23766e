package configs

import (
	"errors"
	"fmt"
)

// First decodes the first value found at path. A path no file sets yields
// the zero value and a nil error.
func First[T any](loader Loader, path string) (ret T, err error) {
	err = Optional(loader, path, &ret)
	return
}

// Optional is AssignFirst with missing paths ignored.
func Optional(loader Loader, path string, target any) error {
	err := loader.AssignFirst(path, target)
	if errors.Is(err, ErrValueNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}
