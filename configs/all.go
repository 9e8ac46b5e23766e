package configs

import (
	"fmt"
	"iter"
)

// All decodes every value at path, in file order.
func All[T any](loader Loader, path string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for value, err := range loader.IterCueValues(path) {
			var v T
			if err != nil {
				yield(v, err)
				return
			}
			if err := value.Decode(&v); err != nil {
				yield(v, fmt.Errorf("config %s: %w", path, err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
