package evalerr

import (
	"errors"

	"github.com/reusee/taieval/pyast"
)

// Holder accumulates the errors of one evaluation.
type Holder struct {
	errs []*Error
}

func (h *Holder) Record(err *Error) {
	if err == nil {
		return
	}
	h.errs = append(h.errs, err)
}

func (h *Holder) Recordf(kind Kind, pos pyast.Pos, format string, args ...any) *Error {
	err := Errorf(kind, format, args...).At(pos)
	h.Record(err)
	return err
}

func (h *Holder) All() []*Error {
	ret := make([]*Error, len(h.errs))
	copy(ret, h.errs)
	return ret
}

func (h *Holder) Len() int {
	return len(h.errs)
}

func (h *Holder) Clear() {
	h.errs = h.errs[:0]
}

func (h *Holder) First() *Error {
	if len(h.errs) == 0 {
		return nil
	}
	return h.errs[0]
}

// Err joins all recorded errors, or returns nil.
func (h *Holder) Err() error {
	if len(h.errs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(h.errs))
	for _, err := range h.errs {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
