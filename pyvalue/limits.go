package pyvalue

import (
	"math/big"
	"slices"
)

// Limits bounds what evaluated code may allocate or open.
type Limits struct {
	MaxStatementLength int
	MaxExponent        int64
	MaxShift           int64
	MaxStringLength    int
	MaxOpenFiles       int
	// MaxBufferSize bounds the buffering argument of open
	MaxBufferSize int
	// MaxRecursionDepth bounds nested user function calls
	MaxRecursionDepth int
	// MaxSteps bounds executed loop iterations per evaluation, 0 is unlimited
	MaxSteps  int
	FileModes []string
}

func DefaultLimits() *Limits {
	return &Limits{
		MaxStatementLength: 50000,
		MaxExponent:        10000,
		MaxShift:           1000,
		MaxStringLength:    2 << 17,
		MaxOpenFiles:       2 << 17,
		MaxBufferSize:      2 << 17,
		MaxRecursionDepth:  1000,
		FileModes:          []string{"r", "rb", "rt", "br", "tr"},
	}
}

func (l *Limits) Clone() *Limits {
	ret := *l
	ret.FileModes = slices.Clone(l.FileModes)
	return &ret
}

func (l *Limits) checkExponent(exp any) error {
	if l == nil || l.MaxExponent <= 0 {
		return nil
	}
	over := false
	switch exp := exp.(type) {
	case int64:
		over = exp > l.MaxExponent
	case *big.Int:
		over = exp.Sign() > 0
	case float64:
		over = exp > float64(l.MaxExponent)
	case complex128:
		over = real(exp) > float64(l.MaxExponent)
	}
	if over {
		return limitErrorf("Invalid exponent, max exponent is %d", l.MaxExponent)
	}
	return nil
}

func (l *Limits) checkShift(n any, left bool) error {
	if l == nil || l.MaxShift <= 0 {
		return nil
	}
	over := false
	switch n := n.(type) {
	case int64:
		over = n > l.MaxShift
	case *big.Int:
		over = n.Sign() > 0
	}
	if !over {
		return nil
	}
	if left {
		return limitErrorf("Invalid left shift, max left shift is %d", l.MaxShift)
	}
	return limitErrorf("Invalid right shift, max right shift is %d", l.MaxShift)
}

// CheckLength rejects string and bytes results longer than MaxStringLength.
func (l *Limits) CheckLength(n int) error {
	if l == nil || l.MaxStringLength <= 0 || n <= l.MaxStringLength {
		return nil
	}
	return limitErrorf("String length exceeded, max string length is %d", l.MaxStringLength)
}

func (l *Limits) FileModeAllowed(mode string) bool {
	if l == nil {
		return mode == "r"
	}
	return slices.Contains(l.FileModes, mode)
}
