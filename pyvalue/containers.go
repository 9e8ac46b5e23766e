package pyvalue

import "slices"

// Dict is an insertion-ordered hash map.
type Dict struct {
	keys   []any
	values []any
	hashes []string
	index  map[string]int
}

func NewDict() *Dict {
	return &Dict{
		index: make(map[string]int),
	}
}

func (d *Dict) Len() int {
	return len(d.keys)
}

func (d *Dict) Get(key any) (any, bool, error) {
	h, err := HashKey(key)
	if err != nil {
		return nil, false, err
	}
	i, ok := d.index[h]
	if !ok {
		return nil, false, nil
	}
	return d.values[i], true, nil
}

func (d *Dict) Set(key, value any) error {
	h, err := HashKey(key)
	if err != nil {
		return err
	}
	d.set(h, key, value)
	return nil
}

func (d *Dict) set(h string, key, value any) {
	if i, ok := d.index[h]; ok {
		d.values[i] = value
		return
	}
	d.index[h] = len(d.keys)
	d.keys = append(d.keys, key)
	d.values = append(d.values, value)
	d.hashes = append(d.hashes, h)
}

// SetString stores a string key; strings are always hashable.
func (d *Dict) SetString(key string, value any) {
	h, _ := HashKey(key)
	d.set(h, key, value)
}

func (d *Dict) Delete(key any) (bool, error) {
	h, err := HashKey(key)
	if err != nil {
		return false, err
	}
	i, ok := d.index[h]
	if !ok {
		return false, nil
	}
	d.keys = slices.Delete(d.keys, i, i+1)
	d.values = slices.Delete(d.values, i, i+1)
	d.hashes = slices.Delete(d.hashes, i, i+1)
	delete(d.index, h)
	for j := i; j < len(d.hashes); j++ {
		d.index[d.hashes[j]] = j
	}
	return true, nil
}

func (d *Dict) Keys() []any {
	return slices.Clone(d.keys)
}

func (d *Dict) Values() []any {
	return slices.Clone(d.values)
}

func (d *Dict) Items() []Tuple {
	ret := make([]Tuple, len(d.keys))
	for i, k := range d.keys {
		ret[i] = Tuple{k, d.values[i]}
	}
	return ret
}

func (d *Dict) Copy() *Dict {
	ret := &Dict{
		keys:   slices.Clone(d.keys),
		values: slices.Clone(d.values),
		hashes: slices.Clone(d.hashes),
		index:  make(map[string]int, len(d.index)),
	}
	for k, v := range d.index {
		ret.index[k] = v
	}
	return ret
}

func (d *Dict) Update(other *Dict) error {
	for i, h := range other.hashes {
		d.set(h, other.keys[i], other.values[i])
	}
	return nil
}

func (d *Dict) Clear() {
	d.keys = nil
	d.values = nil
	d.hashes = nil
	d.index = make(map[string]int)
}

// Set is an insertion-ordered hash set. A frozen set is hashable and
// immutable.
type Set struct {
	items  []any
	keys   []string
	index  map[string]int
	Frozen bool
}

func NewSet() *Set {
	return &Set{
		index: make(map[string]int),
	}
}

func (s *Set) Len() int {
	return len(s.items)
}

func (s *Set) Add(v any) error {
	h, err := HashKey(v)
	if err != nil {
		return err
	}
	s.addHashed(h, v)
	return nil
}

func (s *Set) addHashed(h string, v any) {
	if _, ok := s.index[h]; ok {
		return
	}
	s.index[h] = len(s.items)
	s.items = append(s.items, v)
	s.keys = append(s.keys, h)
}

// add inserts an element taken from another set.
func (s *Set) add(v any) {
	_ = s.Add(v)
}

func (s *Set) has(v any) bool {
	ok, _ := s.Contains(v)
	return ok
}

func (s *Set) Contains(v any) (bool, error) {
	h, err := HashKey(v)
	if err != nil {
		return false, err
	}
	_, ok := s.index[h]
	return ok, nil
}

func (s *Set) Remove(v any) (bool, error) {
	h, err := HashKey(v)
	if err != nil {
		return false, err
	}
	i, ok := s.index[h]
	if !ok {
		return false, nil
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.keys = slices.Delete(s.keys, i, i+1)
	delete(s.index, h)
	for j := i; j < len(s.keys); j++ {
		s.index[s.keys[j]] = j
	}
	return true, nil
}

func (s *Set) Items() []any {
	return slices.Clone(s.items)
}

func (s *Set) Copy() *Set {
	ret := &Set{
		items:  slices.Clone(s.items),
		keys:   slices.Clone(s.keys),
		index:  make(map[string]int, len(s.index)),
		Frozen: s.Frozen,
	}
	for k, v := range s.index {
		ret.index[k] = v
	}
	return ret
}

func (s *Set) Clear() {
	s.items = nil
	s.keys = nil
	s.index = make(map[string]int)
}

func (s *Set) subsetOf(other *Set) bool {
	for _, k := range s.keys {
		if _, ok := other.index[k]; !ok {
			return false
		}
	}
	return true
}

// SetOf builds a set from elements.
func SetOf(elems ...any) (*Set, error) {
	s := NewSet()
	for _, e := range elems {
		if err := s.Add(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type Range struct {
	Start int64
	Stop  int64
	Step  int64
}

func (r *Range) Len() int {
	if r.Step > 0 {
		if r.Start >= r.Stop {
			return 0
		}
		return int((r.Stop - r.Start + r.Step - 1) / r.Step)
	}
	if r.Start <= r.Stop {
		return 0
	}
	return int((r.Start - r.Stop - r.Step - 1) / -r.Step)
}

func (r *Range) At(i int) int64 {
	return r.Start + int64(i)*r.Step
}

func (r *Range) Contains(v any) bool {
	var n int64
	switch v := v.(type) {
	case int64:
		n = v
	case bool:
		if v {
			n = 1
		}
	case float64:
		if v != float64(int64(v)) {
			return false
		}
		n = int64(v)
	default:
		return false
	}
	if r.Step > 0 && (n < r.Start || n >= r.Stop) {
		return false
	}
	if r.Step < 0 && (n > r.Start || n <= r.Stop) {
		return false
	}
	return (n-r.Start)%r.Step == 0
}

// Slice is a slice object; bounds are nil or integers.
type Slice struct {
	Start any
	Stop  any
	Step  any
}

// Indices resolves the slice against a sequence length.
func (s *Slice) Indices(length int) (start, stop, step int, err error) {
	step = 1
	if s.Step != nil {
		step, err = ToIndex(s.Step)
		if err != nil {
			return 0, 0, 0, typeErrorf("slice indices must be integers or None")
		}
		if step == 0 {
			return 0, 0, 0, valueErrorf("slice step cannot be zero")
		}
	}
	resolve := func(v any, def int) (int, error) {
		if v == nil {
			return def, nil
		}
		i, err := ToIndex(v)
		if err != nil {
			return 0, typeErrorf("slice indices must be integers or None")
		}
		if i < 0 {
			i += length
			if i < 0 {
				if step < 0 {
					return -1, nil
				}
				return 0, nil
			}
		}
		if i >= length {
			if step < 0 {
				return length - 1, nil
			}
			return length, nil
		}
		return i, nil
	}
	if step > 0 {
		start, err = resolve(s.Start, 0)
		if err != nil {
			return
		}
		stop, err = resolve(s.Stop, length)
	} else {
		start, err = resolve(s.Start, length-1)
		if err != nil {
			return
		}
		stop, err = resolve(s.Stop, -1)
	}
	return
}

// SliceLen is the number of elements selected by resolved indices.
func SliceLen(start, stop, step int) int {
	if step > 0 {
		if start >= stop {
			return 0
		}
		return (stop - start + step - 1) / step
	}
	if start <= stop {
		return 0
	}
	return (start - stop - step - 1) / -step
}
