package cache

import "github.com/tailored-agentic-units/pager/page"

// Range is a half-open span [Start, End) of view positions.
type Range struct {
	Start int
	End   int
}

// Len returns the number of positions covered by r.
func (r Range) Len() int {
	return r.End - r.Start
}

// View is an immutable snapshot of an ordered, possibly sparse sequence of
// items. Positions that were never written are gaps.
type View[T page.Item] struct {
	slots  []T
	filled []bool
}

// Len returns the number of positions in the view, gaps included.
func (v View[T]) Len() int {
	return len(v.slots)
}

// At returns the item at position i. The second result is false for gaps and
// out-of-range positions.
func (v View[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(v.slots) || !v.filled[i] {
		var zero T
		return zero, false
	}
	return v.slots[i], true
}

// Dense reports whether every position holds an item.
func (v View[T]) Dense() bool {
	for _, ok := range v.filled {
		if !ok {
			return false
		}
	}
	return true
}

// Items returns the populated items in order, skipping gaps.
func (v View[T]) Items() []T {
	items := make([]T, 0, len(v.slots))
	for i, ok := range v.filled {
		if ok {
			items = append(items, v.slots[i])
		}
	}
	return items
}

// Gaps returns the maximal runs of unpopulated positions.
func (v View[T]) Gaps() []Range {
	var gaps []Range
	start := -1
	for i, ok := range v.filled {
		switch {
		case !ok && start < 0:
			start = i
		case ok && start >= 0:
			gaps = append(gaps, Range{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		gaps = append(gaps, Range{Start: start, End: len(v.filled)})
	}
	return gaps
}

// sequence is the mutable backing of a view, owned by the store goroutine.
type sequence[T page.Item] struct {
	slots  []T
	filled []bool
}

func newSequence[T page.Item](items []T) *sequence[T] {
	seq := &sequence[T]{
		slots:  make([]T, len(items)),
		filled: make([]bool, len(items)),
	}
	copy(seq.slots, items)
	for i := range seq.filled {
		seq.filled[i] = true
	}
	return seq
}

func (s *sequence[T]) append(items []T) {
	for _, item := range items {
		s.slots = append(s.slots, item)
		s.filled = append(s.filled, true)
	}
}

// place writes items starting at offset without overwriting populated slots,
// growing the sequence with gaps when offset lies past the end.
func (s *sequence[T]) place(offset int, items []T) {
	for i, item := range items {
		pos := offset + i
		if pos < 0 {
			continue
		}
		for len(s.slots) <= pos {
			var zero T
			s.slots = append(s.slots, zero)
			s.filled = append(s.filled, false)
		}
		if !s.filled[pos] {
			s.slots[pos] = item
			s.filled[pos] = true
		}
	}
}

func (s *sequence[T]) snapshot() View[T] {
	v := View[T]{
		slots:  make([]T, len(s.slots)),
		filled: make([]bool, len(s.filled)),
	}
	copy(v.slots, s.slots)
	copy(v.filled, s.filled)
	return v
}
