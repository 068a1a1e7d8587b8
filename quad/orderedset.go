// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quad

// handleSet is a small ordered set of interval handles kept sorted by
// a caller-supplied comparator, (rdepth, seq) ascending for the
// x-mapping buckets. A bucket holds the few intervals that share one
// abscissa, so a kept-sorted slice beats any tree at this size.
type handleSet struct {
	items []handle
	less  func(x, y handle) bool
}

func newHandleSet(less func(x, y handle) bool) *handleSet {
	return &handleSet{less: less}
}

func (s *handleSet) Len() int { return len(s.items) }

func (s *handleSet) Contains(h handle) bool {
	for _, x := range s.items {
		if x == h {
			return true
		}
	}
	return false
}

// Add inserts h in sorted position. It is a no-op if h is already
// present, matching the idempotence of a mathematical set.
func (s *handleSet) Add(h handle) {
	if s.Contains(h) {
		return
	}
	i := 0
	for i < len(s.items) && s.less(s.items[i], h) {
		i++
	}
	s.items = append(s.items, noHandle)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = h
}

// Remove discards h if present and reports whether it was found.
func (s *handleSet) Remove(h handle) bool {
	for i, x := range s.items {
		if x == h {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Max returns the greatest element under `less`, i.e. the last item.
func (s *handleSet) Max() (handle, bool) {
	if len(s.items) == 0 {
		return noHandle, false
	}
	return s.items[len(s.items)-1], true
}

// Min returns the least element under `less`, i.e. the first item.
func (s *handleSet) Min() (handle, bool) {
	if len(s.items) == 0 {
		return noHandle, false
	}
	return s.items[0], true
}
