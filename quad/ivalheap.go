// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quad

import "container/heap"

// ivalHeap is a container/heap max-heap of active interval handles,
// ordered by err descending (seq breaks ties). Rather than a balanced
// tree keyed by (err, seq), membership is tracked on the interval
// itself (inIvals) and a popped-but-already-removed entry is simply
// dropped instead of returned.
type ivalHeap struct {
	ar    *arena
	items []handle
}

func (h *ivalHeap) Len() int { return len(h.items) }

func (h *ivalHeap) Less(i, j int) bool {
	a, b := h.ar.get(h.items[i]), h.ar.get(h.items[j])
	if a.err != b.err {
		return a.err > b.err
	}
	return a.seq < b.seq
}

func (h *ivalHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *ivalHeap) Push(x interface{}) { h.items = append(h.items, x.(handle)) }

func (h *ivalHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// ivalSet is the active-interval set: supports insert, arbitrary
// removal, and extracting either extreme by err. Membership is
// tracked via interval.inIvals so
// Remove/Contains are O(1); Max pops the heap down past any stale
// entries (intervals removed since they were pushed) until it finds a
// live one, which is cheap in practice since an interval is pushed at
// most a small constant number of times over its lifetime.
type ivalSet struct {
	h ivalHeap
	n int
}

func newIvalSet(ar *arena) *ivalSet {
	s := &ivalSet{h: ivalHeap{ar: ar}}
	heap.Init(&s.h)
	return s
}

func (s *ivalSet) Len() int { return s.n }

func (s *ivalSet) Contains(h handle) bool { return s.h.ar.get(h).inIvals }

// Add inserts h if it is not already a member.
func (s *ivalSet) Add(h handle) {
	iv := s.h.ar.get(h)
	if iv.inIvals {
		return
	}
	iv.inIvals = true
	s.n++
	heap.Push(&s.h, h)
}

// Remove discards h if present and reports whether it was found. It
// does not need to touch the underlying heap slice: a handle whose
// inIvals flag is false is simply skipped wherever it is later popped.
func (s *ivalSet) Remove(h handle) bool {
	iv := s.h.ar.get(h)
	if !iv.inIvals {
		return false
	}
	iv.inIvals = false
	s.n--
	return true
}

// Max returns the handle with the greatest err (seq-tiebroken), or
// false if the set is empty. An interval's err can change while a
// stale entry for it is still in the heap (Tell removes, reprocesses
// and re-adds it), so the heap order is rebuilt from current values
// first. Max pops h's heap entry but leaves h a member of the set, so
// the caller must call Remove(h) immediately after, as fillStack does.
func (s *ivalSet) Max() (handle, bool) {
	heap.Init(&s.h)
	for len(s.h.items) > 0 {
		h := heap.Pop(&s.h).(handle)
		if s.h.ar.get(h).inIvals {
			return h, true
		}
	}
	return noHandle, false
}

// Min returns the handle with the least err, used only by the rare
// 1000-entry cap eviction. It is a linear scan: container/heap only
// exposes one extreme cheaply, and eviction is infrequent enough that
// scanning every live entry once is the simplest correct approach.
func (s *ivalSet) Min() (handle, bool) {
	var best handle = noHandle
	found := false
	for _, h := range s.h.items {
		iv := s.h.ar.get(h)
		if !iv.inIvals {
			continue
		}
		if !found {
			best, found = h, true
			continue
		}
		bv := s.h.ar.get(best)
		if iv.err < bv.err || (iv.err == bv.err && iv.seq < bv.seq) {
			best = h
		}
	}
	return best, found
}
