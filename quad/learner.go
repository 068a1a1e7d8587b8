// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package quad implements an adaptive Clenshaw-Curtis quadrature
// learner: it samples a black-box univariate function at the points
// with the largest estimated error contribution, stopping once the
// requested absolute or relative tolerance on the definite integral is
// met.
package quad

import (
	"math"

	"github.com/andrenmelo/adaptive/learner"
)

// maxIvals caps the number of simultaneously active intervals. Past
// this, the interval with the smallest error is dropped without
// folding its contribution into the running totals (see DESIGN.md for
// why this sharp edge is kept).
const maxIvals = 1000

// IntegratorLearner adaptively samples f on [a, b] to estimate its
// definite integral. Points are dispensed by Ask and may be supplied
// back by Tell in any order; the x-mapping absorbs the reordering.
type IntegratorLearner struct {
	a, b float64

	hasTol, hasRtol bool
	tol, rtol       float64

	ar        arena
	firstIval handle
	seq       int

	ivals         *ivalSet // active intervals, extractable by max or min err
	prioritySplit []handle // stack: push/pop from the tail

	xMapping      map[float64]*handleSet // each bucket ordered by (rdepth, seq)
	doneValues    map[float64]float64
	notDonePoints map[float64]bool
	stack         []float64 // FIFO: push to tail, pop from head

	// Contributions of intervals retired at machine precision. Such an
	// interval is sealed: it no longer appears among the complete
	// branches, so its mass enters the totals exactly once, from here.
	errFinal, igralFinal float64

	cachedBranches []handle
}

// seqOf reads an interval's sequence number, the monotone tiebreaker
// that makes the ordered-set comparators total orders.
func (l *IntegratorLearner) seqOf(h handle) int { return l.ar.get(h).seq }

func (l *IntegratorLearner) rdepthLess(x, y handle) bool {
	rx, ry := l.ar.get(x).rdepth, l.ar.get(y).rdepth
	if rx != ry {
		return rx < ry
	}
	return l.seqOf(x) < l.seqOf(y)
}

// NewIntegratorLearner creates a learner for the interval [a, b]. At
// least one of tol or rtol must be non-nil; passing both makes Done
// require that both be satisfied.
func NewIntegratorLearner(a, b float64, tol, rtol *float64) (*IntegratorLearner, error) {
	if tol == nil && rtol == nil {
		return nil, learner.Misusef("quad: at least one of tol or rtol must be given")
	}
	if a >= b {
		return nil, learner.Misusef("quad: interval [%g, %g] is empty or reversed", a, b)
	}

	l := &IntegratorLearner{
		a: a, b: b,
		xMapping:      make(map[float64]*handleSet),
		doneValues:    make(map[float64]float64),
		notDonePoints: make(map[float64]bool),
	}
	if tol != nil {
		l.hasTol, l.tol = true, *tol
	}
	if rtol != nil {
		l.hasRtol, l.rtol = true, *rtol
	}
	l.ivals = newIvalSet(&l.ar)

	firstTol := l.tol
	if !l.hasTol {
		firstTol = l.rtol
	}
	h, pts := l.ar.makeFirst(a, b, firstTol)
	l.ar.get(h).seq = l.nextSeq()
	l.firstIval = h
	if err := l.updateIval(h, pts); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *IntegratorLearner) nextSeq() int {
	l.seq++
	return l.seq
}

// Ask returns up to n points to evaluate next, each paired with an
// estimate of how much resolving it would reduce the total error. A
// divergence detected while scheduling new intervals is returned as an
// error, together with the points dispensed before it.
func (l *IntegratorLearner) Ask(n int) ([]float64, []float64, error) {
	points, losses := l.popFromStack(n)
	for len(points) < n && (l.ivals.Len() > 0 || len(l.prioritySplit) > 0) {
		if err := l.fillStack(); err != nil {
			return points, losses, err
		}
		morePoints, moreLosses := l.popFromStack(n - len(points))
		points = append(points, morePoints...)
		losses = append(losses, moreLosses...)
	}
	return points, losses, nil
}

func (l *IntegratorLearner) popFromStack(n int) ([]float64, []float64) {
	if n > len(l.stack) {
		n = len(l.stack)
	}
	points := append([]float64(nil), l.stack[:n]...)
	l.stack = l.stack[n:]

	losses := make([]float64, len(points))
	for i, x := range points {
		maxErr := math.Inf(-1)
		if set := l.xMapping[x]; set != nil {
			for _, h := range set.items {
				if e := l.ar.get(h).err; e > maxErr {
					maxErr = e
				}
			}
		}
		losses[i] = maxErr
	}
	return points, losses
}

// Tell records the value computed at point, advancing every interval
// waiting on it. point must have been previously returned by Ask.
func (l *IntegratorLearner) Tell(point float64, value float64) error {
	set, ok := l.xMapping[point]
	if !ok {
		return learner.Misusef("quad: point %g was not asked for", point)
	}
	l.doneValues[point] = value
	delete(l.notDonePoints, point)

	waiting := append([]handle(nil), set.items...)
	for _, h := range waiting {
		iv := l.ar.get(h)
		iv.setValue(point, value)
		if !iv.complete() || iv.done() || iv.discard {
			continue
		}

		wasActive := l.ivals.Remove(h)
		forceSplit, remove, divErr := l.ar.completeProcess(h)
		if divErr != nil {
			return divErr
		}
		if remove {
			l.seal(h)
		} else if wasActive {
			l.ivals.Add(h)
		}
		if forceSplit {
			l.prioritySplit = append(l.prioritySplit, h)
		}
	}
	return nil
}

// seal retires an interval resolved to machine precision: its
// contribution moves into the final accumulators, and any speculative
// children are discarded so the region cannot be counted again.
func (l *IntegratorLearner) seal(h handle) {
	iv := l.ar.get(h)
	iv.sealed = true
	l.errFinal += iv.err
	l.igralFinal += iv.igral
	for _, ch := range iv.children {
		l.setDiscard(ch)
	}
}

// updateIval registers h's sample points in the x-mapping, immediately
// delivering any already-known values and otherwise queuing unseen
// points for Ask, then adds h to the active set.
func (l *IntegratorLearner) updateIval(h handle, points []float64) error {
	iv := l.ar.get(h)
	if iv.seq == 0 {
		iv.seq = l.nextSeq()
	}
	for _, x := range points {
		set, ok := l.xMapping[x]
		if !ok {
			set = newHandleSet(l.rdepthLess)
			l.xMapping[x] = set
		}
		set.Add(h)

		if v, known := l.doneValues[x]; known {
			if err := l.Tell(x, v); err != nil {
				return err
			}
		} else if !l.notDonePoints[x] {
			l.notDonePoints[x] = true
			l.stack = append(l.stack, x)
		}
	}
	// Delivering known values above may have sealed h already; a sealed
	// interval must never return to the active set, or its region could
	// be split and counted a second time.
	if !iv.sealed {
		l.ivals.Add(h)
	}
	return nil
}

// setDiscard marks h and its descendants as abandoned, drops them from
// the active set, and prunes any stack entries whose every remaining
// consumer has been discarded.
func (l *IntegratorLearner) setDiscard(h handle) {
	iv := l.ar.get(h)
	iv.discard = true
	l.ivals.Remove(h)
	l.pruneStack()
	for _, ch := range iv.children {
		l.setDiscard(ch)
	}
}

func (l *IntegratorLearner) pruneStack() {
	kept := l.stack[:0]
	for _, x := range l.stack {
		live := false
		if set := l.xMapping[x]; set != nil {
			for _, h := range set.items {
				if !l.ar.get(h).discard {
					live = true
					break
				}
			}
		}
		if live {
			kept = append(kept, x)
		}
	}
	l.stack = kept
}

// fillStack advances the learner by one refine or split step, feeding
// freshly created intervals' points onto the stack for Ask to hand
// out. Intervals queued for a forced split take precedence over the
// globally worst interval.
func (l *IntegratorLearner) fillStack() error {
	var h handle
	forceSplit := false

	if n := len(l.prioritySplit); n > 0 {
		h = l.prioritySplit[n-1]
		l.prioritySplit = l.prioritySplit[:n-1]
		forceSplit = true
		// Children created by an earlier speculative refinement are
		// superseded by the split: discard them and their descendants.
		for _, ch := range l.ar.get(h).children {
			l.setDiscard(ch)
		}
	} else {
		hMax, ok := l.ivals.Max()
		if !ok {
			return nil
		}
		h = hMax
	}
	l.ivals.Remove(h)

	iv := l.ar.get(h)
	pts := iv.points()
	reachedMachineTol := pts[1] <= pts[0] || pts[len(pts)-1] <= pts[len(pts)-2]

	if !iv.discard && !reachedMachineTol {
		if iv.depth == 3 || forceSplit {
			children, childPts := l.ar.split(h)
			for i, ch := range children {
				if err := l.updateIval(ch, childPts[i]); err != nil {
					return err
				}
			}
		} else {
			child, childPts := l.ar.refine(h)
			if err := l.updateIval(child, childPts); err != nil {
				return err
			}
		}
	}

	if l.ivals.Len() > maxIvals {
		if hMin, ok := l.ivals.Min(); ok {
			l.ivals.Remove(hMin)
		}
	}
	return nil
}

// deepestCompleteBranches returns, for the subtree rooted at h, every
// descendant (possibly h itself) that is done with no child yet
// contributing a finite estimated error of its own. Sealed intervals
// are skipped: their mass lives in the final accumulators.
func (l *IntegratorLearner) deepestCompleteBranches(h handle) []handle {
	var out []handle
	var walk func(handle)
	walk = func(h handle) {
		iv := l.ar.get(h)
		if iv.sealed {
			return
		}
		childrenErr := math.Inf(1)
		if len(iv.children) > 0 {
			childrenErr = 0
			for _, ch := range iv.children {
				e := l.ar.get(ch).estErr
				if math.IsInf(e, 1) {
					childrenErr = math.Inf(1)
					break
				}
				childrenErr += e
			}
		}
		if !math.IsInf(iv.estErr, 1) && math.IsInf(childrenErr, 1) {
			out = append(out, h)
			return
		}
		for _, ch := range iv.children {
			walk(ch)
		}
	}
	walk(h)
	return out
}

// completeBranches returns the current frontier of done intervals that
// between them cover the live part of [a, b] exactly once. The result
// is cached and only recomputed from the root when a cached entry
// turns out to have been discarded.
func (l *IntegratorLearner) completeBranches() []handle {
	root := l.ar.get(l.firstIval)
	if !root.done() {
		return nil
	}
	if len(l.cachedBranches) == 0 {
		l.cachedBranches = []handle{l.firstIval}
	}

	var result []handle
	for _, h := range l.cachedBranches {
		iv := l.ar.get(h)
		if iv.discard {
			result = l.deepestCompleteBranches(l.firstIval)
			break
		}
		if iv.sealed {
			continue
		}
		if len(iv.children) == 0 {
			result = append(result, h)
		} else {
			result = append(result, l.deepestCompleteBranches(h)...)
		}
	}
	l.cachedBranches = result
	return l.cachedBranches
}

// Igral returns the current estimate of the definite integral: the sum
// over complete branches plus the sealed contributions.
func (l *IntegratorLearner) Igral() float64 {
	sum := l.igralFinal
	for _, h := range l.completeBranches() {
		sum += l.ar.get(h).igral
	}
	return sum
}

// Err returns the current estimate of the absolute error of Igral, or
// +Inf if no branch has been fully resolved yet.
func (l *IntegratorLearner) Err() float64 {
	branches := l.completeBranches()
	if len(branches) == 0 {
		return math.Inf(1)
	}
	sum := l.errFinal
	for _, h := range branches {
		sum += l.ar.get(h).err
	}
	return sum
}

// Loss reports how far Err is from the requested tolerance. real is
// accepted for symmetry with the learner.Losser contract but unused:
// the integrator has no provisional loss notion to select between.
func (l *IntegratorLearner) Loss(real bool) float64 {
	tol := l.tol
	if !l.hasTol {
		tol = l.rtol
	}
	return math.Abs(math.Abs(l.Igral())*tol - l.Err())
}

// Done reports whether every configured tolerance (absolute and/or
// relative) has been met, or whether no active interval can improve
// the estimate further.
func (l *IntegratorLearner) Done() bool {
	errV := l.Err()

	isDone := true
	if l.hasTol {
		isDone = errV == 0 || errV < l.tol ||
			(l.errFinal > l.tol && errV-l.errFinal < l.tol) ||
			l.ivals.Len() == 0
	}

	isRDone := true
	if l.hasRtol {
		igralV := l.Igral()
		thresh := math.Abs(igralV) * l.rtol
		isRDone = errV == 0 || errV < thresh ||
			(l.errFinal > thresh && errV-l.errFinal < thresh) ||
			l.ivals.Len() == 0
	}

	return isDone && isRDone
}

// NrPoints returns the number of distinct abscissae whose value is
// known.
func (l *IntegratorLearner) NrPoints() int { return len(l.doneValues) }

// RemoveUnfinished is a no-op: pruning the pending points here would
// desync the x-mapping from the intervals still expecting them, and
// re-asking simply dispenses the same points again.
func (l *IntegratorLearner) RemoveUnfinished() {}
