// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quad

import (
	"fmt"
	"math"
	"sort"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/num"

	"github.com/andrenmelo/adaptive/learner"
)

// ndivMax caps the divergence counter before an interval's growth is
// treated as proof the integrand is non-integrable.
const ndivMax = 20

// handle addresses an interval inside an IntegratorLearner's arena.
// Using integer handles rather than *interval pointers for parent and
// children links keeps the interval<->parent<->children<->x-mapping
// graph a plain value graph: discarding a subtree is a walk over
// handles, with no cycles for anything to leak through.
type handle int

const noHandle handle = -1

// interval is one node of the integrator's recursive partition of
// [a, b].
type interval struct {
	a, b      float64
	depth     int
	pts       []float64 // the N[depth] sample abscissae
	fx        []float64 // sample values; NaN marks both "not told" and "told NaN"
	known     []bool    // known[i]: fx[i] was told, finite or not
	ndone     int       // count of known entries
	processed bool      // completeProcess has run

	// c[row] holds the fit at refinement level row, padded to nMax.
	// Only row `depth` (and, for the root, row 2) are current.
	c    [4][]float64
	cOld []float64 // fit inherited from the parent, padded to nMax

	igral, err float64
	estErr     float64
	tol        float64
	rdepth     int
	ndiv       int

	parent   handle
	children []handle
	discard  bool
	sealed   bool // retired at machine precision; contributes via the final accumulators

	seq     int  // insertion order; breaks ties in handleSet/ivalHeap comparators
	inIvals bool // membership in the learner's active-interval set
}

func newInterval(a, b float64, depth int) *interval {
	iv := &interval{a: a, b: b, depth: depth, parent: noHandle, estErr: math.Inf(1)}
	mid, half := (a+b)/2, (b-a)/2
	iv.pts = make([]float64, N[depth])
	for i, x := range xi[depth] {
		iv.pts[i] = mid + half*x
	}
	iv.fx = make([]float64, N[depth])
	for i := range iv.fx {
		iv.fx[i] = math.NaN()
	}
	iv.known = make([]bool, N[depth])
	for r := range iv.c {
		iv.c[r] = make([]float64, nMax)
	}
	iv.cOld = make([]float64, nMax)
	return iv
}

// points returns the abscissae at this interval's current depth.
func (iv *interval) points() []float64 { return iv.pts }

// complete reports whether every abscissa at this depth has a value.
func (iv *interval) complete() bool { return iv.ndone == len(iv.fx) }

// done reports whether the interval is complete and its integral
// contribution has been computed.
func (iv *interval) done() bool { return iv.processed && iv.complete() }

// indexOf returns the sample index of abscissa x within this interval,
// or -1 if x is not one of its points. Points are computed identically
// everywhere from (a, b, depth), so membership is an exact float match.
func (iv *interval) indexOf(x float64) int {
	i := sort.SearchFloat64s(iv.pts, x)
	if i < len(iv.pts) && iv.pts[i] == x {
		return i
	}
	return -1
}

// setValue records value at abscissa x, returning false if x is not
// one of this interval's points. Non-finite values count as known:
// they are handled later by coefficient downdating.
func (iv *interval) setValue(x, value float64) bool {
	i := iv.indexOf(x)
	if i < 0 {
		return false
	}
	if !iv.known[i] {
		iv.known[i] = true
		iv.ndone++
	}
	iv.fx[i] = value
	return true
}

// arena owns every interval of one IntegratorLearner, addressed by
// handle. It is never shared across learner instances.
type arena struct {
	nodes []*interval
}

func (ar *arena) get(h handle) *interval { return ar.nodes[h] }

func (ar *arena) add(iv *interval) handle {
	ar.nodes = append(ar.nodes, iv)
	return handle(len(ar.nodes) - 1)
}

// makeFirst creates the root interval over [a, b] at full depth.
func (ar *arena) makeFirst(a, b, tol float64) (handle, []float64) {
	iv := newInterval(a, b, 3)
	iv.tol = tol
	iv.ndiv = 0
	iv.rdepth = 1
	iv.err = math.Inf(1)
	h := ar.add(iv)
	return h, iv.points()
}

// refine allocates one child at depth+1 over the same [a, b],
// inheriting tol, rdepth, ndiv and the coefficient history.
func (ar *arena) refine(h handle) (handle, []float64) {
	parent := ar.get(h)
	child := newInterval(parent.a, parent.b, parent.depth+1)
	child.tol = parent.tol
	child.rdepth = parent.rdepth
	child.ndiv = parent.ndiv
	for r := 0; r < 4; r++ {
		copy(child.c[r], parent.c[r])
	}
	copy(child.cOld, parent.cOld)
	child.parent = h
	child.err = parent.err
	ch := ar.add(child)
	parent.children = []handle{ch}
	return ch, child.points()
}

// split allocates two children, [a, m] and [m, b], where m is the
// parent's middle sample. Each starts fresh at depth 0.
func (ar *arena) split(h handle) ([2]handle, [2][]float64) {
	parent := ar.get(h)
	pts := parent.points()
	m := pts[len(pts)/2]

	left := newInterval(parent.a, m, 0)
	right := newInterval(m, parent.b, 0)
	for _, c := range [2]*interval{left, right} {
		c.tol = parent.tol / math.Sqrt2
		copy(c.cOld, parent.cOld)
		c.rdepth = parent.rdepth + 1
		c.parent = h
		c.ndiv = parent.ndiv
		c.err = parent.err / math.Sqrt2
	}
	lh, rh := ar.add(left), ar.add(right)
	parent.children = []handle{lh, rh}
	return [2]handle{lh, rh}, [2][]float64{left.points(), right.points()}
}

// DivergentIntegralError is raised when ndiv crosses ndivMax while the
// interval keeps being split. It carries a snapshot of the offending
// interval rather than a live handle, since the learner that produced
// it is typically abandoned immediately after.
type DivergentIntegralError struct {
	A, B                float64
	Depth, Rdepth, Ndiv int
}

func (e *DivergentIntegralError) Error() string {
	return fmt.Sprintf("quad: divergent integral on [%g, %g] (depth=%d rdepth=%d ndiv=%d)",
		e.A, e.B, e.Depth, e.Rdepth, e.Ndiv)
}

// Kind identifies this as a learner.ErrDivergence error.
func (e *DivergentIntegralError) Kind() learner.ErrKind { return learner.ErrDivergence }

// completeProcess computes the integral contribution and error of a
// freshly completed interval, propagates estErr up the ancestor chain,
// and applies the machine-precision termination test. remove means the
// interval must be retired into the learner's final accumulators.
func (ar *arena) completeProcess(h handle) (forceSplit, remove bool, divErr error) {
	iv := ar.get(h)

	switch {
	case iv.parent == noHandle:
		processMakeFirst(iv)
	default:
		parent := ar.get(iv.parent)
		if iv.rdepth > parent.rdepth {
			divErr = processSplit(iv, parent)
		} else {
			forceSplit = processRefine(iv)
		}
	}
	iv.processed = true

	if math.IsInf(iv.estErr, 1) {
		iv.estErr = iv.err
	}
	for cur := iv.parent; cur != noHandle; {
		p := ar.get(cur)
		sum := 0.0
		finite := true
		for _, ch := range p.children {
			e := ar.get(ch).estErr
			if math.IsInf(e, 1) {
				finite = false
				break
			}
			sum += e
		}
		if !finite {
			break
		}
		p.estErr = sum
		cur = p.parent
	}

	remove = iv.err < math.Abs(iv.igral)*num.EPS*vCond[iv.depth]
	if remove {
		// No point splitting an interval that is already resolved to
		// machine precision.
		forceSplit = false
	}
	return forceSplit, remove, divErr
}

func processMakeFirst(iv *interval) {
	fx := append([]float64(nil), iv.fx...)
	nans := zeroNaNs(fx)

	c3 := matVec(vInv[3], fx)
	copy(iv.c[3], c3)

	sub := make([]float64, N[2])
	for i := range sub {
		sub[i] = fx[i*2]
	}
	c2 := matVec(vInv[2], sub)
	copy(iv.c[2][:N[2]], c2)

	for _, i := range nans {
		fx[i] = math.NaN()
	}
	iv.fx = fx

	width := iv.b - iv.a
	cDiff := la.VecNorm(vecSub(iv.c[3], iv.c[2]))
	iv.err = width * cDiff
	iv.igral = width * iv.c[3][0] / math.Sqrt2

	n3 := la.VecNorm(iv.c[3])
	if n3 > 0 && cDiff/n3 > 0.1 {
		// The depth-2 and depth-3 fits disagree badly: the fit is
		// unreliable, so report at least the full signal as error.
		if alt := width * n3; alt > iv.err {
			iv.err = alt
		}
	}
}

func processSplit(iv, parent *interval) error {
	fx := append([]float64(nil), iv.fx...)
	cNew := calcCoeffs(fx, iv.depth)
	copy(iv.c[iv.depth][:N[iv.depth]], cNew)
	iv.fx = fx

	isLeft := iv.a == parent.a
	cOld := matVec(shiftMatrix(isLeft), parent.c[parent.depth])
	copy(iv.cOld, cOld)

	width := iv.b - iv.a
	cDiff := la.VecNorm(vecSub(iv.c[iv.depth], iv.cOld))
	iv.err = width * cDiff
	iv.igral = width * iv.c[iv.depth][0] / math.Sqrt2

	ndivInc := 0
	if math.Abs(parent.c[0][0]) > 0 && math.Abs(iv.c[0][0])/math.Abs(parent.c[0][0]) > 2 {
		ndivInc = 1
	}
	iv.ndiv = parent.ndiv + ndivInc

	if iv.ndiv > ndivMax && 2*iv.ndiv > iv.rdepth {
		return &DivergentIntegralError{A: iv.a, B: iv.b, Depth: iv.depth, Rdepth: iv.rdepth, Ndiv: iv.ndiv}
	}
	return nil
}

func processRefine(iv *interval) bool {
	fx := append([]float64(nil), iv.fx...)
	cNew := calcCoeffs(fx, iv.depth)
	copy(iv.c[iv.depth][:N[iv.depth]], cNew)
	iv.fx = fx

	width := iv.b - iv.a
	cDiff := la.VecNorm(vecSub(iv.c[iv.depth-1], iv.c[iv.depth]))
	iv.err = width * cDiff
	iv.igral = width * cNew[0] / math.Sqrt2

	nc := la.VecNorm(cNew)
	// A large relative change means refining did not converge the fit;
	// the caller should split instead next time.
	return nc > 0 && cDiff/nc > 0.1
}

// vecSub returns a - b elementwise; a and b must have equal length.
func vecSub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}
