// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tri implements an adaptive triangulation learner: it samples
// a black-box function on R^n (n >= 2), keeping a per-simplex loss and
// always offering the next point inside the highest-loss region.
// Points may be dispensed long before their values arrive; pending
// points live in sub-triangulations of the real mesh so that a
// simplex's loss can be pro-rated over work already in flight.
package tri

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"

	"github.com/andrenmelo/adaptive/geom"
	"github.com/andrenmelo/adaptive/learner"
)

// Point is a coordinate in R^dim.
type Point = geom.Point

// noSimplex marks the absence of a location hint.
const noSimplex geom.SimplexID = -1

// samplerSeed is the fixed seed backing the pre-triangulation fallback
// sampling, so identical ask/tell sequences always pick the same
// points.
const samplerSeed = 20060913

// TriangulatingLearner adaptively samples f: R^dim -> R^k within
// bounds.
type TriangulatingLearner struct {
	dim    int
	bounds [][2]float64
	lossFn LossPerSimplex

	scale        []float64 // normalizes each axis to unit length
	boundsPoints []Point

	data    map[string]Value
	order   []Point // told points in arrival order; seeds the mesh deterministically
	pending map[string]bool

	tr *geom.Triangulation

	losses           map[geom.SimplexID]float64
	subtri           map[geom.SimplexID]*geom.Triangulation
	pendingToSimplex map[string]geom.SimplexID

	rng *rand.Rand
}

// NewTriangulatingLearner creates a learner over the box described by
// bounds ([dim][2]{lo, hi}). lossFn defaults to StdLoss when nil.
func NewTriangulatingLearner(bounds [][2]float64, lossFn LossPerSimplex) (*TriangulatingLearner, error) {
	dim := len(bounds)
	if dim < 2 {
		return nil, learner.Misusef("tri: dim must be >= 2, got %d", dim)
	}
	for i, b := range bounds {
		if !(b[1] > b[0]) {
			return nil, learner.Misusef("tri: bounds[%d] = %v is empty or reversed", i, b)
		}
	}
	if lossFn == nil {
		lossFn = StdLoss{}
	}

	l := &TriangulatingLearner{
		dim:              dim,
		bounds:           bounds,
		lossFn:           lossFn,
		scale:            make([]float64, dim),
		data:             make(map[string]Value),
		pending:          make(map[string]bool),
		losses:           make(map[geom.SimplexID]float64),
		subtri:           make(map[geom.SimplexID]*geom.Triangulation),
		pendingToSimplex: make(map[string]geom.SimplexID),
		rng:              rand.New(rand.NewSource(samplerSeed)),
	}
	for i, b := range bounds {
		l.scale[i] = 1 / (b[1] - b[0])
	}
	l.boundsPoints = cornersOf(bounds)
	return l, nil
}

func cornersOf(bounds [][2]float64) []Point {
	dim := len(bounds)
	n := 1 << uint(dim)
	out := make([]Point, n)
	for mask := 0; mask < n; mask++ {
		p := make(Point, dim)
		for k := 0; k < dim; k++ {
			if mask&(1<<uint(k)) != 0 {
				p[k] = bounds[k][1]
			} else {
				p[k] = bounds[k][0]
			}
		}
		out[mask] = p
	}
	return out
}

func key(p Point) string {
	var b strings.Builder
	for i, v := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', 17, 64))
	}
	return b.String()
}

// BoundsAreDone reports whether every corner of the box has a known
// value, the precondition for the mesh to span the whole box.
func (l *TriangulatingLearner) BoundsAreDone() bool {
	for _, c := range l.boundsPoints {
		if _, ok := l.data[key(c)]; !ok {
			return false
		}
	}
	return true
}

// VDim returns the dimension of the sampling domain.
func (l *TriangulatingLearner) VDim() int { return l.dim }

// NrPoints returns the number of points whose value is known.
func (l *TriangulatingLearner) NrPoints() int { return len(l.data) }

// PointsAndValues returns every point whose value is known, paired
// with the value told for it, in arrival order.
func (l *TriangulatingLearner) PointsAndValues() ([]Point, []Value) {
	points := make([]Point, 0, len(l.order))
	values := make([]Value, 0, len(l.order))
	for _, p := range l.order {
		points = append(points, p)
		values = append(values, l.data[key(p)])
	}
	return points, values
}

// Ask produces up to n candidate points with their loss-improvement
// estimates: box corners first, then random points until a mesh
// exists, then midpoints of the longest edge of the highest-loss
// simplex (pro-rated over pending sub-triangulations). The error is
// always nil; it exists for symmetry with the integrator's Ask.
func (l *TriangulatingLearner) Ask(n int) ([]Point, []float64, error) {
	points := make([]Point, 0, n)
	improvements := make([]float64, 0, n)
	for len(points) < n {
		p, imp := l.askOne()
		points = append(points, p)
		improvements = append(improvements, imp)
	}
	return points, improvements, nil
}

func (l *TriangulatingLearner) askOne() (Point, float64) {
	for _, c := range l.boundsPoints {
		k := key(c)
		if _, told := l.data[k]; told {
			continue
		}
		if l.pending[k] {
			continue
		}
		l.tellPending(c, noSimplex)
		return c, math.Inf(1)
	}

	if l.tr == nil {
		l.tryBuildTriangulation()
	}
	if l.tr == nil {
		p := l.randomPointInBounds()
		l.pending[key(p)] = true
		return p, math.Inf(1)
	}

	vertices, home, loss, ok := l.selectSimplex()
	if !ok {
		p := l.randomPointInBounds()
		l.pending[key(p)] = true
		return p, math.Inf(1)
	}

	p := l.chooseMidpoint(vertices)
	l.pendingToSimplex[key(p)] = home
	l.tellPending(p, home)
	return p, loss
}

func (l *TriangulatingLearner) randomPointInBounds() Point {
	p := make(Point, l.dim)
	for i, b := range l.bounds {
		p[i] = b[0] + l.rng.Float64()*(b[1]-b[0])
	}
	return p
}

// tryBuildTriangulation attempts to seed the mesh once enough told
// points are available, pricing every seeded simplex. It is a no-op
// (and leaves Ask falling back to random sampling) until it succeeds.
func (l *TriangulatingLearner) tryBuildTriangulation() {
	if len(l.order) < l.dim+1 {
		return
	}
	tr, err := geom.New(l.dim, l.order)
	if err != nil {
		return // the points seen so far span too few dimensions; retry later
	}
	l.tr = tr
	for _, s := range tr.Simplices() {
		vertices := tr.GetVertices(s)
		l.losses[s] = l.lossFn.Loss(vertices, l.valuesOf(vertices))
	}
}

func (l *TriangulatingLearner) valuesOf(vertices []Point) []Value {
	out := make([]Value, len(vertices))
	for i, v := range vertices {
		out[i] = l.data[key(v)]
	}
	return out
}

// selectSimplex picks the sampling domain for the next point: the
// highest-loss real simplex, unless a pending sub-simplex carries a
// larger pro-rated loss. Both queues are rebuilt from current state on
// every call, so no stale entry can survive a mesh change. home is the
// real simplex the chosen domain belongs to.
func (l *TriangulatingLearner) selectSimplex() (vertices []Point, home geom.SimplexID, loss float64, ok bool) {
	ids := make([]geom.SimplexID, 0, len(l.losses))
	for id := range l.losses {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, 0, 0, false
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rh := make(realHeap, 0, len(ids))
	for _, id := range ids {
		rh = append(rh, realEntry{loss: l.losses[id], id: id})
	}
	heap.Init(&rh)

	var ph pendHeap
	candID := noSimplex
	candLoss := 0.0
	for rh.Len() > 0 {
		e := heap.Pop(&rh).(realEntry)
		sub, has := l.subtri[e.id]
		if !has {
			candID, candLoss = e.id, e.loss
			break
		}
		// Loss already committed to pending points competes at its
		// volume-pro-rated share.
		density := 0.0
		if vol := l.tr.Volume(e.id); vol > 0 {
			density = e.loss / vol
		}
		for _, s := range sub.Simplices() {
			heap.Push(&ph, pendEntry{value: sub.Volume(s) * density, real: e.id, sub: s})
		}
	}

	if ph.Len() > 0 {
		top := ph[0]
		if candID == noSimplex || top.value > candLoss {
			sub := l.subtri[top.real]
			return sub.GetVertices(top.sub), top.real, top.value, true
		}
	}
	if candID != noSimplex {
		return l.tr.GetVertices(candID), candID, candLoss, true
	}
	return nil, 0, 0, false
}

// chooseMidpoint picks the midpoint of the longest edge of vertices in
// the bounds-normalized coordinate frame. The midpoint of the
// normalized edge maps back to the plain midpoint of the original one,
// so the normalization only decides which edge wins.
func (l *TriangulatingLearner) chooseMidpoint(vertices []Point) Point {
	var dists []float64
	var pairs [][2]int
	for i := 0; i < len(vertices); i++ {
		for j := i + 1; j < len(vertices); j++ {
			dists = append(dists, l.normalizedDist(vertices[i], vertices[j]))
			pairs = append(pairs, [2]int{i, j})
		}
	}
	_, imax := utl.DblArgMinMax(dists)
	i, j := pairs[imax][0], pairs[imax][1]

	mid := make(Point, l.dim)
	for k := 0; k < l.dim; k++ {
		mid[k] = (vertices[i][k] + vertices[j][k]) / 2
	}
	return mid
}

func (l *TriangulatingLearner) normalizedDist(a, b Point) float64 {
	var sum float64
	for k := 0; k < l.dim; k++ {
		d := (a[k] - b[k]) * l.scale[k]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Tell records value at point. A nil value marks point as pending.
// Points whose value is already known are ignored.
func (l *TriangulatingLearner) Tell(point Point, value Value) error {
	k := key(point)
	if _, already := l.data[k]; already {
		return nil
	}
	if value == nil {
		return l.tellPending(point, noSimplex)
	}

	delete(l.pending, k)
	l.data[k] = value
	l.order = append(l.order, append(Point(nil), point...))

	if l.tr == nil {
		l.tryBuildTriangulation()
		return nil
	}

	hint := noSimplex
	if h, ok := l.pendingToSimplex[k]; ok {
		delete(l.pendingToSimplex, k)
		if l.tr.Has(h) {
			hint = h
		}
	}

	var err error
	var toDelete, toAdd []geom.SimplexID
	if hint != noSimplex {
		toDelete, toAdd, err = l.tr.AddPoint(point, hint)
	} else {
		toDelete, toAdd, err = l.tr.AddPoint(point)
	}
	if err != nil {
		return learner.Misusef("tri: cannot insert %v: %v", point, err)
	}
	l.updateLosses(toDelete, toAdd)
	return nil
}

// tellPending marks point pending and registers it with every real
// simplex containing it, creating or extending the sub-triangulations
// that pro-rate those simplices' losses.
func (l *TriangulatingLearner) tellPending(point Point, hint geom.SimplexID) error {
	k := key(point)
	l.pending[k] = true
	if l.tr == nil {
		return nil
	}

	located := hint
	if located == noSimplex || !l.tr.Has(located) {
		var ok bool
		located, ok = l.tr.LocatePoint(point)
		if !ok {
			return nil // outside the current hull; it will bind on arrival
		}
	}

	for _, id := range l.neighboursOf(located) {
		if !l.tr.PointInSimplex(id, point) {
			continue
		}
		l.bindPending(point, id)
	}
	return nil
}

// bindPending inserts point into the sub-triangulation rooted at the
// real simplex id, creating the sub-triangulation from the simplex's
// own vertices first if needed.
func (l *TriangulatingLearner) bindPending(point Point, id geom.SimplexID) {
	sub, ok := l.subtri[id]
	if !ok {
		var err error
		sub, err = geom.New(l.dim, l.tr.GetVertices(id))
		if err != nil {
			return
		}
		l.subtri[id] = sub
	}
	if _, _, err := sub.AddPoint(point); err != nil {
		return // duplicate or degenerate placement; leave the sub-triangulation as is
	}
	l.pendingToSimplex[key(point)] = id
}

// neighboursOf returns every simplex sharing a vertex with id
// (including id itself), in ascending ID order.
func (l *TriangulatingLearner) neighboursOf(id geom.SimplexID) []geom.SimplexID {
	seen := map[geom.SimplexID]bool{id: true}
	for _, v := range l.tr.GetVertices(id) {
		for _, n := range l.tr.VertexToSimplices(v) {
			seen[n] = true
		}
	}
	out := make([]geom.SimplexID, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// updateLosses applies an incremental mesh change: deleted simplices
// drop their losses and release the pending points of their
// sub-triangulations, new simplices are priced, and each released
// pending point is re-bound to every new simplex containing it.
func (l *TriangulatingLearner) updateLosses(toDelete, toAdd []geom.SimplexID) {
	unboundByKey := make(map[string]Point)
	for _, id := range toDelete {
		delete(l.losses, id)
		sub, ok := l.subtri[id]
		if !ok {
			continue
		}
		for _, v := range subtriVertices(sub) {
			vk := key(v)
			if _, told := l.data[vk]; !told {
				unboundByKey[vk] = v
			}
			delete(l.pendingToSimplex, vk)
		}
		delete(l.subtri, id)
	}

	unboundKeys := make([]string, 0, len(unboundByKey))
	for vk := range unboundByKey {
		unboundKeys = append(unboundKeys, vk)
	}
	sort.Strings(unboundKeys)

	for _, id := range toAdd {
		vertices := l.tr.GetVertices(id)
		l.losses[id] = l.lossFn.Loss(vertices, l.valuesOf(vertices))
		for _, vk := range unboundKeys {
			p := unboundByKey[vk]
			if l.tr.PointInSimplex(id, p) {
				l.bindPending(p, id)
			}
		}
	}
}

func subtriVertices(sub *geom.Triangulation) []Point {
	seen := make(map[string]Point)
	var keys []string
	for _, s := range sub.Simplices() {
		for _, v := range sub.GetVertices(s) {
			k := key(v)
			if _, ok := seen[k]; !ok {
				seen[k] = v
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	out := make([]Point, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out
}

// Loss returns the maximum simplex loss, or +Inf if no triangulation
// exists yet. real is accepted for contract symmetry with the
// integrator but otherwise unused.
func (l *TriangulatingLearner) Loss(real bool) float64 {
	if l.tr == nil || len(l.losses) == 0 {
		return math.Inf(1)
	}
	max := math.Inf(-1)
	for _, v := range l.losses {
		if v > max {
			max = v
		}
	}
	return max
}

// RemoveUnfinished drops every point this learner has dispensed but
// not yet been told, so the caller can restart without rebuilding.
func (l *TriangulatingLearner) RemoveUnfinished() {
	l.pending = make(map[string]bool)
	l.pendingToSimplex = make(map[string]geom.SimplexID)
	l.subtri = make(map[geom.SimplexID]*geom.Triangulation)
}

// DumpMesh writes a terse summary of the current mesh (simplex count,
// point count, total loss) to the console.
func (l *TriangulatingLearner) DumpMesh() {
	if l.tr == nil {
		io.Pf("tri: no triangulation yet (%d points told)\n", len(l.data))
		return
	}
	total := 0.0
	for _, v := range l.losses {
		total += v
	}
	io.Pf("tri: %d simplices, %d points, total loss %g\n", len(l.tr.Simplices()), len(l.data), total)
}

// realEntry / realHeap: max-heap of real simplices by loss, ties
// broken by ascending ID so the pop order is deterministic.
type realEntry struct {
	loss float64
	id   geom.SimplexID
}

type realHeap []realEntry

func (h realHeap) Len() int { return len(h) }
func (h realHeap) Less(i, j int) bool {
	if h[i].loss != h[j].loss {
		return h[i].loss > h[j].loss
	}
	return h[i].id < h[j].id
}
func (h realHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *realHeap) Push(x interface{}) { *h = append(*h, x.(realEntry)) }
func (h *realHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// pendEntry / pendHeap: max-heap of pending sub-simplices by pro-rated
// loss, ties broken by (real, sub) ascending.
type pendEntry struct {
	value float64
	real  geom.SimplexID
	sub   geom.SimplexID
}

type pendHeap []pendEntry

func (h pendHeap) Len() int { return len(h) }
func (h pendHeap) Less(i, j int) bool {
	if h[i].value != h[j].value {
		return h[i].value > h[j].value
	}
	if h[i].real != h[j].real {
		return h[i].real < h[j].real
	}
	return h[i].sub < h[j].sub
}
func (h pendHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pendHeap) Push(x interface{}) { *h = append(*h, x.(pendEntry)) }
func (h *pendHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
