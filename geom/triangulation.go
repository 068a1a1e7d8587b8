// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom implements the incremental simplex mesh that backs the
// triangulating learner: Bowyer-Watson insertion with circumsphere
// tests for interior points, plus convex-hull extension when a new
// point falls outside the current mesh. All iteration orders are
// deterministic so that identical insertion sequences produce
// identical meshes.
package geom

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/la"
)

// Point is a coordinate in R^dim.
type Point []float64

// SimplexID addresses one simplex (dim+1 vertices) of a Triangulation.
type SimplexID int

// Triangulation is an incremental simplex mesh in R^dim.
type Triangulation struct {
	dim int

	points   []Point
	pointIdx map[string]int

	simplices map[SimplexID][]int // vertex indices, sorted
	nextID    SimplexID

	vertexSimplices map[int]map[SimplexID]bool
}

// New builds a triangulation from the given points, which must contain
// at least dim+1 points not all in a common hyperplane. The seed
// simplex is chosen greedily: the earliest points that keep extending
// the affine span. Every other point is then inserted via AddPoint in
// the order given.
func New(dim int, pts []Point) (*Triangulation, error) {
	if dim < 1 {
		return nil, fmt.Errorf("geom: dim must be >= 1, got %d", dim)
	}
	if len(pts) < dim+1 {
		return nil, fmt.Errorf("geom: need at least %d points to seed a %d-d triangulation, got %d", dim+1, dim, len(pts))
	}

	t := &Triangulation{
		dim:             dim,
		pointIdx:        make(map[string]int),
		simplices:       make(map[SimplexID][]int),
		vertexSimplices: make(map[int]map[SimplexID]bool),
	}

	var seed []Point
	inSeed := make(map[int]bool)
	for i, p := range pts {
		if extendsAffineSpan(seed, p) {
			seed = append(seed, p)
			inSeed[i] = true
			if len(seed) == dim+1 {
				break
			}
		}
	}
	if len(seed) < dim+1 {
		return nil, fmt.Errorf("geom: the %d points span less than %d dimensions", len(pts), dim)
	}

	verts := make([]int, dim+1)
	for i, p := range seed {
		verts[i] = t.internPoint(p)
	}
	sort.Ints(verts)
	t.addSimplex(verts)

	for i, p := range pts {
		if inSeed[i] {
			continue
		}
		if _, dup := t.pointIdx[pointKey(p)]; dup {
			continue
		}
		if _, _, err := t.AddPoint(p); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// extendsAffineSpan reports whether candidate lies outside the affine
// span of the chosen points, using modified Gram-Schmidt with a
// relative residual threshold.
func extendsAffineSpan(chosen []Point, candidate Point) bool {
	if len(chosen) == 0 {
		return true
	}
	origin := chosen[0]
	basis := make([][]float64, 0, len(chosen)-1)
	for _, q := range chosen[1:] {
		basis = append(basis, sub(q, origin))
	}
	// Orthonormalize the existing edge vectors first.
	var ortho [][]float64
	for _, v := range basis {
		w := append([]float64(nil), v...)
		for _, u := range ortho {
			projectOut(w, u)
		}
		if n := norm(w); n > 0 {
			scaleVec(w, 1/n)
			ortho = append(ortho, w)
		}
	}
	w := sub(candidate, origin)
	full := norm(w)
	if full == 0 {
		return false
	}
	for _, u := range ortho {
		projectOut(w, u)
	}
	return norm(w) > 1e-10*full
}

func (t *Triangulation) internPoint(p Point) int {
	key := pointKey(p)
	if i, ok := t.pointIdx[key]; ok {
		return i
	}
	i := len(t.points)
	t.points = append(t.points, append(Point(nil), p...))
	t.pointIdx[key] = i
	return i
}

func pointKey(p Point) string {
	var b strings.Builder
	for i, v := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', 17, 64))
	}
	return b.String()
}

func (t *Triangulation) coords(verts []int) []Point {
	out := make([]Point, len(verts))
	for i, v := range verts {
		out[i] = t.points[v]
	}
	return out
}

func (t *Triangulation) addSimplex(verts []int) SimplexID {
	id := t.nextID
	t.nextID++
	t.simplices[id] = verts
	for _, v := range verts {
		set, ok := t.vertexSimplices[v]
		if !ok {
			set = make(map[SimplexID]bool)
			t.vertexSimplices[v] = set
		}
		set[id] = true
	}
	return id
}

func (t *Triangulation) removeSimplex(id SimplexID) {
	for _, v := range t.simplices[id] {
		delete(t.vertexSimplices[v], id)
	}
	delete(t.simplices, id)
}

func (t *Triangulation) sortedIDs() []SimplexID {
	out := make([]SimplexID, 0, len(t.simplices))
	for id := range t.simplices {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether id is a current simplex of the mesh.
func (t *Triangulation) Has(id SimplexID) bool {
	_, ok := t.simplices[id]
	return ok
}

// AddPoint inserts p into the mesh and returns the simplices it
// destroyed and the simplices it created. The cavity consists of every
// simplex whose circumsphere strictly contains p; when p falls outside
// the convex hull, the hull facets visible from p are wrapped as well.
// An optional hint names a simplex believed to contain p; a stale or
// wrong hint is ignored.
func (t *Triangulation) AddPoint(p Point, hint ...SimplexID) (toDelete, toAdd []SimplexID, err error) {
	if _, dup := t.pointIdx[pointKey(p)]; dup {
		return nil, nil, fmt.Errorf("geom: point %v is already a vertex", p)
	}

	ids := t.sortedIDs()
	badSet := make(map[SimplexID]bool)
	if len(hint) > 0 && t.Has(hint[0]) && inCircumsphere(t.coords(t.simplices[hint[0]]), p) {
		badSet[hint[0]] = true
	}
	for _, id := range ids {
		if badSet[id] {
			continue
		}
		if inCircumsphere(t.coords(t.simplices[id]), p) {
			badSet[id] = true
		}
	}

	// Collect every facet with its owners, keyed deterministically.
	type facetInfo struct {
		verts  []int
		owners []SimplexID
	}
	facets := make(map[string]*facetInfo)
	var facetKeys []string
	for _, id := range ids {
		for _, f := range facetsOf(t.simplices[id]) {
			key := facetKey(f)
			fi, ok := facets[key]
			if !ok {
				fi = &facetInfo{verts: f}
				facets[key] = fi
				facetKeys = append(facetKeys, key)
			}
			fi.owners = append(fi.owners, id)
		}
	}
	sort.Strings(facetKeys)

	// Decide which facets get joined to p: the boundary of the
	// star-shaped region formed by the cavity and, for an exterior p,
	// the wedge between the old hull and p.
	var joinable [][]int
	for _, key := range facetKeys {
		fi := facets[key]
		switch len(fi.owners) {
		case 2:
			b0, b1 := badSet[fi.owners[0]], badSet[fi.owners[1]]
			if b0 != b1 {
				joinable = append(joinable, fi.verts)
			}
		case 1:
			owner := fi.owners[0]
			beyond := t.beyondFacet(fi.verts, owner, p)
			if badSet[owner] != beyond {
				// A hull facet of a good simplex is wrapped only when p
				// is beyond it; a hull facet of a deleted simplex is
				// kept only when p is not.
				joinable = append(joinable, fi.verts)
			}
		}
	}

	var usable [][]int
	for _, f := range joinable {
		pts := append(append([]Point(nil), t.coords(f)...), p)
		if degenerate(pts) {
			continue
		}
		usable = append(usable, f)
	}
	if len(usable) == 0 {
		return nil, nil, fmt.Errorf("geom: point %v cannot be connected to the mesh (degenerate placement)", p)
	}

	vi := t.internPoint(p)
	for _, f := range usable {
		verts := append(append([]int(nil), f...), vi)
		sort.Ints(verts)
		toAdd = append(toAdd, t.addSimplex(verts))
	}

	for id := range badSet {
		toDelete = append(toDelete, id)
	}
	sort.Slice(toDelete, func(i, j int) bool { return toDelete[i] < toDelete[j] })
	for _, id := range toDelete {
		t.removeSimplex(id)
	}
	return toDelete, toAdd, nil
}

// beyondFacet reports whether p lies strictly on the opposite side of
// the facet's hyperplane from the owning simplex's remaining vertex.
func (t *Triangulation) beyondFacet(facet []int, owner SimplexID, p Point) bool {
	apex := -1
	for _, v := range t.simplices[owner] {
		inFacet := false
		for _, f := range facet {
			if f == v {
				inFacet = true
				break
			}
		}
		if !inFacet {
			apex = v
			break
		}
	}
	if apex < 0 {
		return false
	}
	fpts := t.coords(facet)
	sApex := orientation(fpts, t.points[apex])
	sP := orientation(fpts, p)
	return sApex*sP < 0
}

// orientation returns the signed volume factor of the point relative
// to the facet's hyperplane: positive on one side, negative on the
// other, zero on the plane.
func orientation(facet []Point, p Point) float64 {
	dim := len(p)
	M := la.MatAlloc(dim, dim)
	for i := 0; i < dim-1; i++ {
		for j := 0; j < dim; j++ {
			M[i][j] = facet[i+1][j] - facet[0][j]
		}
	}
	for j := 0; j < dim; j++ {
		M[dim-1][j] = p[j] - facet[0][j]
	}
	return determinant(M)
}

// degenerate reports whether the dim+1 points span (numerically) less
// than dim dimensions, with a threshold relative to the simplex size.
func degenerate(pts []Point) bool {
	vol := volumeOf(pts)
	scale := 0.0
	last := pts[len(pts)-1]
	for _, p := range pts[:len(pts)-1] {
		for j := range p {
			if d := abs(p[j] - last[j]); d > scale {
				scale = d
			}
		}
	}
	if scale == 0 {
		return true
	}
	ref := 1.0
	for range pts[:len(pts)-1] {
		ref *= scale
	}
	return vol <= 1e-12*ref
}

// LocatePoint returns the simplex containing p, if any.
func (t *Triangulation) LocatePoint(p Point) (SimplexID, bool) {
	for _, id := range t.sortedIDs() {
		if t.PointInSimplex(id, p) {
			return id, true
		}
	}
	return 0, false
}

// PointInSimplex reports whether p lies within simplex s (inclusive
// of its boundary), via barycentric coordinates.
func (t *Triangulation) PointInSimplex(s SimplexID, p Point) bool {
	verts, ok := t.simplices[s]
	if !ok {
		return false
	}
	bary, ok := barycentric(t.coords(verts), p)
	if !ok {
		return false
	}
	const eps = -1e-9
	for _, b := range bary {
		if b < eps {
			return false
		}
	}
	return true
}

// GetVertices returns the coordinates of s's dim+1 vertices.
func (t *Triangulation) GetVertices(s SimplexID) []Point {
	verts, ok := t.simplices[s]
	if !ok {
		return nil
	}
	return t.coords(verts)
}

// VertexToSimplices returns every simplex currently incident to p (p
// must be a vertex already in the mesh), in ascending ID order.
func (t *Triangulation) VertexToSimplices(p Point) []SimplexID {
	vi, ok := t.pointIdx[pointKey(p)]
	if !ok {
		return nil
	}
	out := make([]SimplexID, 0, len(t.vertexSimplices[vi]))
	for id := range t.vertexSimplices[vi] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Volume returns the (dim-dimensional) volume of simplex s.
func (t *Triangulation) Volume(s SimplexID) float64 {
	verts, ok := t.simplices[s]
	if !ok {
		return 0
	}
	return volumeOf(t.coords(verts))
}

// Volumes returns the volume of every current simplex.
func (t *Triangulation) Volumes() map[SimplexID]float64 {
	out := make(map[SimplexID]float64, len(t.simplices))
	for id, verts := range t.simplices {
		out[id] = volumeOf(t.coords(verts))
	}
	return out
}

// Simplices lists every current simplex ID in ascending order.
func (t *Triangulation) Simplices() []SimplexID {
	return t.sortedIDs()
}

// facetsOf returns, for a simplex's dim+1 vertices, each of the dim+1
// facets obtained by omitting one vertex.
func facetsOf(verts []int) [][]int {
	out := make([][]int, len(verts))
	for i := range verts {
		f := make([]int, 0, len(verts)-1)
		for j, v := range verts {
			if j != i {
				f = append(f, v)
			}
		}
		out[i] = f
	}
	return out
}

func facetKey(f []int) string {
	var b strings.Builder
	for i, v := range f {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// Volume computes the unsigned dim-volume of an arbitrary (dim+1)-
// vertex point set, independent of any Triangulation. tri.StdLoss and
// tri.UniformLoss use this to price a simplex's own vertices directly.
func Volume(points []Point) float64 { return volumeOf(points) }

// volumeOf computes the unsigned dim-volume of a (dim+1)-vertex
// simplex as |det(M)| / dim!, where M's rows are edge vectors from the
// last vertex.
func volumeOf(pts []Point) float64 {
	dim := len(pts) - 1
	if dim <= 0 {
		return 0
	}
	M := la.MatAlloc(dim, dim)
	last := pts[dim]
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			M[i][j] = pts[i][j] - last[j]
		}
	}
	det := determinant(M)
	if det < 0 {
		det = -det
	}
	fact := 1.0
	for k := 2; k <= dim; k++ {
		fact *= float64(k)
	}
	return det / fact
}

// determinant computes det(M) via Gaussian elimination with partial
// pivoting (first maximal pivot wins, so the result is deterministic).
func determinant(M [][]float64) float64 {
	n := len(M)
	A := la.MatAlloc(n, n)
	for i := range M {
		copy(A[i], M[i])
	}
	det := 1.0
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if abs(A[row][col]) > abs(A[pivot][col]) {
				pivot = row
			}
		}
		if A[pivot][col] == 0 {
			return 0
		}
		if pivot != col {
			A[pivot], A[col] = A[col], A[pivot]
			det = -det
		}
		det *= A[col][col]
		for row := col + 1; row < n; row++ {
			factor := A[row][col] / A[col][col]
			for k := col; k < n; k++ {
				A[row][k] -= factor * A[col][k]
			}
		}
	}
	return det
}

// solveLinear solves A*x = b via Gaussian elimination with partial
// pivoting on an augmented copy (A and b are left unchanged), returning
// ok=false for a singular system.
func solveLinear(A [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	M := la.MatAlloc(n, n+1)
	for i := 0; i < n; i++ {
		copy(M[i][:n], A[i])
		M[i][n] = b[i]
	}
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if abs(M[row][col]) > abs(M[pivot][col]) {
				pivot = row
			}
		}
		if M[pivot][col] == 0 {
			return nil, false
		}
		M[pivot], M[col] = M[col], M[pivot]
		for row := col + 1; row < n; row++ {
			factor := M[row][col] / M[col][col]
			for k := col; k <= n; k++ {
				M[row][k] -= factor * M[col][k]
			}
		}
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		v := M[i][n]
		for j := i + 1; j < n; j++ {
			v -= M[i][j] * x[j]
		}
		x[i] = v / M[i][i]
	}
	return x, true
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func sub(a, b Point) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func norm(v []float64) float64 {
	return la.VecNorm(v)
}

func projectOut(w, u []float64) {
	var dot float64
	for i := range w {
		dot += w[i] * u[i]
	}
	for i := range w {
		w[i] -= dot * u[i]
	}
}

func scaleVec(v []float64, s float64) {
	for i := range v {
		v[i] *= s
	}
}

// barycentric solves for p's barycentric coordinates relative to the
// simplex with vertices verts, returning ok=false if the simplex is
// degenerate.
func barycentric(verts []Point, p Point) ([]float64, bool) {
	dim := len(verts) - 1
	if dim <= 0 {
		return nil, false
	}
	A := la.MatAlloc(dim, dim)
	last := verts[dim]
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			A[j][i] = verts[i][j] - last[j]
		}
	}
	b := make([]float64, dim)
	for j := 0; j < dim; j++ {
		b[j] = p[j] - last[j]
	}
	x, ok := solveLinear(A, b)
	if !ok {
		return nil, false
	}
	lambda := make([]float64, dim+1)
	sum := 0.0
	for i := 0; i < dim; i++ {
		lambda[i] = x[i]
		sum += x[i]
	}
	lambda[dim] = 1 - sum
	return lambda, true
}

// inCircumsphere reports whether p lies strictly within the
// circumsphere of the simplex with vertices verts.
func inCircumsphere(verts []Point, p Point) bool {
	dim := len(verts) - 1
	if dim <= 0 {
		return false
	}
	c, r2, ok := circumcenter(verts)
	if !ok {
		return false
	}
	d2 := 0.0
	for j := 0; j < dim; j++ {
		dx := p[j] - c[j]
		d2 += dx * dx
	}
	const eps = 1e-9
	return d2 < r2*(1-eps)
}

// circumcenter solves, for vertices v0..v_dim, the linear system
// 2*(vi - v0)*c = |vi|^2 - |v0|^2 (i = 1..dim), giving the point
// equidistant from every vertex, and returns that distance squared.
func circumcenter(verts []Point) (Point, float64, bool) {
	dim := len(verts) - 1
	v0 := verts[0]
	A := la.MatAlloc(dim, dim)
	b := make([]float64, dim)
	sq0 := sqNorm(v0)
	for i := 0; i < dim; i++ {
		vi := verts[i+1]
		for j := 0; j < dim; j++ {
			A[i][j] = 2 * (vi[j] - v0[j])
		}
		b[i] = sqNorm(vi) - sq0
	}
	x, ok := solveLinear(A, b)
	if !ok {
		return nil, 0, false
	}
	c := Point(x)
	r2 := 0.0
	for j := 0; j < dim; j++ {
		dx := c[j] - v0[j]
		r2 += dx * dx
	}
	return c, r2, true
}

func sqNorm(p Point) float64 {
	var s float64
	for _, v := range p {
		s += v * v
	}
	return s
}
