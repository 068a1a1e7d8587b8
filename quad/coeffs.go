// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quad

import (
	"math"

	"github.com/cpmech/gosl/la"
)

// depth-indexed sample counts: N[d] abscissae at refinement level d.
// Nested Clenshaw-Curtis rule: 5, 9, 17, 33, each the odd-doubling of
// the previous (every other node of level d+1 is a node of level d).
var N = [4]int{5, 9, 17, 33}

const nMax = 33 // N[3]; every coefficient row is padded to this length.

// xi holds the Clenshaw-Curtis nodes on [-1, 1] for each depth:
// xi[d][i] = -cos(i*pi/(N[d]-1)), symmetrized so that
// xi[d][i] == -xi[d][n-1-i] holds exactly. Exact antisymmetry matters
// when an interval is split: the middle node of the parent must be
// bit-identical to the shared endpoint of both children.
var xi [4][]float64

// vInv[d] is the inverse of the Vandermonde-like matrix V[d] with
// V[d][i][j] = P~_j(xi[d][i]), where P~_j is the Legendre polynomial of
// degree j normalized to unit L2 norm on [-1, 1]. Given function values
// fx sampled at xi[d], vInv[d]*fx yields the N[d] coefficients of the
// interpolating polynomial in this orthonormal basis. The basis is
// orthonormal, so the definite integral over [-1, 1] is sqrt(2) times
// the leading coefficient.
var vInv [4][][]float64

// tLeft and tRight are fixed nMax x nMax matrices that re-express a
// parent interval's fit (padded to nMax terms) in the local frame of
// its left ([a, m]) or right ([m, b]) child after a split: the child's
// node k sits at parent-local coordinate (xi[3][k] -+ 1)/2.
var tLeft, tRight [][]float64

// vCond[d] bounds the condition number of the change of basis at depth
// d (||V||_inf * ||V^-1||_inf), used by the machine-precision
// termination test in completeProcess.
var vCond [4]float64

// alpha and gamma are the three-term-recurrence constants of the
// orthonormal Legendre basis,
//
//	x * P~_k = alpha[k] * P~_{k+1} + gamma[k] * P~_{k-1}
//
// with alpha[k] = sqrt((k+1)^2 / ((2k+1)(2k+3))) and
// gamma[k] = sqrt(k^2 / (4k^2 - 1)). downdate uses these to
// synthetically divide the node polynomial by (x - xi) one root at a
// time, the backward recurrence of Gonnet's cquad algorithm for
// dropping a non-finite sample from a polynomial fit.
var alpha, gamma [nMax + 2]float64

// bDef[d] holds the orthonormal-Legendre coefficients of the node
// polynomial prod_i (x - xi[d][i]) at depth d, the starting vector for
// the downdating recurrence. Length N[d]+1: dividing out one root
// shortens it by one.
var bDef [4][]float64

func init() {
	alpha[0] = 1 / math.Sqrt(3)
	for k := 1; k < len(alpha); k++ {
		fk := float64(k)
		alpha[k] = math.Sqrt((fk + 1) * (fk + 1) / ((2*fk + 1) * (2*fk + 3)))
		gamma[k] = math.Sqrt(fk * fk / (4*fk*fk - 1))
	}

	for d := 0; d < 4; d++ {
		n := N[d]
		xi[d] = make([]float64, n)
		for i := 0; i < n; i++ {
			xi[d][i] = -math.Cos(float64(i) * math.Pi / float64(n-1))
		}
		for i := 0; i < n/2; i++ {
			v := (xi[d][i] - xi[d][n-1-i]) / 2
			xi[d][i] = v
			xi[d][n-1-i] = -v
		}
		xi[d][n/2] = 0

		V := legendreVandermonde(xi[d], n)
		vInv[d] = matInvert(V)
		vCond[d] = matNormInf(V) * matNormInf(vInv[d])

		bDef[d] = nodePolyCoeffs(xi[d])
	}

	tLeft = buildShiftMatrix(-0.5)
	tRight = buildShiftMatrix(0.5)
}

// legendreEval fills out[j] = P~_j(x) for j < n, where P~_j is the
// degree-j Legendre polynomial scaled by sqrt(j + 1/2) so that the
// basis is orthonormal on [-1, 1].
func legendreEval(x float64, n int, out []float64) {
	pPrev, pCur := 1.0, x
	for j := 0; j < n; j++ {
		switch j {
		case 0:
			out[0] = math.Sqrt(0.5)
		case 1:
			out[1] = x * math.Sqrt(1.5)
		default:
			fj := float64(j)
			pPrev, pCur = pCur, ((2*fj-1)*x*pCur-(fj-1)*pPrev)/fj
			out[j] = pCur * math.Sqrt(fj+0.5)
		}
	}
}

// legendreVandermonde builds the n x n matrix V with
// V[i][j] = P~_j(pts[i]).
func legendreVandermonde(pts []float64, n int) [][]float64 {
	V := la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		legendreEval(pts[i], n, V[i])
	}
	return V
}

// nodePolyCoeffs expands prod_i (x - roots[i]) in the orthonormal
// Legendre basis by repeated multiplication with (x - r): the product
// with x maps coefficient k onto k+1 and k-1 via alpha and gamma.
func nodePolyCoeffs(roots []float64) []float64 {
	c := []float64{math.Sqrt2} // the constant 1
	for _, r := range roots {
		next := make([]float64, len(c)+1)
		for k, v := range c {
			next[k+1] += alpha[k] * v
			if k > 0 {
				next[k-1] += gamma[k] * v
			}
			next[k] -= r * v
		}
		c = next
	}
	return c
}

// buildShiftMatrix constructs vInv[3] * A, where A[k][j] is the basis
// polynomial P~_j evaluated at xi[3][k]/2 + shift, the parent-local
// position of the child's node k after a split. shift = -0.5 places
// the child on the parent's left half, shift = +0.5 on the right.
func buildShiftMatrix(shift float64) [][]float64 {
	A := la.MatAlloc(nMax, nMax)
	for k := 0; k < nMax; k++ {
		legendreEval(xi[3][k]/2+shift, nMax, A[k])
	}
	M := la.MatAlloc(nMax, nMax)
	for i := 0; i < nMax; i++ {
		for j := 0; j < nMax; j++ {
			var sum float64
			for k := 0; k < nMax; k++ {
				sum += vInv[3][i][k] * A[k][j]
			}
			M[i][j] = sum
		}
	}
	return M
}

// shiftMatrix returns tLeft if this child shares the parent's left
// endpoint, else tRight.
func shiftMatrix(childIsLeft bool) [][]float64 {
	if childIsLeft {
		return tLeft
	}
	return tRight
}

// matInvert inverts the square matrix m by Gauss-Jordan elimination
// with partial pivoting. The pivot choice is deterministic (first
// maximal magnitude wins), so repeated runs produce bit-identical
// tables. Panics on a singular input: the Vandermonde matrices built
// at package load are known to be invertible, so failure here is a
// programming error, not a runtime condition.
func matInvert(m [][]float64) [][]float64 {
	n := len(m)
	A := la.MatAlloc(n, 2*n)
	for i := 0; i < n; i++ {
		copy(A[i][:n], m[i])
		A[i][n+i] = 1
	}
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(A[row][col]) > math.Abs(A[pivot][col]) {
				pivot = row
			}
		}
		if A[pivot][col] == 0 {
			panic("quad: singular basis matrix")
		}
		A[pivot], A[col] = A[col], A[pivot]
		p := A[col][col]
		for k := col; k < 2*n; k++ {
			A[col][k] /= p
		}
		for row := 0; row < n; row++ {
			if row == col || A[row][col] == 0 {
				continue
			}
			f := A[row][col]
			for k := col; k < 2*n; k++ {
				A[row][k] -= f * A[col][k]
			}
		}
	}
	out := la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		copy(out[i], A[i][n:])
	}
	return out
}

// matNormInf returns the infinity norm (maximum absolute row sum).
func matNormInf(m [][]float64) float64 {
	var max float64
	for _, row := range m {
		var sum float64
		for _, v := range row {
			sum += math.Abs(v)
		}
		if sum > max {
			max = sum
		}
	}
	return max
}

// matVec multiplies the len(m) x len(v) matrix m by v, returning a
// fresh vector.
func matVec(m [][]float64, v []float64) []float64 {
	out := make([]float64, len(m))
	la.MatVecMul(out, 1, m, v)
	return out
}
