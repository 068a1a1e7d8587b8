// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quad

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestNodesAreAntisymmetricAndNested(tst *testing.T) {
	chk.PrintTitle("sample nodes: antisymmetry and nesting across depths")

	for d := 0; d < 4; d++ {
		n := N[d]
		for i := 0; i < n; i++ {
			if xi[d][i] != -xi[d][n-1-i] {
				tst.Fatalf("depth %d: xi[%d]=%v is not the exact negation of xi[%d]=%v",
					d, i, xi[d][i], n-1-i, xi[d][n-1-i])
			}
		}
	}
	for d := 0; d < 3; d++ {
		for i := 0; i < N[d]; i++ {
			if xi[d+1][2*i] != xi[d][i] {
				tst.Fatalf("depth %d node %d is not bit-identical to depth %d node %d",
					d, i, d+1, 2*i)
			}
		}
	}
}

func TestConstantFitHasOnlyLeadingCoefficient(tst *testing.T) {
	chk.PrintTitle("fitting a constant puts everything in coefficient 0")

	for d := 0; d < 4; d++ {
		fx := make([]float64, N[d])
		for i := range fx {
			fx[i] = 2.0
		}
		c := calcCoeffs(fx, d)
		chk.Scalar(tst, "c[0]", 1e-12, c[0], 2*math.Sqrt2)
		for k := 1; k < N[d]; k++ {
			if math.Abs(c[k]) > 1e-10 {
				tst.Fatalf("depth %d: coefficient %d = %v should vanish for a constant", d, k, c[k])
			}
		}
	}
}

func TestLeadingCoefficientIntegratesExactly(tst *testing.T) {
	chk.PrintTitle("integral of the fit is sqrt(2) times coefficient 0")

	// f(x) = x^2 on [-1, 1] integrates to 2/3.
	fx := make([]float64, N[3])
	for i, x := range xi[3] {
		fx[i] = x * x
	}
	c := calcCoeffs(fx, 3)
	chk.Scalar(tst, "integral", 1e-12, c[0]*math.Sqrt2, 2.0/3.0)
}

func TestShiftMatricesMatchDirectChildFit(tst *testing.T) {
	chk.PrintTitle("shift matrices reproduce the direct fit on each half")

	// Fit f(x) = x^3 - x on the parent, shift to both halves, and
	// compare against fitting the halves directly.
	f := func(x float64) float64 { return x*x*x - x }
	fx := make([]float64, nMax)
	for i, x := range xi[3] {
		fx[i] = f(x)
	}
	parent := calcCoeffs(fx, 3)

	for _, side := range []struct {
		name  string
		T     [][]float64
		remap func(float64) float64
	}{
		{"left", tLeft, func(y float64) float64 { return (y - 1) / 2 }},
		{"right", tRight, func(y float64) float64 { return (y + 1) / 2 }},
	} {
		shifted := matVec(side.T, parent)
		direct := make([]float64, nMax)
		for i, y := range xi[3] {
			direct[i] = f(side.remap(y))
		}
		directC := calcCoeffs(direct, 3)
		for k := 0; k < nMax; k++ {
			if math.Abs(shifted[k]-directC[k]) > 1e-9 {
				tst.Fatalf("%s child coefficient %d: shifted %v != direct %v",
					side.name, k, shifted[k], directC[k])
			}
		}
	}
}

func TestDowndateRecoversConstantWithMissingSample(tst *testing.T) {
	chk.PrintTitle("downdating a non-finite sample keeps a constant fit constant")

	fx := make([]float64, N[0])
	for i := range fx {
		fx[i] = 1.0
	}
	fx[1] = math.Inf(1)

	c := calcCoeffs(fx, 0)
	chk.Scalar(tst, "c[0]", 1e-10, c[0], math.Sqrt2)
	for k := 1; k < N[0]; k++ {
		if math.Abs(c[k]) > 1e-9 {
			tst.Fatalf("coefficient %d = %v should vanish: the remaining samples are constant", k, c[k])
		}
	}
	if !math.IsInf(fx[1], 1) {
		tst.Fatalf("calcCoeffs must restore the original non-finite sample")
	}
}

func TestVandermondeInverseRoundTrip(tst *testing.T) {
	chk.PrintTitle("vInv inverts the basis evaluation")

	for d := 0; d < 4; d++ {
		n := N[d]
		// Evaluate the basis at the nodes, apply vInv, and expect the
		// identity column by column.
		V := legendreVandermonde(xi[d], n)
		for j := 0; j < n; j++ {
			col := make([]float64, n)
			for i := 0; i < n; i++ {
				col[i] = V[i][j]
			}
			e := matVec(vInv[d], col)
			for k := 0; k < n; k++ {
				want := 0.0
				if k == j {
					want = 1.0
				}
				if math.Abs(e[k]-want) > 1e-9 {
					tst.Fatalf("depth %d: (vInv*V)[%d][%d] = %v", d, k, j, e[k])
				}
			}
		}
	}
}
