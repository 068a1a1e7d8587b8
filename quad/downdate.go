// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quad

import "math"

// zeroNaNs replaces every non-finite entry of fx with 0 in place and
// returns the indices it touched, so the caller can later restore them
// and so downdate knows which roots to divide out of the fit.
func zeroNaNs(fx []float64) []int {
	var nans []int
	for i, v := range fx {
		if !isFinite(v) {
			nans = append(nans, i)
			fx[i] = 0
		}
	}
	return nans
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// downdate removes, one non-finite abscissa at a time, the influence
// that placeholder would otherwise have injected into c (which was
// computed by vInv[depth] with the placeholder zeroed). It runs the
// backward three-term-recurrence synthetic division described next to
// alpha/gamma in coeffs.go, the structure of Gonnet's cquad downdating
// algorithm: c[:m] -= c[m]/b[m] * b[:m]; c[m] = 0.
func downdate(c []float64, nans []int, depth int) {
	b := append([]float64(nil), bDef[depth]...)
	m := N[depth] - 1
	for _, i := range nans {
		b[m+1] /= alpha[m]
		xii := xi[depth][i]
		b[m] = (b[m] + xii*b[m+1]) / alpha[m-1]
		for j := m - 1; j > 0; j-- {
			b[j] = (b[j] + xii*b[j+1] - gamma[j+1]*b[j+2]) / alpha[j-1]
		}
		b = b[1:]

		ratio := c[m] / b[m]
		for k := 0; k < m; k++ {
			c[k] -= ratio * b[k]
		}
		c[m] = 0
		m--
	}
}

// calcCoeffs computes the orthonormal-Legendre coefficients of fx at
// the given depth, downdating away any non-finite samples. fx is
// restored to its original (possibly non-finite) values before
// returning so later completeness tests still see which samples
// failed.
func calcCoeffs(fx []float64, depth int) []float64 {
	orig := append([]float64(nil), fx...)
	nans := zeroNaNs(fx)
	cNew := matVec(vInv[depth], fx)
	if len(nans) > 0 {
		for _, i := range nans {
			fx[i] = orig[i]
		}
		downdate(cNew, nans, depth)
	}
	return cNew
}
