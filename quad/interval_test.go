// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quad

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestNewIntervalPoints(tst *testing.T) {
	chk.PrintTitle("interval point generation")

	iv := newInterval(-1, 1, 0)
	chk.IntAssert(len(iv.points()), N[0])
	chk.Scalar(tst, "a", 1e-15, iv.points()[0], -1)
	chk.Scalar(tst, "b", 1e-15, iv.points()[len(iv.points())-1], 1)
	chk.Scalar(tst, "midpoint", 1e-15, iv.points()[len(iv.points())/2], 0)
}

func TestIntervalIndexOf(tst *testing.T) {
	chk.PrintTitle("interval point lookup")

	iv := newInterval(0, 1, 1)
	for i, x := range iv.points() {
		chk.IntAssert(iv.indexOf(x), i)
	}
	if iv.indexOf(0.123456789) != -1 {
		tst.Fatalf("indexOf should miss a point this interval never sampled")
	}
}

func TestIntervalSetValueTracksCompletion(tst *testing.T) {
	chk.PrintTitle("interval completion bookkeeping")

	iv := newInterval(0, 1, 0)
	if iv.complete() {
		tst.Fatalf("a fresh interval must not be complete")
	}
	for _, x := range iv.points() {
		if !iv.setValue(x, 1.0) {
			tst.Fatalf("setValue rejected a point this interval owns")
		}
	}
	if !iv.complete() {
		tst.Fatalf("interval should be complete once every point has a value")
	}
}

func TestIntervalNaNValueCountsAsKnown(tst *testing.T) {
	chk.PrintTitle("a told NaN still completes the interval")

	iv := newInterval(0, 1, 0)
	for i, x := range iv.points() {
		v := 1.0
		if i == 2 {
			v = math.NaN()
		}
		if !iv.setValue(x, v) {
			tst.Fatalf("setValue rejected a point this interval owns")
		}
	}
	if !iv.complete() {
		tst.Fatalf("interval should be complete even when one sample is NaN")
	}
}

func TestZeroNaNsRestoresOriginal(tst *testing.T) {
	chk.PrintTitle("zeroNaNs / calcCoeffs downdating")

	fx := make([]float64, N[0])
	for i := range fx {
		fx[i] = 2.0
	}
	fx[1] = math.Inf(1)

	c := calcCoeffs(fx, 0)
	if math.IsNaN(c[0]) || math.IsInf(c[0], 0) {
		tst.Fatalf("calcCoeffs produced a non-finite coefficient: %v", c[0])
	}
	if !math.IsInf(fx[1], 1) {
		tst.Fatalf("calcCoeffs must restore the original non-finite sample")
	}
}

func TestArenaSplitHalvesTheInterval(tst *testing.T) {
	chk.PrintTitle("arena.split bisects at the interval's middle sample")

	var ar arena
	h, pts := ar.makeFirst(0, 1, 1e-6)
	_ = pts
	children, childPts := ar.split(h)

	left := ar.get(children[0])
	right := ar.get(children[1])
	chk.Scalar(tst, "left.a", 1e-15, left.a, 0)
	chk.Scalar(tst, "right.b", 1e-15, right.b, 1)
	chk.Scalar(tst, "left.b == right.a", 1e-15, left.b, right.a)
	chk.IntAssert(len(childPts[0]), N[0])
	chk.IntAssert(len(childPts[1]), N[0])
}

func TestArenaRefineSharesDomain(tst *testing.T) {
	chk.PrintTitle("arena.refine keeps the same [a, b], deepens the rule")

	var ar arena
	h, _ := ar.makeFirst(0, 1, 1e-6)
	parent := ar.get(h)
	parent.depth = 0 // pretend we are mid-refinement, not yet at the deepest rule
	child, pts := ar.refine(h)

	c := ar.get(child)
	chk.Scalar(tst, "a", 1e-15, c.a, parent.a)
	chk.Scalar(tst, "b", 1e-15, c.b, parent.b)
	chk.IntAssert(c.depth, parent.depth+1)
	chk.IntAssert(len(pts), N[c.depth])
}
