// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tri

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

var unitSquare = [][2]float64{{0, 1}, {0, 1}}

func TestCornersFirst(tst *testing.T) {
	chk.PrintTitle("the four corners of a square are asked before anything else")

	l, err := NewTriangulatingLearner(unitSquare, nil)
	if err != nil {
		chk.Panic("NewTriangulatingLearner failed: %v", err)
	}

	points, improvements, err := l.Ask(4)
	if err != nil {
		tst.Fatalf("Ask: %v", err)
	}
	chk.IntAssert(len(points), 4)

	seen := make(map[string]bool)
	for i, p := range points {
		chk.IntAssert(len(p), 2)
		if !math.IsInf(improvements[i], 1) {
			tst.Fatalf("corner %d should carry +Inf improvement, got %g", i, improvements[i])
		}
		seen[key(p)] = true
	}
	for _, c := range l.boundsPoints {
		if !seen[key(c)] {
			tst.Fatalf("corner %v was never asked", c)
		}
	}
}

func TestBisectsLongestEdgeAfterCorners(tst *testing.T) {
	chk.PrintTitle("the next point after a hot interior sample is a fresh edge midpoint")

	l, err := NewTriangulatingLearner(unitSquare, nil)
	if err != nil {
		chk.Panic("NewTriangulatingLearner failed: %v", err)
	}

	corners, _, err := l.Ask(4)
	if err != nil {
		tst.Fatalf("Ask: %v", err)
	}
	for _, c := range corners {
		if err := l.Tell(c, Value{0}); err != nil {
			chk.Panic("Tell(corner) failed: %v", err)
		}
	}
	if err := l.Tell(Point{0.5, 0.5}, Value{1}); err != nil {
		chk.Panic("Tell(interior) failed: %v", err)
	}
	if l.tr == nil {
		tst.Fatalf("expected a triangulation to have been built from 5 points")
	}

	next, _, err := l.Ask(1)
	if err != nil {
		tst.Fatalf("Ask: %v", err)
	}
	chk.IntAssert(len(next), 1)
	p := next[0]

	known := make(map[string]bool)
	for _, c := range corners {
		known[key(c)] = true
	}
	known[key(Point{0.5, 0.5})] = true
	if known[key(p)] {
		tst.Fatalf("new point %v coincides with an existing vertex", p)
	}

	for _, v := range p {
		if v < 0 || v > 1 {
			tst.Fatalf("new point %v falls outside the unit square", p)
		}
	}

	// Each of the four simplices around the centre has a side of the
	// square as its longest edge, so the new point bisects one side.
	sideMids := map[string]bool{
		key(Point{0.5, 0}): true, key(Point{1, 0.5}): true,
		key(Point{0.5, 1}): true, key(Point{0, 0.5}): true,
	}
	if !sideMids[key(p)] {
		tst.Fatalf("new point %v is not the midpoint of a longest edge", p)
	}
}

func TestAskIsDeterministic(tst *testing.T) {
	chk.PrintTitle("two learners fed the same trace ask for the same points")

	build := func() *TriangulatingLearner {
		l, err := NewTriangulatingLearner(unitSquare, nil)
		if err != nil {
			chk.Panic("NewTriangulatingLearner failed: %v", err)
		}
		return l
	}
	f := func(p Point) Value { return Value{p[0] * p[1]} }

	l1, l2 := build(), build()
	for round := 0; round < 10; round++ {
		p1, _, _ := l1.Ask(3)
		p2, _, _ := l2.Ask(3)
		for i := range p1 {
			if key(p1[i]) != key(p2[i]) {
				tst.Fatalf("round %d point %d differs: %v vs %v", round, i, p1[i], p2[i])
			}
			if err := l1.Tell(p1[i], f(p1[i])); err != nil {
				tst.Fatalf("Tell: %v", err)
			}
			if err := l2.Tell(p2[i], f(p2[i])); err != nil {
				tst.Fatalf("Tell: %v", err)
			}
		}
	}
}

func TestPendingPointsFormSubTriangulations(tst *testing.T) {
	chk.PrintTitle("asked-but-untold points bind to a real simplex")

	l, err := NewTriangulatingLearner(unitSquare, nil)
	if err != nil {
		chk.Panic("NewTriangulatingLearner failed: %v", err)
	}
	corners, _, _ := l.Ask(4)
	for _, c := range corners {
		if err := l.Tell(c, Value{0}); err != nil {
			chk.Panic("Tell failed: %v", err)
		}
	}
	if l.tr == nil {
		tst.Fatalf("expected a triangulation after 4 corners were told")
	}

	// Dispense several points without telling any of them.
	points, _, _ := l.Ask(3)
	chk.IntAssert(len(points), 3)
	if len(l.subtri) == 0 {
		tst.Fatalf("pending points should have created at least one sub-triangulation")
	}
	for _, p := range points {
		if !l.pending[key(p)] {
			tst.Fatalf("point %v was dispensed but is not marked pending", p)
		}
	}

	l.RemoveUnfinished()
	if len(l.subtri) != 0 || len(l.pendingToSimplex) != 0 {
		tst.Fatalf("RemoveUnfinished should clear all pending state")
	}
}

func TestTellIgnoresKnownPoint(tst *testing.T) {
	chk.PrintTitle("telling the same point twice is a no-op")

	l, err := NewTriangulatingLearner(unitSquare, nil)
	if err != nil {
		chk.Panic("NewTriangulatingLearner failed: %v", err)
	}
	corners, _, _ := l.Ask(4)
	for _, c := range corners {
		if err := l.Tell(c, Value{1}); err != nil {
			chk.Panic("Tell failed: %v", err)
		}
	}
	if err := l.Tell(corners[0], Value{999}); err != nil {
		tst.Fatalf("re-telling a known point should be ignored, got %v", err)
	}
	_, values := l.PointsAndValues()
	for _, v := range values {
		chk.Scalar(tst, "value unchanged", 1e-15, v[0], 1)
	}
}

func TestStdLossPositiveForConstantValues(tst *testing.T) {
	chk.PrintTitle("a flat simplex still carries its volume as loss")

	l, err := NewTriangulatingLearner(unitSquare, StdLoss{})
	if err != nil {
		chk.Panic("NewTriangulatingLearner failed: %v", err)
	}
	corners, _, _ := l.Ask(4)
	for _, c := range corners {
		if err := l.Tell(c, Value{3}); err != nil {
			chk.Panic("Tell failed: %v", err)
		}
	}
	if l.tr == nil {
		tst.Fatalf("expected a triangulation after 4 corners were told")
	}
	loss := l.Loss(true)
	if math.IsInf(loss, 1) || loss <= 0 {
		tst.Fatalf("expected a small finite positive loss, got %g", loss)
	}
}

func TestUniformLossIgnoresValues(tst *testing.T) {
	chk.PrintTitle("uniform loss depends only on simplex volume")

	vertices := []Point{{0, 0}, {1, 0}, {0, 1}}
	values := []Value{{0}, {100}, {-50}}
	u := UniformLoss{}
	chk.Scalar(tst, "uniform loss", 1e-12, u.Loss(vertices, values), 0.5)
}

func TestLossIsInfiniteBeforeTriangulation(tst *testing.T) {
	chk.PrintTitle("Loss is +Inf before enough points are told")

	l, err := NewTriangulatingLearner(unitSquare, nil)
	if err != nil {
		chk.Panic("NewTriangulatingLearner failed: %v", err)
	}
	if !math.IsInf(l.Loss(true), 1) {
		tst.Fatalf("expected +Inf loss with no triangulation yet")
	}
}

func TestRejectsLowDimension(tst *testing.T) {
	chk.PrintTitle("a 1-d bounds box is rejected")

	if _, err := NewTriangulatingLearner([][2]float64{{0, 1}}, nil); err == nil {
		tst.Fatalf("expected an error for dim < 2")
	}
}

func TestBoundsAreDone(tst *testing.T) {
	chk.PrintTitle("BoundsAreDone tracks whether every corner has been told")

	l, err := NewTriangulatingLearner(unitSquare, nil)
	if err != nil {
		chk.Panic("NewTriangulatingLearner failed: %v", err)
	}
	if l.BoundsAreDone() {
		tst.Fatalf("no corners told yet")
	}
	corners, _, _ := l.Ask(4)
	for _, c := range corners {
		if err := l.Tell(c, Value{0}); err != nil {
			chk.Panic("Tell failed: %v", err)
		}
	}
	if !l.BoundsAreDone() {
		tst.Fatalf("all four corners were told")
	}
}

func TestNewLossPerSimplexLooksUpByName(tst *testing.T) {
	chk.PrintTitle("NewLossPerSimplex resolves registered loss functions")

	if _, err := NewLossPerSimplex("std"); err != nil {
		chk.Panic("expected std loss to be registered: %v", err)
	}
	if _, err := NewLossPerSimplex("UNIFORM"); err != nil {
		chk.Panic("expected case-insensitive lookup to find uniform: %v", err)
	}
	if _, err := NewLossPerSimplex("nonexistent"); err == nil {
		tst.Fatalf("expected an error for an unregistered loss name")
	}
}
