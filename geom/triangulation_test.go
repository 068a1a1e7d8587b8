// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestNewSeedsOneSimplex(tst *testing.T) {
	chk.PrintTitle("seed a single 2-d simplex")

	tr, err := New(2, []Point{{0, 0}, {1, 0}, {0, 1}})
	if err != nil {
		chk.Panic("New failed: %v", err)
	}
	chk.IntAssert(len(tr.Simplices()), 1)
	chk.Scalar(tst, "volume", 1e-15, tr.Volume(tr.Simplices()[0]), 0.5)
}

func TestNewRejectsCoplanarPoints(tst *testing.T) {
	chk.PrintTitle("coplanar seed points are rejected")

	if _, err := New(2, []Point{{0, 0}, {1, 0}, {2, 0}}); err == nil {
		tst.Fatalf("expected an error seeding a degenerate triangle")
	}
}

func TestNewSkipsCoplanarPrefix(tst *testing.T) {
	chk.PrintTitle("the seed simplex skips collinear early points")

	tr, err := New(2, []Point{{0, 0}, {1, 0}, {2, 0}, {1, 1}})
	if err != nil {
		chk.Panic("New failed: %v", err)
	}
	// Seed is (0,0), (1,0), (1,1); the remaining collinear point lies
	// outside and is attached by hull extension.
	total := 0.0
	for _, v := range tr.Volumes() {
		total += v
	}
	chk.Scalar(tst, "total area", 1e-12, total, 1.0)
}

func TestHullExtensionCoversTheSquare(tst *testing.T) {
	chk.PrintTitle("adding the fourth corner extends the hull")

	tr, err := New(2, []Point{{0, 0}, {1, 0}, {0, 1}})
	if err != nil {
		chk.Panic("New failed: %v", err)
	}
	toDelete, toAdd, err := tr.AddPoint(Point{1, 1})
	if err != nil {
		chk.Panic("AddPoint failed: %v", err)
	}
	chk.IntAssert(len(toDelete), 0)
	chk.IntAssert(len(toAdd), 1)

	total := 0.0
	for _, v := range tr.Volumes() {
		total += v
	}
	chk.Scalar(tst, "square area", 1e-12, total, 1.0)
}

func TestInteriorInsertPreservesVolume(tst *testing.T) {
	chk.PrintTitle("inserting an interior point retriangulates without losing area")

	tr, err := New(2, []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}})
	if err != nil {
		chk.Panic("New failed: %v", err)
	}
	toDelete, toAdd, err := tr.AddPoint(Point{0.5, 0.5})
	if err != nil {
		chk.Panic("AddPoint failed: %v", err)
	}
	if len(toDelete) == 0 || len(toAdd) == 0 {
		tst.Fatalf("an interior insert must both delete and create simplices")
	}

	total := 0.0
	for _, v := range tr.Volumes() {
		total += v
	}
	chk.Scalar(tst, "square area", 1e-12, total, 1.0)

	id, ok := tr.LocatePoint(Point{0.9, 0.55})
	if !ok {
		tst.Fatalf("a point inside the square should be locatable")
	}
	if !tr.PointInSimplex(id, Point{0.9, 0.55}) {
		tst.Fatalf("LocatePoint returned a simplex that does not contain the point")
	}
}

func TestAddPointRejectsDuplicateVertex(tst *testing.T) {
	chk.PrintTitle("re-inserting an existing vertex fails")

	tr, err := New(2, []Point{{0, 0}, {1, 0}, {0, 1}})
	if err != nil {
		chk.Panic("New failed: %v", err)
	}
	if _, _, err := tr.AddPoint(Point{1, 0}); err == nil {
		tst.Fatalf("expected an error re-adding a vertex")
	}
}

func TestPointInSimplexBarycentricBounds(tst *testing.T) {
	chk.PrintTitle("PointInSimplex via barycentric coordinates")

	tr, err := New(2, []Point{{0, 0}, {1, 0}, {0, 1}})
	if err != nil {
		chk.Panic("New failed: %v", err)
	}
	s := tr.Simplices()[0]
	if !tr.PointInSimplex(s, Point{0.25, 0.25}) {
		tst.Fatalf("centroid-ish point should be inside the seed triangle")
	}
	if tr.PointInSimplex(s, Point{2, 2}) {
		tst.Fatalf("far point should not be inside the seed triangle")
	}
}

func TestVertexToSimplices(tst *testing.T) {
	chk.PrintTitle("VertexToSimplices reports incident simplices")

	tr, err := New(2, []Point{{0, 0}, {1, 0}, {0, 1}})
	if err != nil {
		chk.Panic("New failed: %v", err)
	}
	incident := tr.VertexToSimplices(Point{0, 0})
	chk.IntAssert(len(incident), 1)
}

func TestThreeDimensionalInsert(tst *testing.T) {
	chk.PrintTitle("a 3-d mesh accepts interior points")

	tr, err := New(3, []Point{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	if err != nil {
		chk.Panic("New failed: %v", err)
	}
	chk.IntAssert(len(tr.Simplices()), 1)

	toDelete, toAdd, err := tr.AddPoint(Point{0.2, 0.2, 0.2})
	if err != nil {
		chk.Panic("AddPoint failed: %v", err)
	}
	chk.IntAssert(len(toDelete), 1)
	chk.IntAssert(len(toAdd), 4)

	total := 0.0
	for _, v := range tr.Volumes() {
		total += v
	}
	chk.Scalar(tst, "tetrahedron volume", 1e-12, total, 1.0/6.0)
}
