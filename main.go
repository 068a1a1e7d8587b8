// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command adaptive is a small demonstration driver for the quad and
// tri learners: it runs an ask/tell loop against a built-in test
// function and reports the result.
package main

import (
	"flag"
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"

	"github.com/andrenmelo/adaptive/quad"
	"github.com/andrenmelo/adaptive/tri"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			for i := 8; i > 3; i-- {
				chk.CallerInfo(i)
			}
			io.PfRed("ERROR: %v\n", err)
		}
	}()

	io.PfWhite("\nadaptive -- adaptive sampling for integration and triangulation\n\n")
	io.Pf("Copyright 2026 The Adaptive Authors. All rights reserved.\n")
	io.Pf("Use of this source code is governed by a BSD-style\n")
	io.Pf("license that can be found in the LICENSE file.\n\n")

	mode := flag.String("mode", "quad", "demo to run: \"quad\" or \"tri\"")
	tol := flag.Float64("tol", 1e-8, "absolute tolerance for the quad demo")
	batch := flag.Int("batch", 10, "points requested per ask() round")
	maxRounds := flag.Int("rounds", 10000, "round budget before giving up")
	flag.Parse()

	defer utl.DoProf(false)()

	switch *mode {
	case "quad":
		runQuadDemo(*tol, *batch, *maxRounds)
	case "tri":
		runTriDemo(*batch, *maxRounds)
	default:
		chk.Panic("unknown -mode %q; expected \"quad\" or \"tri\"\n", *mode)
	}
}

// runQuadDemo integrates sin(x) over [0, pi], whose exact value (2) is
// known, so the reported error is directly checkable.
func runQuadDemo(tol float64, batch, maxRounds int) {
	io.Pf("running the quad demo: integral of sin(x) on [0, pi]\n\n")

	l, err := quad.NewIntegratorLearner(0, math.Pi, &tol, nil)
	if err != nil {
		chk.Panic("%v\n", err)
	}

	for round := 0; round < maxRounds && !l.Done(); round++ {
		points, _, err := l.Ask(batch)
		if err != nil {
			chk.Panic("%v\n", err)
		}
		if len(points) == 0 {
			break
		}
		for _, x := range points {
			if err := l.Tell(x, math.Sin(x)); err != nil {
				chk.Panic("%v\n", err)
			}
		}
	}

	io.Pf("points sampled : %d\n", l.NrPoints())
	io.Pf("estimate       : %v\n", l.Igral())
	io.Pf("estimated error: %v\n", l.Err())
	io.Pf("exact value    : 2\n")
	io.Pf("actual error   : %v\n", math.Abs(l.Igral()-2))
}

// runTriDemo samples a saddle over the unit square for the whole round
// budget: the triangulator has no stopping rule of its own, and its Ask
// always returns the requested number of points.
func runTriDemo(batch, maxRounds int) {
	io.Pf("running the tri demo: z = x^2 - y^2 on [0,1] x [0,1]\n\n")

	bounds := [][2]float64{{0, 1}, {0, 1}}
	l, err := tri.NewTriangulatingLearner(bounds, nil)
	if err != nil {
		chk.Panic("%v\n", err)
	}

	for round := 0; round < maxRounds; round++ {
		points, _, err := l.Ask(batch)
		if err != nil {
			chk.Panic("%v\n", err)
		}
		if len(points) == 0 {
			break
		}
		for _, p := range points {
			v := p[0]*p[0] - p[1]*p[1]
			if err := l.Tell(p, tri.Value{v}); err != nil {
				chk.Panic("%v\n", err)
			}
		}
	}

	l.DumpMesh()
}
