// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tri

import (
	"math"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"

	"github.com/andrenmelo/adaptive/geom"
)

// Value is one sample's output: length 1 for a scalar function, longer
// for a vector-valued one.
type Value []float64

// LossPerSimplex prices how under-resolved one simplex is, given its
// vertices and the values sampled there. Larger means the simplex is
// sampled sooner.
type LossPerSimplex interface {
	Loss(vertices []geom.Point, values []Value) float64
	GetPrms(example bool) fun.Prms
}

// lossAllocators registers the loss functions this package ships so
// they can be selected by name from configuration.
var lossAllocators = map[string]func() LossPerSimplex{}

func init() {
	lossAllocators["std"] = func() LossPerSimplex { return StdLoss{} }
	lossAllocators["uniform"] = func() LossPerSimplex { return UniformLoss{} }
}

// NewLossPerSimplex looks up a registered loss by name ("std" or
// "uniform"), returning an error for an unrecognised one.
func NewLossPerSimplex(name string) (LossPerSimplex, error) {
	alloc, ok := lossAllocators[strings.ToLower(name)]
	if !ok {
		return nil, chk.Err("tri: loss function named %q is not registered\n", name)
	}
	return alloc(), nil
}

// StdLoss is the default loss: the spread of the sampled values,
// scaled by the simplex's size, plus the simplex's own volume so that
// a perfectly flat region still gets occasionally refined.
//
//	loss(simplex, values) = ||std(values, axis=0)||_2 * volume^(1/dim) + volume
type StdLoss struct{}

func (StdLoss) Loss(vertices []geom.Point, values []Value) float64 {
	dim := len(vertices) - 1
	if dim <= 0 {
		return 0
	}
	vol := geom.Volume(vertices)
	sigma := stdAxis0(values)
	return vecNorm(sigma)*math.Pow(vol, 1/float64(dim)) + vol
}

func (StdLoss) GetPrms(example bool) fun.Prms { return fun.Prms{} }

// UniformLoss prices every simplex by its volume alone, spreading
// samples evenly regardless of the function's behaviour.
type UniformLoss struct{}

func (UniformLoss) Loss(vertices []geom.Point, values []Value) float64 {
	return geom.Volume(vertices)
}

func (UniformLoss) GetPrms(example bool) fun.Prms { return fun.Prms{} }

// stdAxis0 returns, for each output component, the population standard
// deviation of that component across values.
func stdAxis0(values []Value) []float64 {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil
	}
	width := len(values[0])
	mean := make([]float64, width)
	for _, v := range values {
		for k := 0; k < width; k++ {
			mean[k] += v[k]
		}
	}
	n := float64(len(values))
	for k := range mean {
		mean[k] /= n
	}

	variance := make([]float64, width)
	for _, v := range values {
		for k := 0; k < width; k++ {
			d := v[k] - mean[k]
			variance[k] += d * d
		}
	}
	out := make([]float64, width)
	for k := range variance {
		out[k] = math.Sqrt(variance[k] / n)
	}
	return out
}

func vecNorm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
