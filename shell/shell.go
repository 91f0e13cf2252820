// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package shell implements HeightField and ShellBuilder (§4.2): the
// per-node extrusion direction d(i) and stack height h(i), Laplacian
// smoothed over the wall graph while constrained to stay close to the wall
// normal and to keep adjacent extrusion rays from inverting.
package shell

import (
	"math"

	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/internal/parallelfor"
	"github.com/cfsengineering/pentagrow/meshio"
)

// Params configures HeightField/ShellBuilder iteration counts and stack
// geometry (§6 config keys HeightIterations, NormalIterations,
// MaxCritIterations, LaplaceIterations, plus the growth-law parameters).
type Params struct {
	NormalIterations  int
	HeightIterations  int
	MaxCritIterations int
	LaplaceIterations int

	ThetaMax float64 // max angle (radians) direction may deviate from n(i)

	FirstLayerThickness float64 // user target h1, absolute
	GrowthRatio         float64 // r > 1
	LayerCount          int     // L

	CurvatureScale float64 // cCurv
	ConcavityScale float64 // cConc

	MinHeightFactor float64 // h_min(i) = MinHeightFactor * h(i); not read by Build, and envelope bounds use envelope.Params.MinHeightFactor
}

// DefaultParams returns conservative defaults matching the original tool's
// command-line defaults (§6: HeightIterations=5, NormalIterations=50,
// MaxCritIterations=99, LaplaceIterations=5).
func DefaultParams() Params {
	return Params{
		NormalIterations:    50,
		HeightIterations:    5,
		MaxCritIterations:   99,
		LaplaceIterations:   5,
		ThetaMax:            60 * math.Pi / 180,
		FirstLayerThickness: 0.001,
		GrowthRatio:         1.25,
		LayerCount:          10,
		MinHeightFactor:     0.2,
	}
}

// Fields holds the per-node direction and height fields produced by Build:
// §3's d(i), h1(i), and h(i) = h1(i)*(r^L-1)/(r-1).
type Fields struct {
	Direction []meshio.Vec3
	Height1   []float64
	Height    []float64

	// Infeasible lists node indices where the critical-point sweep could
	// not restore non-inversion after MaxCritIterations passes; recorded
	// per §4.2's failure mode, repair is left to EnvelopeOptimizer.
	Infeasible []int
}

// stackHeight returns h(i) = h1 * (r^L - 1)/(r-1) for r != 1, or h1*L for
// r == 1 (uniform layers).
func stackHeight(h1, r float64, L int) float64 {
	if math.Abs(r-1) < 1e-12 {
		return h1 * float64(L)
	}
	return h1 * (math.Pow(r, float64(L)) - 1) / (r - 1)
}

// Build runs the full §4.2 pipeline: direction smoothing, height
// initialization and smoothing, the critical-point sweep, and the final
// combined Laplacian pass.
func Build(g *graph.WallGraph, p Params) *Fields {
	n := len(g.Wall.Nodes)
	f := &Fields{
		Direction: make([]meshio.Vec3, n),
		Height1:   make([]float64, n),
		Height:    make([]float64, n),
	}

	copy(f.Direction, g.Normal)
	initHeight1(g, p, f)

	smoothDirections(g, p, f)
	smoothHeight1(g, p, f)

	f.Infeasible = criticalPointSweep(g, p, f)

	laplaceFinalPass(g, p, f)

	for i := 0; i < n; i++ {
		f.Height[i] = stackHeight(f.Height1[i], p.GrowthRatio, p.LayerCount)
	}

	return f
}

// initHeight1 seeds h1(i) from the user target scaled by local curvature
// and concavity (SPEC_FULL.md §4.2).
func initHeight1(g *graph.WallGraph, p Params, f *Fields) {
	n := len(g.Wall.Nodes)
	parallelfor.Range(n, parallelfor.DefaultChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			scale := 1.0
			if p.CurvatureScale != 0 {
				scale *= 1 + p.CurvatureScale*g.Curvature[i]
			}
			if p.ConcavityScale != 0 && g.Concavity[i] > 0 {
				scale *= 1 + p.ConcavityScale*g.Concavity[i]
			}
			f.Height1[i] = p.FirstLayerThickness * scale
		}
	})
}

// smoothDirections implements the direction update of §4.2: repeated
// Laplacian averaging over neighbors, each pass reprojected so that
// d(i)·n(i) >= cos(ThetaMax), and symmetry-plane directions re-flattened
// into the symmetry plane at the end.
func smoothDirections(g *graph.WallGraph, p Params, f *Fields) {
	n := len(g.Wall.Nodes)
	cosMax := math.Cos(p.ThetaMax)
	next := make([]meshio.Vec3, n)

	for iter := 0; iter < p.NormalIterations; iter++ {
		parallelfor.Range(n, parallelfor.DefaultChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				nbs := g.Neighbors[i]
				if len(nbs) == 0 {
					next[i] = f.Direction[i]
					continue
				}
				var mean meshio.Vec3
				for _, j := range nbs {
					mean = meshio.Add(mean, f.Direction[j])
				}
				mean = meshio.Normalize(mean)
				next[i] = projectToCone(mean, g.Normal[i], cosMax)
			}
		})
		f.Direction, next = next, f.Direction
	}

	if g.Symmetric {
		for i, sym := range g.IsSymNode {
			if sym {
				d := f.Direction[i]
				d[1] = 0
				f.Direction[i] = meshio.Normalize(d)
			}
		}
	}
}

// projectToCone returns d reprojected so that d·axis >= cosMax, preserving
// direction as much as possible (a slerp-like blend toward axis).
func projectToCone(d, axis meshio.Vec3, cosMax float64) meshio.Vec3 {
	d = meshio.Normalize(d)
	c := meshio.Dot(d, axis)
	if c >= cosMax {
		return d
	}
	// blend toward axis until the cone constraint is satisfied.
	lo, hi := 0.0, 1.0
	for iter := 0; iter < 20; iter++ {
		mid := 0.5 * (lo + hi)
		cand := meshio.Normalize(meshio.Add(meshio.Scale(1-mid, d), meshio.Scale(mid, axis)))
		if meshio.Dot(cand, axis) >= cosMax {
			hi = mid
		} else {
			lo = mid
		}
	}
	return meshio.Normalize(meshio.Add(meshio.Scale(1-hi, d), meshio.Scale(hi, axis)))
}

// smoothHeight1 implements the height update of §4.2: h1 Laplacian-smoothed
// over N(i) for HeightIterations passes.
func smoothHeight1(g *graph.WallGraph, p Params, f *Fields) {
	n := len(g.Wall.Nodes)
	next := make([]float64, n)
	for iter := 0; iter < p.HeightIterations; iter++ {
		parallelfor.Range(n, parallelfor.DefaultChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				nbs := g.Neighbors[i]
				if len(nbs) == 0 {
					next[i] = f.Height1[i]
					continue
				}
				sum := 0.0
				for _, j := range nbs {
					sum += f.Height1[j]
				}
				next[i] = 0.5*f.Height1[i] + 0.5*sum/float64(len(nbs))
			}
		})
		f.Height1, next = next, f.Height1
	}
}

// laplaceFinalPass runs LaplaceIterations combined passes over direction and
// height1, followed by renormalization, per §4.2's "Laplacian final pass".
func laplaceFinalPass(g *graph.WallGraph, p Params, f *Fields) {
	for iter := 0; iter < p.LaplaceIterations; iter++ {
		smoothDirections(g, Params{NormalIterations: 1, ThetaMax: p.ThetaMax}, f)
		smoothHeight1(g, Params{HeightIterations: 1}, f)
	}
	n := len(g.Wall.Nodes)
	for i := 0; i < n; i++ {
		f.Direction[i] = meshio.Normalize(f.Direction[i])
	}
}
