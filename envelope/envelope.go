// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package envelope implements EnvelopeOptimizer (§4.3): a bound- and
// inequality-constrained nonlinear program over the per-wall-node envelope
// offsets, refining the heights (and optionally directions) produced by
// package shell so the resulting envelope is non-inverted and
// self-intersection free.
package envelope

import (
	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/perr"
	"github.com/cfsengineering/pentagrow/shell"
)

// Params configures the NLP solver (§6: OptimizerAlgorithm,
// OptimizerMaxIter, OptimizerTol) and the bound construction.
type Params struct {
	Algorithm string // "mma" (default) or "slsqp"
	MaxIter   int
	Tol       float64

	MinHeightFactor float64 // lower bound: h(i) >= MinHeightFactor * h_initial(i)
	MaxHeightFactor float64 // upper bound: h(i) <= MaxHeightFactor * h_initial(i)

	// PairSearchMargin enlarges each envelope triangle's search radius (its
	// longest edge) by this fraction in the self-intersection candidate
	// search of constraints.go, so near-miss triangle pairs are not missed
	// (§4.3 constraint class 2). The grid cell size does not depend on it.
	PairSearchMargin float64
}

// DefaultParams returns the optimizer defaults.
func DefaultParams() Params {
	return Params{
		Algorithm:        "mma",
		MaxIter:          200,
		Tol:              1e-6,
		MinHeightFactor:  0.3,
		MaxHeightFactor:  1.5,
		PairSearchMargin: 0.1,
	}
}

// Result is the optimizer's output: the refined envelope positions p̂(i),
// and the §7 recoverable diagnostics (OptimizerFailed).
type Result struct {
	Envelope []meshio.Vec3
	Status   string
	Failed   bool
}

// Backend is the OptimizerBackend capability interface of SPEC_FULL.md §9: a
// thin seam so tests can substitute a simple deterministic stepper without
// linking the NLopt cgo backend.
type Backend interface {
	SetBounds(lo, hi []float64) error
	SetObjective(f func(x, grad []float64) float64) error
	AddInequalityConstraint(g func(x, grad []float64) float64, tol float64) error
	Minimize(x0 []float64) (xopt []float64, status string, err error)
}

// Optimize runs the full §4.3 pipeline over wall nodes g with extrusion
// fields f, using backend as the NLP solver. backend is normally
// NewNLoptBackend's result in production and a fallback stepper in tests
// that don't need real convergence.
func Optimize(g *graph.WallGraph, f *shell.Fields, p Params, backend Backend) (*Result, error) {
	n := len(g.Wall.Nodes)
	dim := 3 * n

	x0 := make([]float64, dim)
	for i := 0; i < n; i++ {
		off := meshio.Scale(f.Height[i], f.Direction[i])
		putVec3(x0, i, off)
	}

	lo, hi := buildBounds(g, f, p)

	if err := backend.SetBounds(lo, hi); err != nil {
		return nil, perr.Wrap(perr.InputFormat, err, "cannot set optimizer bounds")
	}

	obj := newObjective(g)
	if err := backend.SetObjective(obj.Eval); err != nil {
		return nil, perr.Wrap(perr.InputFormat, err, "cannot set optimizer objective")
	}

	edgeCons := newEdgeConstraints(g)
	for _, c := range edgeCons.Funcs(x0) {
		if err := backend.AddInequalityConstraint(c, 1e-8); err != nil {
			return nil, perr.Wrap(perr.InputFormat, err, "cannot add edge constraint")
		}
	}

	pairCons := newPairConstraints(g, p.PairSearchMargin)
	for _, c := range pairCons.Funcs(x0) {
		if err := backend.AddInequalityConstraint(c, 1e-8); err != nil {
			return nil, perr.Wrap(perr.InputFormat, err, "cannot add pair constraint")
		}
	}

	xopt, status, err := backend.Minimize(x0)
	failed := err != nil
	if failed {
		xopt = x0 // keep last feasible iterate, per §4.3/§7
	}

	env := make([]meshio.Vec3, n)
	for i := 0; i < n; i++ {
		off := getVec3(xopt, i)
		env[i] = meshio.Add(g.Wall.Nodes[i], off)
	}

	if g.Symmetric {
		for i, sym := range g.IsSymNode {
			if sym {
				env[i][1] = g.YPlane
			}
		}
	}

	return &Result{Envelope: env, Status: status, Failed: failed}, nil
}

func putVec3(x []float64, i int, v meshio.Vec3) {
	x[3*i], x[3*i+1], x[3*i+2] = v[0], v[1], v[2]
}

func getVec3(x []float64, i int) meshio.Vec3 {
	return meshio.Vec3{x[3*i], x[3*i+1], x[3*i+2]}
}

// buildBounds constructs the per-node box constraints of §4.3: the offset
// x(i) must keep ||x(i)|| within [MinHeightFactor, MaxHeightFactor] of the
// initial guess along d(i), projected onto Cartesian axes via the local
// frame {d(i), t1(i), t2(i)}.
func buildBounds(g *graph.WallGraph, f *shell.Fields, p Params) (lo, hi []float64) {
	n := len(g.Wall.Nodes)
	lo = make([]float64, 3*n)
	hi = make([]float64, 3*n)
	for i := 0; i < n; i++ {
		d := f.Direction[i]
		h := f.Height[i]
		t1, t2 := tangentFrame(d)

		// local-frame half extents: tight along d (between Min and Max
		// factor of h), loose along the tangent directions (bounded by a
		// fraction of h so the optimizer cannot walk a node arbitrarily
		// far sideways).
		dMin, dMax := p.MinHeightFactor*h, p.MaxHeightFactor*h
		tExtent := 0.5 * h

		for k := 0; k < 3; k++ {
			// project the local-frame box onto Cartesian axis k: the
			// tightest axis-aligned box containing the (possibly
			// rotated) local box, i.e. sum of |component| * half-extent.
			extent := absf(d[k])*(dMax-dMin)/2 + absf(t1[k])*tExtent + absf(t2[k])*tExtent
			center := absf(d[k]) * (dMax + dMin) / 2 * sign(d[k])
			lo[3*i+k] = center - extent
			hi[3*i+k] = center + extent
		}

		// a symmetry-plane node's wall position already sits at y=YPlane
		// (graph.Build's tolerance check); pin its y-offset to zero so the
		// NLP cannot walk it off the plane (testable property 7).
		if g.Symmetric && g.IsSymNode[i] {
			lo[3*i+1] = 0
			hi[3*i+1] = 0
		}
	}
	return
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// tangentFrame returns two unit vectors spanning the plane orthogonal to d.
func tangentFrame(d meshio.Vec3) (t1, t2 meshio.Vec3) {
	ref := meshio.Vec3{1, 0, 0}
	if absf(d[0]) > 0.9 {
		ref = meshio.Vec3{0, 1, 0}
	}
	t1 = meshio.Normalize(meshio.Cross(d, ref))
	t2 = meshio.Normalize(meshio.Cross(d, t1))
	return
}
