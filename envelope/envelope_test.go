// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envelope

import (
	"math"
	"testing"

	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/shell"
	"github.com/cpmech/gosl/chk"
)

func buildUnitCubeFields(tst *testing.T) (*graph.WallGraph, *shell.Fields) {
	wt := meshio.UnitCube()
	g, err := graph.Build(wt, 1e-6)
	if err != nil {
		tst.Fatalf("graph.Build failed: %v", err)
	}
	p := shell.DefaultParams()
	p.FirstLayerThickness = 0.05
	p.GrowthRatio = 1.2
	p.LayerCount = 3
	f := shell.Build(g, p)
	return g, f
}

func TestBuildBoundsBracketInitialGuess(tst *testing.T) {
	chk.PrintTitle("BuildBoundsBracketInitialGuess")

	g, f := buildUnitCubeFields(tst)
	p := DefaultParams()
	lo, hi := buildBounds(g, f, p)

	n := len(g.Wall.Nodes)
	for i := 0; i < n; i++ {
		off := meshio.Scale(f.Height[i], f.Direction[i])
		for k := 0; k < 3; k++ {
			v := off[k]
			l, h := lo[3*i+k], hi[3*i+k]
			if l > h {
				tst.Errorf("node %d axis %d: lo %v > hi %v", i, k, l, h)
			}
			// each nonzero initial-guess component must lie inside its box
			// (within 1e-6) on both sides.
			if math.Abs(v) > 0 && (l > v+1e-6 || h < v-1e-6) {
				tst.Errorf("node %d axis %d: bounds [%v,%v] exclude initial %v", i, k, l, h, v)
			}
		}
	}
}

func TestOptimizeWithStepperBackendStaysFeasible(tst *testing.T) {
	chk.PrintTitle("OptimizeWithStepperBackendStaysFeasible")

	g, f := buildUnitCubeFields(tst)
	p := DefaultParams()

	backend := NewStepperBackend(5, 1e-4)
	res, err := Optimize(g, f, p, backend)
	if err != nil {
		tst.Fatalf("Optimize failed: %v", err)
	}
	if len(res.Envelope) != len(g.Wall.Nodes) {
		tst.Fatalf("envelope has %d nodes, want %d", len(res.Envelope), len(g.Wall.Nodes))
	}
	for i, p := range res.Envelope {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsNaN(p[2]) {
			tst.Errorf("node %d: envelope position is NaN: %v", i, p)
		}
	}
}

func TestEdgeConstraintGradientMatchesFiniteDifference(tst *testing.T) {
	chk.PrintTitle("EdgeConstraintGradientMatchesFiniteDifference")

	g, f := buildUnitCubeFields(tst)
	n := len(g.Wall.Nodes)
	x0 := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		off := meshio.Scale(f.Height[i], f.Direction[i])
		putVec3(x0, i, off)
	}

	ec := newEdgeConstraints(g)
	fns := ec.Funcs(x0)
	if len(fns) == 0 {
		tst.Fatalf("expected at least one edge constraint")
	}

	x := make([]float64, len(x0))
	copy(x, x0)
	grad := make([]float64, len(x0))
	val := fns[0](x, grad)

	const eps = 1e-6
	for k := 0; k < len(x); k++ {
		if grad[k] == 0 {
			continue
		}
		xp := make([]float64, len(x))
		copy(xp, x)
		xp[k] += eps
		vp := fns[0](xp, nil)
		xp[k] = x[k] - eps
		vm := fns[0](xp, nil)
		fd := (vp - vm) / (2 * eps)
		if math.Abs(fd-grad[k]) > 1e-4*(1+math.Abs(fd)) {
			tst.Errorf("edge constraint grad[%d] = %v, finite-difference = %v (val=%v)", k, grad[k], fd, val)
		}
	}
}

func TestSymmetryPlaneNodesStayOnPlane(tst *testing.T) {
	chk.PrintTitle("SymmetryPlaneNodesStayOnPlane")

	wt := meshio.UnitCube()
	wt.Symmetric = true
	wt.YPlane = 0
	g, err := graph.Build(wt, 1e-6)
	if err != nil {
		tst.Fatalf("graph.Build failed: %v", err)
	}

	p := shell.DefaultParams()
	p.FirstLayerThickness = 0.05
	p.GrowthRatio = 1.2
	p.LayerCount = 3
	f := shell.Build(g, p)

	var symCount int
	for _, sym := range g.IsSymNode {
		if sym {
			symCount++
		}
	}
	if symCount == 0 {
		tst.Fatalf("expected at least one symmetry-plane node on this fixture")
	}

	lo, hi := buildBounds(g, f, DefaultParams())
	for i, sym := range g.IsSymNode {
		if !sym {
			continue
		}
		if lo[3*i+1] != 0 || hi[3*i+1] != 0 {
			tst.Errorf("node %d: y-axis bounds [%v,%v], want [0,0]", i, lo[3*i+1], hi[3*i+1])
		}
	}

	backend := NewStepperBackend(5, 1e-4)
	res, err := Optimize(g, f, DefaultParams(), backend)
	if err != nil {
		tst.Fatalf("Optimize failed: %v", err)
	}
	for i, sym := range g.IsSymNode {
		if sym && res.Envelope[i][1] != g.YPlane {
			tst.Errorf("node %d: envelope y = %v, want %v (symmetry plane)", i, res.Envelope[i][1], g.YPlane)
		}
	}
}

func TestPairConstraintsFindNoPairsOnSparseCube(tst *testing.T) {
	chk.PrintTitle("PairConstraintsFindNoPairsOnSparseCube")

	g, f := buildUnitCubeFields(tst)
	n := len(g.Wall.Nodes)
	x0 := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		off := meshio.Scale(f.Height[i], f.Direction[i])
		putVec3(x0, i, off)
	}

	pc := newPairConstraints(g, 0.1)
	fns := pc.Funcs(x0)
	// the unit cube's 12 triangles are all mutually adjacent or far apart
	// relative to their own size; a well-behaved search should not explode
	// into O(n^2) pairs.
	if len(fns) > len(g.Wall.Triangles) {
		tst.Errorf("got %d candidate pairs for %d triangles, expected a small set", len(fns), len(g.Wall.Triangles))
	}
}
