// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"math"
	"testing"

	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cpmech/gosl/chk"
)

func TestBuildUnitCube(tst *testing.T) {
	chk.PrintTitle("BuildUnitCube")

	wt := meshio.UnitCube()
	g, err := Build(wt, 1e-6)
	if err != nil {
		tst.Fatalf("Build failed: %v", err)
	}

	if !g.IsClosedManifold() {
		tst.Fatalf("unit cube should be a closed manifold")
	}

	for i, n := range g.Normal {
		if math.Abs(meshio.Norm(n)-1) > 1e-9 {
			tst.Errorf("node %d: normal not unit length: %v", i, n)
		}
	}

	// corner 0 is shared by the -z, -y and -x faces; its area-weighted
	// normal should point into the (-1,-1,-1) octant.
	n0 := g.Normal[0]
	for k := 0; k < 3; k++ {
		if n0[k] >= 0 {
			tst.Errorf("corner 0 normal component %d should be negative, got %v", k, n0)
		}
	}

	lo, hi := g.EnvelopeBounds()
	chk.Vector(tst, "lo", 1e-12, lo[:], []float64{0, 0, 0})
	chk.Vector(tst, "hi", 1e-12, hi[:], []float64{1, 1, 1})
}

func TestIsClosedManifoldDetectsOpenMesh(tst *testing.T) {
	chk.PrintTitle("IsClosedManifoldDetectsOpenMesh")

	wt := meshio.UnitCube()
	wt.Triangles = wt.Triangles[:len(wt.Triangles)-1] // drop one triangle: now open

	g, err := Build(wt, 1e-6)
	if err != nil {
		tst.Fatalf("Build failed: %v", err)
	}
	if g.IsClosedManifold() {
		tst.Errorf("expected non-manifold mesh to fail the closed test")
	}
	if err := g.RequireClosed(); err == nil {
		tst.Errorf("expected RequireClosed to fail")
	}
}

func TestEllipsoidEncloses(tst *testing.T) {
	chk.PrintTitle("EllipsoidEncloses")

	wt := meshio.UnitCube()
	g, _ := Build(wt, 1e-6)

	ctr := meshio.Vec3{0.5, 0.5, 0.5}
	if !g.EllipsoidEncloses(ctr, meshio.Vec3{10, 10, 10}) {
		tst.Errorf("a huge ellipsoid should enclose the unit cube")
	}
	if g.EllipsoidEncloses(ctr, meshio.Vec3{0.1, 0.1, 0.1}) {
		tst.Errorf("a tiny ellipsoid should not enclose the unit cube")
	}
}

func TestSymmetryNodesClassified(tst *testing.T) {
	chk.PrintTitle("SymmetryNodesClassified")

	wt := meshio.UnitCube()
	wt.Symmetric = true
	wt.YPlane = 0
	g, err := Build(wt, 1e-6)
	if err != nil {
		tst.Fatalf("Build failed: %v", err)
	}

	for i, n := range wt.Nodes {
		want := math.Abs(n[1]-0) < 1e-6
		if g.IsSymNode[i] != want {
			tst.Errorf("node %d (y=%v): IsSymNode=%v, want %v", i, n[1], g.IsSymNode[i], want)
		}
		if g.IsSymNode[i] && math.Abs(g.Normal[i][1]) > 1e-12 {
			tst.Errorf("node %d: symmetry-node normal has nonzero y component: %v", i, g.Normal[i])
		}
	}
}
