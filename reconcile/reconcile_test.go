// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reconcile

import (
	"testing"

	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cpmech/gosl/chk"
)

func cubeGraphAndEnvelope(tst *testing.T) (*graph.WallGraph, []meshio.Vec3) {
	wt := meshio.UnitCube()
	g, err := graph.Build(wt, 1e-6)
	if err != nil {
		tst.Fatalf("graph.Build failed: %v", err)
	}
	env := make([]meshio.Vec3, len(wt.Nodes))
	for i, n := range wt.Nodes {
		env[i] = meshio.Add(n, meshio.Scale(0.1, g.Normal[i]))
	}
	return g, env
}

// fakeTetMesh builds a minimal tet mesh whose boundary exactly reproduces
// the envelope triangles (tag 1, below any far-field tag), plus a single
// far-field-tagged face that must be ignored by the matcher.
func fakeTetMesh(g *graph.WallGraph, env []meshio.Vec3) *meshio.TetMesh {
	m := &meshio.TetMesh{Nodes: append([]meshio.Vec3{}, env...)}
	for _, tri := range g.Wall.Triangles {
		m.BoundaryTris = append(m.BoundaryTris, tri)
		m.BoundaryTags = append(m.BoundaryTags, 1)
	}
	// an extra far-field face referencing out-of-range coordinates, tagged
	// above FarTagBase so it must be skipped.
	m.Nodes = append(m.Nodes, meshio.Vec3{100, 100, 100})
	farIdx := len(m.Nodes) - 1
	m.BoundaryTris = append(m.BoundaryTris, [3]int{farIdx, farIdx, farIdx})
	m.BoundaryTags = append(m.BoundaryTags, 5000)
	return m
}

func TestReconcileExactMatch(tst *testing.T) {
	chk.PrintTitle("ReconcileExactMatch")

	g, env := cubeGraphAndEnvelope(tst)
	tm := fakeTetMesh(g, env)

	res, err := Reconcile(tm, g, env, TagRange{FarTagBase: 1000}, 1e-6)
	if err != nil {
		tst.Fatalf("Reconcile failed: %v", err)
	}
	if len(res.WallToTetNode) != len(g.Wall.Nodes) {
		tst.Fatalf("got %d correspondences, want %d", len(res.WallToTetNode), len(g.Wall.Nodes))
	}
	for i, tetNode := range res.WallToTetNode {
		if tetNode < 0 || tetNode >= len(tm.Nodes) {
			tst.Fatalf("wall node %d: invalid tet node index %d", i, tetNode)
		}
		got := tm.Nodes[tetNode]
		want := env[i]
		if meshio.Norm(meshio.Sub(got, want)) > 1e-9 {
			tst.Errorf("wall node %d: matched tet node at %v, want %v", i, got, want)
		}
	}
}

func TestReconcileRaisesBoundaryDriftOnMismatch(tst *testing.T) {
	chk.PrintTitle("ReconcileRaisesBoundaryDriftOnMismatch")

	g, env := cubeGraphAndEnvelope(tst)
	tm := fakeTetMesh(g, env)
	// displace one boundary node far beyond the matching tolerance.
	tm.Nodes[0] = meshio.Add(tm.Nodes[0], meshio.Vec3{10, 0, 0})

	_, err := Reconcile(tm, g, env, TagRange{FarTagBase: 1000}, 1e-6)
	if err == nil {
		tst.Fatalf("expected BoundaryDrift error for displaced node")
	}
}
