// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package reconcile implements the matching half of MeshReconciler (§4.5):
// it takes the tet mesh returned by the external mesher and figures out,
// for every wall node, which of the tet mesh's own nodes is "the same
// point" as that wall node's optimized envelope position. PrismAssembler
// (package prism) takes that correspondence and builds the actual
// pentahedra.
package reconcile

import (
	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/perr"
)

// TagRange distinguishes envelope boundary faces (tag < FarTagBase) in the
// tet mesh's BoundaryTags from far-field/nearfield faces, per §4.4's
// reserved tag range.
type TagRange struct {
	FarTagBase int
}

// Result is the wall-node-to-tet-node correspondence §4.5 describes:
// WallToTetNode[i] is the tet mesh node index identified with wall node i's
// envelope position (the column top), or -1 if no match was found (which
// is only ever returned alongside an error).
type Result struct {
	WallToTetNode []int
}

const defaultDriftTolerance = 1e-4

// Reconcile matches the nodes of every envelope boundary triangle in tetMesh
// (faces tagged below tags.FarTagBase) back to wall nodes by the envelope
// node positions, giving one tet-mesh node per wall node (exact first, then
// a bucketed nearest-point search within tol for mesher-moved nodes, per
// §4.5's BoundaryDrift fallback).
func Reconcile(tetMesh *meshio.TetMesh, g *graph.WallGraph, envelope []meshio.Vec3, tags TagRange, tol float64) (*Result, error) {
	if tol <= 0 {
		tol = defaultDriftTolerance
	}
	n := len(g.Wall.Nodes)
	wallToTet := make([]int, n)
	for i := range wallToTet {
		wallToTet[i] = -1
	}

	index := newSpatialIndex(envelope, tol)

	for f, tri := range tetMesh.BoundaryTris {
		if len(tetMesh.BoundaryTags) > f && tetMesh.BoundaryTags[f] >= tags.FarTagBase {
			continue // far-field or nearfield face, not an envelope face
		}
		for _, tetNode := range tri {
			p := tetMesh.Nodes[tetNode]
			wallNode, ok := index.find(p)
			if !ok {
				return nil, perr.New(perr.BoundaryDrift, "no wall node within %g of tet boundary node %v", tol, p)
			}
			if wallToTet[wallNode] == -1 {
				wallToTet[wallNode] = tetNode
			}
			// a wall node may be visited by several incident envelope
			// triangles; they must all agree on the same tet node since
			// the mesher is not expected to duplicate boundary nodes.
		}
	}

	for i, t := range wallToTet {
		if t == -1 {
			return nil, perr.New(perr.BoundaryDrift, "wall node %d has no matching tet-mesh boundary node", i)
		}
	}

	return &Result{WallToTetNode: wallToTet}, nil
}

// spatialIndex is a uniform grid over the envelope node positions, giving
// the nearest-point search an O(1) expected lookup instead of an O(n) scan
// per query — the same bucket-by-cell idea used in
// envelope/constraints.go's pair search.
type spatialIndex struct {
	points map[[3]int][]int
	pos    []meshio.Vec3
	cell   float64
	lo     meshio.Vec3
	tol    float64
}

func newSpatialIndex(pos []meshio.Vec3, tol float64) *spatialIndex {
	idx := &spatialIndex{points: make(map[[3]int][]int), pos: pos, cell: tol * 4, tol: tol}
	if idx.cell <= 0 {
		idx.cell = 1
	}
	if len(pos) > 0 {
		lo := pos[0]
		for _, p := range pos[1:] {
			for k := 0; k < 3; k++ {
				if p[k] < lo[k] {
					lo[k] = p[k]
				}
			}
		}
		idx.lo = lo
	}
	for i, p := range pos {
		k := idx.key(p)
		idx.points[k] = append(idx.points[k], i)
	}
	return idx
}

func (idx *spatialIndex) key(p meshio.Vec3) [3]int {
	return [3]int{
		int((p[0] - idx.lo[0]) / idx.cell),
		int((p[1] - idx.lo[1]) / idx.cell),
		int((p[2] - idx.lo[2]) / idx.cell),
	}
}

// find returns the index of the nearest envelope point to p within
// tolerance, exact matches resolved first.
func (idx *spatialIndex) find(p meshio.Vec3) (int, bool) {
	base := idx.key(p)
	best := -1
	bestDist := idx.tol
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				k := [3]int{base[0] + dx, base[1] + dy, base[2] + dz}
				for _, i := range idx.points[k] {
					d := meshio.Norm(meshio.Sub(idx.pos[i], p))
					if d <= bestDist {
						best = i
						bestDist = d
					}
				}
			}
		}
	}
	return best, best >= 0
}
