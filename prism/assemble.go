// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prism

import (
	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
)

// nodeArena lays out the merged node array for the hybrid mesh: the tet
// mesher's own nodes first (so its Tets need no remapping beyond a zero
// offset), followed by every column's L+1 nodes flattened in wall-node
// order. The column top (k==L) duplicates a tet-mesh boundary node by
// construction (Assemble set it to the exact reconciled position); mergeNodes
// collapses that seam afterwards rather than this arena trying to avoid it,
// since avoiding it here would mean threading wallToTet through every
// pentahedron index instead of a single uniform cleanup pass.
type nodeArena struct {
	nodes   []meshio.Vec3
	layers  int
	colBase int
}

func newNodeArena(tetMesh *meshio.TetMesh, cols *columnSet) *nodeArena {
	a := &nodeArena{layers: cols.layers, colBase: len(tetMesh.Nodes)}
	a.nodes = make([]meshio.Vec3, 0, len(tetMesh.Nodes)+len(cols.positions)*(cols.layers+1))
	a.nodes = append(a.nodes, tetMesh.Nodes...)
	for _, col := range cols.positions {
		a.nodes = append(a.nodes, col...)
	}
	return a
}

func (a *nodeArena) index(wallNode, layer int) int {
	return a.colBase + wallNode*(a.layers+1) + layer
}

// assemblePentahedra builds the L pentahedra per wall triangle of §3's
// column model: pentahedron k of triangle (a,b,c) is
// (q_k(a),q_k(b),q_k(c),q_{k+1}(a),q_{k+1}(b),q_{k+1}(c)). It returns, in
// parallel, the three wall-node indices each pentahedron was built from
// (used to target spline-column repair) and the indices of any pentahedron
// whose volume came out non-positive.
func assemblePentahedra(g *graph.WallGraph, cols *columnSet, arena *nodeArena) (pentahedra [][6]int, columnsOf [][3]int, tangled []int) {
	L := cols.layers
	pentahedra = make([][6]int, 0, len(g.Wall.Triangles)*L)
	columnsOf = make([][3]int, 0, len(g.Wall.Triangles)*L)

	for _, tri := range g.Wall.Triangles {
		a, b, c := tri[0], tri[1], tri[2]
		for k := 0; k < L; k++ {
			penta := [6]int{
				arena.index(a, k), arena.index(b, k), arena.index(c, k),
				arena.index(a, k+1), arena.index(b, k+1), arena.index(c, k+1),
			}
			idx := len(pentahedra)
			pentahedra = append(pentahedra, penta)
			columnsOf = append(columnsOf, [3]int{a, b, c})
			if pentahedronVolume(arena.nodes, penta) <= 0 {
				tangled = append(tangled, idx)
			}
		}
	}
	return pentahedra, columnsOf, tangled
}

// pentahedronVolume decomposes the wedge (b0,b1,b2,t0,t1,t2) into three
// tets sharing diagonal b2-t0, a standard prism-to-tet split, and sums their
// signed volumes.
func pentahedronVolume(nodes []meshio.Vec3, p [6]int) float64 {
	b0, b1, b2 := nodes[p[0]], nodes[p[1]], nodes[p[2]]
	t0, t1, t2 := nodes[p[3]], nodes[p[4]], nodes[p[5]]
	return tetVolume(b0, b1, b2, t0) + tetVolume(b1, b2, t0, t1) + tetVolume(b2, t0, t1, t2)
}

func tetVolume(a, b, c, d meshio.Vec3) float64 {
	return meshio.Dot(meshio.Sub(b, a), meshio.Cross(meshio.Sub(c, a), meshio.Sub(d, a))) / 6.0
}
