// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prism

import "github.com/cfsengineering/pentagrow/meshio"

// mergeNodes collapses nodes within tol of each other into one, remapping
// every pentahedron and tet index accordingly. The only duplicates the
// arena produces are column tops coinciding with the tet mesher's own
// boundary nodes at the seam (see nodeArena's doc comment), so this is a
// single incremental pass rather than a full union-find: each node either
// joins an already-placed node's slot or opens a new one, and a repeat call
// over the deduplicated output finds nothing left to merge.
func mergeNodes(m *meshio.HybridMesh, tol float64) (*meshio.HybridMesh, int) {
	grid := newMergeGrid(tol)
	remap := make([]int, len(m.Nodes))
	var newNodes []meshio.Vec3
	merges := 0

	for i, p := range m.Nodes {
		if rep, ok := grid.find(p); ok {
			remap[i] = rep
			merges++
			continue
		}
		rep := len(newNodes)
		newNodes = append(newNodes, p)
		grid.insert(p)
		remap[i] = rep
	}

	out := &meshio.HybridMesh{Nodes: newNodes}
	out.Pentahedra = make([][6]int, len(m.Pentahedra))
	for i, pe := range m.Pentahedra {
		out.Pentahedra[i] = [6]int{remap[pe[0]], remap[pe[1]], remap[pe[2]], remap[pe[3]], remap[pe[4]], remap[pe[5]]}
	}
	out.Tets = make([][4]int, len(m.Tets))
	for i, t := range m.Tets {
		out.Tets[i] = [4]int{remap[t[0]], remap[t[1]], remap[t[2]], remap[t[3]]}
	}
	return out, merges
}

// mergeGrid is the same bucket-by-cell pattern used in reconcile's
// spatialIndex and envelope/constraints.go's pair search, reused here for
// consistency rather than a fourth ad hoc scheme; see DESIGN.md.
type mergeGrid struct {
	points map[[3]int][]int
	pos    []meshio.Vec3
	cell   float64
	tol    float64
}

func newMergeGrid(tol float64) *mergeGrid {
	cell := tol * 4
	if cell <= 0 {
		cell = 1
	}
	return &mergeGrid{points: make(map[[3]int][]int), cell: cell, tol: tol}
}

func (g *mergeGrid) key(p meshio.Vec3) [3]int {
	return [3]int{int(p[0] / g.cell), int(p[1] / g.cell), int(p[2] / g.cell)}
}

func (g *mergeGrid) insert(p meshio.Vec3) {
	k := g.key(p)
	g.points[k] = append(g.points[k], len(g.pos))
	g.pos = append(g.pos, p)
}

func (g *mergeGrid) find(p meshio.Vec3) (int, bool) {
	base := g.key(p)
	best := -1
	bestDist := g.tol
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				k := [3]int{base[0] + dx, base[1] + dy, base[2] + dz}
				for _, i := range g.points[k] {
					d := meshio.Norm(meshio.Sub(g.pos[i], p))
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
