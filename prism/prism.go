// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package prism implements PrismAssembler (§4.5/§3): given a wall graph, its
// per-node stack heights and directions, and the reconciled tet-mesh
// correspondence for each column's top node, it builds the pentahedral
// prism layer and merges it with the tet mesher's interior fill into one
// HybridMesh.
package prism

import (
	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/perr"
	"github.com/cfsengineering/pentagrow/shell"
)

// Params controls column placement and post-assembly cleanup.
type Params struct {
	// SplineNormals selects a cubic Hermite column through the wall point
	// and its matched top point, tangent to the column direction d(i) at
	// both ends, instead of the default straight-line geometric
	// progression. Any column whose pentahedra come out tangled falls back
	// to the straight line for that column only (SPEC_FULL.md §4.5).
	SplineNormals bool

	// MergeTolerance is the distance below which two node positions are
	// considered the same point by mergeNodes. Zero selects a fixed
	// default of 1e-6.
	MergeTolerance float64
}

// DefaultParams returns the straight-line placement with a modest merge
// tolerance.
func DefaultParams() Params {
	return Params{SplineNormals: false, MergeTolerance: 1e-6}
}

// Assemble builds the prism layer over g using shell.Fields f and
// shell.Params sp (for the growth ratio and layer count), identifies each
// column's top node with tetMesh via wallToTet (reconcile.Result.WallToTetNode),
// and returns the merged hybrid mesh. Tangled pentahedra are counted, never
// fatal, onto diag.TangledElements; SplineNormals fallbacks are recorded on
// diag.SplineFallbackColumns.
func Assemble(g *graph.WallGraph, f *shell.Fields, sp shell.Params, tetMesh *meshio.TetMesh, wallToTet []int, p Params, diag *perr.Diagnostics) (*meshio.HybridMesh, error) {
	n := len(g.Wall.Nodes)
	if len(wallToTet) != n {
		return nil, perr.New(perr.InvalidPLC, "wallToTet has %d entries, want %d", len(wallToTet), n)
	}

	top := make([]meshio.Vec3, n)
	for i := range top {
		if wallToTet[i] < 0 || wallToTet[i] >= len(tetMesh.Nodes) {
			return nil, perr.New(perr.BoundaryDrift, "wall node %d has no reconciled tet node", i)
		}
		top[i] = tetMesh.Nodes[wallToTet[i]]
	}

	cols := buildColumns(g, f, sp, top, p)

	arena := newNodeArena(tetMesh, cols)
	pentahedra, columnsOf, tangled := assemblePentahedra(g, cols, arena)

	// Per-column spline repair: any column touching a tangled pentahedron
	// is rebuilt straight and the whole layer is redone. A single repair
	// pass, not an iteration to convergence: in practice a column needs at
	// most the one fallback to untangle its own straight-line geometry.
	if p.SplineNormals && len(tangled) > 0 {
		repair := make(map[int]bool)
		for _, pi := range tangled {
			for _, i := range columnsOf[pi] {
				repair[i] = true
			}
		}
		if len(repair) > 0 {
			for i := range repair {
				cols.positions[i] = straightColumn(g.Wall.Nodes[i], top[i], cols.fracs)
				cols.fellBack[i] = true
			}
			arena = newNodeArena(tetMesh, cols)
			pentahedra, _, _ = assemblePentahedra(g, cols, arena)
		}
	}

	for i, fb := range cols.fellBack {
		if fb {
			diag.SplineFallbackColumns = append(diag.SplineFallbackColumns, i)
		}
	}

	merged := &meshio.HybridMesh{
		Nodes:      arena.nodes,
		Pentahedra: pentahedra,
		Tets:       tetMesh.Tets, // the arena places tet-mesher nodes first, at offset 0
	}

	tol := p.MergeTolerance
	if tol <= 0 {
		tol = 1e-6
	}
	merged, _ = mergeNodes(merged, tol)

	diag.TangledElements += countNegativeVolumes(merged)

	return merged, nil
}
