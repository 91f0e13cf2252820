// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prism

import (
	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/shell"
)

// columnSet holds the L+1 node positions of every wall node's prism column,
// q_0(i)..q_L(i), plus whether SplineNormals fell back to straight-line
// placement for that column.
type columnSet struct {
	positions [][]meshio.Vec3 // positions[i][k] = q_k(i)
	fracs     []float64       // fracs[k], k=0..L, monotone 0..1
	fellBack  []bool
	layers    int
}

// geometricFractions returns the k-th layer's fraction of the total stack
// height, (r^k-1)/(r^L-1) for r != 1 or k/L for r == 1, matching the growth
// progression q_k(i) = p(i) + (h1(i)*(r^k-1)/(r-1))*d(i) up to the overall
// scale h1(i)*(r^L-1)/(r-1) that cancels out of the fraction.
func geometricFractions(r float64, L int) []float64 {
	fracs := make([]float64, L+1)
	if r == 1 {
		for k := 0; k <= L; k++ {
			fracs[k] = float64(k) / float64(L)
		}
		return fracs
	}
	denom := pow(r, L) - 1
	for k := 0; k <= L; k++ {
		fracs[k] = (pow(r, k) - 1) / denom
	}
	return fracs
}

func pow(r float64, k int) float64 {
	v := 1.0
	for i := 0; i < k; i++ {
		v *= r
	}
	return v
}

// straightColumn places q_k(i) by linear interpolation between the wall
// point and the reconciled top point at the k-th geometric-progression
// fraction: this is the default column placement and the SplineNormals
// fallback target.
func straightColumn(wall, top meshio.Vec3, fracs []float64) []meshio.Vec3 {
	pos := make([]meshio.Vec3, len(fracs))
	for k, t := range fracs {
		pos[k] = meshio.Lerp(wall, top, t)
	}
	return pos
}

// splineColumn places q_k(i) on a cubic Hermite curve through the wall
// point and the reconciled top point, tangent to d(i) at both ends (scaled
// by the first- and last-layer thicknesses) instead of the straight
// geometric progression. It is the SplineNormals placement of SPEC_FULL.md
// §4.5, resolving spec.md's Open Question (i) on column curvature.
func splineColumn(wall, top meshio.Vec3, d meshio.Vec3, h1, r float64, L int, fracs []float64) []meshio.Vec3 {
	m0 := meshio.Scale(h1*float64(L), d) // tangent magnitude at the wall, per-layer scale
	hL := h1 * pow(r, L-1)               // last layer's thickness
	m1 := meshio.Scale(hL*float64(L), d) // tangent magnitude at the top
	pos := make([]meshio.Vec3, len(fracs))
	for k, t := range fracs {
		pos[k] = hermite(wall, top, m0, m1, t)
	}
	return pos
}

// hermite evaluates the standard cubic Hermite basis at parameter t in
// [0,1] between p0 and p1 with tangents m0, m1.
func hermite(p0, p1, m0, m1 meshio.Vec3, t float64) meshio.Vec3 {
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	out := meshio.Add(meshio.Scale(h00, p0), meshio.Scale(h01, p1))
	out = meshio.Add(out, meshio.Scale(h10, m0))
	out = meshio.Add(out, meshio.Scale(h11, m1))
	return out
}

// buildColumns constructs every wall node's column, straight by default or
// spline when p.SplineNormals is set (subject to later per-column repair in
// Assemble if a spline column produces a tangled pentahedron).
func buildColumns(g *graph.WallGraph, f *shell.Fields, sp shell.Params, top []meshio.Vec3, p Params) *columnSet {
	n := len(g.Wall.Nodes)
	L := sp.LayerCount
	fracs := geometricFractions(sp.GrowthRatio, L)

	cols := &columnSet{
		positions: make([][]meshio.Vec3, n),
		fracs:     fracs,
		fellBack:  make([]bool, n),
		layers:    L,
	}
	for i := 0; i < n; i++ {
		if p.SplineNormals {
			cols.positions[i] = splineColumn(g.Wall.Nodes[i], top[i], f.Direction[i], f.Height1[i], sp.GrowthRatio, L, fracs)
		} else {
			cols.positions[i] = straightColumn(g.Wall.Nodes[i], top[i], fracs)
		}
	}
	return cols
}
