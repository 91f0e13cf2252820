// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shell

import (
	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
)

// nonInversionOK implements the NI(i,j) criterion of §4.2/§4.3: the quad
// (p_i, p_j, p_j+h_j*d_j, p_i+h_i*d_i) must stay convex and
// orientation-preserving. Convexity is tested by requiring consecutive edge
// cross products to agree in sign with a reference normal built from the
// two extrusion directions, the same signed-area idea the envelope
// optimizer's edge constraint (§4.3, constraint class 1) formalizes
// analytically.
func nonInversionOK(pi, pj, di, dj meshio.Vec3, hi, hj float64) bool {
	q0 := pi
	q1 := pj
	q2 := meshio.Add(pj, meshio.Scale(hj, dj))
	q3 := meshio.Add(pi, meshio.Scale(hi, di))

	ref := meshio.Normalize(meshio.Add(di, dj))

	quad := [4]meshio.Vec3{q0, q1, q2, q3}
	var sign float64
	for k := 0; k < 4; k++ {
		e0 := meshio.Sub(quad[(k+1)%4], quad[k])
		e1 := meshio.Sub(quad[(k+2)%4], quad[(k+1)%4])
		c := meshio.Dot(meshio.Cross(e0, e1), ref)
		if k == 0 {
			sign = c
			continue
		}
		if sign >= 0 && c < 0 {
			return false
		}
		if sign <= 0 && c > 0 {
			return false
		}
	}
	return true
}

// criticalPointSweep implements §4.2's critical-point sweep: for up to
// MaxCritIterations passes, every wall edge is checked with NI(i,j); when it
// fails, both endpoint heights are reduced multiplicatively until convexity
// is restored. Returns the node indices still infeasible after all passes.
func criticalPointSweep(g *graph.WallGraph, p Params, f *Fields) []int {
	const shrink = 0.9
	const minShrinkPasses = 40

	edges := wallEdges(g)

	for iter := 0; iter < p.MaxCritIterations; iter++ {
		anyFailed := false
		for _, e := range edges {
			i, j := e[0], e[1]
			pi, pj := g.Wall.Nodes[i], g.Wall.Nodes[j]
			for pass := 0; pass < minShrinkPasses; pass++ {
				if nonInversionOK(pi, pj, f.Direction[i], f.Direction[j], f.Height[i], f.Height[j]) {
					break
				}
				f.Height[i] *= shrink
				f.Height[j] *= shrink
				f.Height1[i] *= shrink
				f.Height1[j] *= shrink
				anyFailed = true
			}
		}
		if !anyFailed {
			break
		}
	}

	var infeasible []int
	for _, e := range edges {
		i, j := e[0], e[1]
		pi, pj := g.Wall.Nodes[i], g.Wall.Nodes[j]
		if !nonInversionOK(pi, pj, f.Direction[i], f.Direction[j], f.Height[i], f.Height[j]) {
			infeasible = append(infeasible, i, j)
		}
	}
	return dedupSorted(infeasible)
}

func wallEdges(g *graph.WallGraph) [][2]int {
	seen := make(map[[2]int]bool)
	var edges [][2]int
	for i, nbs := range g.Neighbors {
		for _, j := range nbs {
			a, b := i, j
			if a > b {
				a, b = b, a
			}
			k := [2]int{a, b}
			if !seen[k] {
				seen[k] = true
				edges = append(edges, k)
			}
		}
	}
	return edges
}

func dedupSorted(xs []int) []int {
	if len(xs) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(xs))
	var out []int
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}
