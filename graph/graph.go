// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package graph implements WallGraph (§4.1): node adjacency, per-node
// normals and edge-length scalars derived from a wall triangulation, plus
// the cheap geometric queries (closed-manifold test, bounds, ellipsoid
// enclosure) the rest of the core relies on.
package graph

import (
	"math"
	"sort"

	"github.com/cfsengineering/pentagrow/internal/parallelfor"
	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/perr"
)

// WallGraph is the connectivity and per-node geometric data derived from a
// WallMesh (§3's WG). Triangles reference the wall mesh by integer index,
// never by pointer, so a new WallGraph is always rebuilt from scratch
// rather than patched in place (§9 design note on cyclic references).
type WallGraph struct {
	Wall *meshio.WallMesh

	Neighbors [][]int   // N(i): neighboring node indices, unordered
	NodeTris  [][]int   // T(i): triangles incident to node i
	Normal    []meshio.Vec3
	EdgeLen   []float64 // ℓ(i): mean incident edge length

	// Symmetry bookkeeping (§4.1)
	Symmetric   bool
	YPlane      float64
	SymmetryTol float64
	IsSymNode   []bool

	// Curvature proxy κ(i) and concavity indicator γ(i) (SPEC_FULL §4.1).
	Curvature []float64
	Concavity []float64
}

// Build constructs a WallGraph from wt. symTol is the tolerance used to
// classify a node as lying exactly on the symmetry plane; SPEC_FULL.md's
// resolution of the corresponding Open Question treats a node within symTol
// but not exactly on the plane as an error, never silently accepted.
func Build(wt *meshio.WallMesh, symTol float64) (*WallGraph, error) {
	g := &WallGraph{
		Wall:        wt,
		Symmetric:   wt.Symmetric,
		YPlane:      wt.YPlane,
		SymmetryTol: symTol,
	}

	n := len(wt.Nodes)
	g.Neighbors = make([][]int, n)
	g.NodeTris = make([][]int, n)
	g.Normal = make([]meshio.Vec3, n)
	g.EdgeLen = make([]float64, n)
	g.IsSymNode = make([]bool, n)

	neighborSet := make([]map[int]bool, n)
	for i := range neighborSet {
		neighborSet[i] = make(map[int]bool)
	}

	for t, tri := range wt.Triangles {
		for v := 0; v < 3; v++ {
			a, b := tri[v], tri[(v+1)%3]
			neighborSet[a][b] = true
			neighborSet[b][a] = true
			g.NodeTris[a] = append(g.NodeTris[a], t)
		}
	}
	for i, set := range neighborSet {
		for j := range set {
			g.Neighbors[i] = append(g.Neighbors[i], j)
		}
		sort.Ints(g.Neighbors[i])
	}

	// area-weighted normal accumulation: since several triangles touch the
	// same node, accumulation cannot be split across goroutines without
	// races, so it runs as a single serial pass over triangles; the
	// per-node normalization below is the one that parallelizes (§5).
	accum := make([]meshio.Vec3, n)
	for t := range wt.Triangles {
		tn, _ := wt.TriangleNormal(t)
		tri := wt.Triangles[t]
		for _, v := range tri {
			accum[v] = meshio.Add(accum[v], tn)
		}
	}

	parallelfor.Range(n, parallelfor.DefaultChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			g.Normal[i] = meshio.Normalize(accum[i])

			sum, cnt := 0.0, 0
			for _, j := range g.Neighbors[i] {
				sum += meshio.Norm(meshio.Sub(wt.Nodes[j], wt.Nodes[i]))
				cnt++
			}
			if cnt > 0 {
				g.EdgeLen[i] = sum / float64(cnt)
			}

			if wt.Symmetric {
				dy := wt.Nodes[i][1] - wt.YPlane
				if math.Abs(dy) < symTol {
					g.IsSymNode[i] = true
					g.Normal[i][1] = 0
					g.Normal[i] = meshio.Normalize(g.Normal[i])
				}
			}
		}
	})

	if wt.Symmetric {
		for i, sym := range g.IsSymNode {
			if sym && wt.Nodes[i][1] != wt.YPlane {
				return nil, perr.New(perr.NotClosed, "wall node %d lies within %g of the symmetry plane y=%g but not on it", i, symTol, wt.YPlane)
			}
		}
	}

	g.computeCurvatureAndConcavity()

	return g, nil
}

// computeCurvatureAndConcavity fills Curvature (κ) and Concavity (γ) per
// SPEC_FULL.md §4.1: κ(i) is the mean angular deviation of neighbor normals
// from n(i); γ(i) is positive where the neighbor centroid lies on the
// inward side of the tangent plane (a local dent).
func (g *WallGraph) computeCurvatureAndConcavity() {
	n := len(g.Wall.Nodes)
	g.Curvature = make([]float64, n)
	g.Concavity = make([]float64, n)

	parallelfor.Range(n, parallelfor.DefaultChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			nbs := g.Neighbors[i]
			if len(nbs) == 0 {
				continue
			}
			var angleSum float64
			var centroid meshio.Vec3
			for _, j := range nbs {
				c := meshio.Dot(g.Normal[i], g.Normal[j])
				if c > 1 {
					c = 1
				} else if c < -1 {
					c = -1
				}
				angleSum += math.Acos(c)
				centroid = meshio.Add(centroid, g.Wall.Nodes[j])
			}
			g.Curvature[i] = angleSum / float64(len(nbs))
			centroid = meshio.Scale(1/float64(len(nbs)), centroid)
			toCentroid := meshio.Sub(centroid, g.Wall.Nodes[i])
			g.Concavity[i] = -meshio.Dot(toCentroid, g.Normal[i])
		}
	})
}

// edgeKey returns a canonical key for an undirected edge, used by
// IsClosedManifold to count how many triangles reference each edge.
func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// IsClosedManifold reports whether every edge of the wall mesh is shared by
// exactly two triangles, or, in symmetric mode, whether the unshared edges
// all lie on the symmetry plane (§4.1).
func (g *WallGraph) IsClosedManifold() bool {
	counts := make(map[[2]int]int)
	for _, tri := range g.Wall.Triangles {
		for v := 0; v < 3; v++ {
			counts[edgeKey(tri[v], tri[(v+1)%3])]++
		}
	}
	for e, c := range counts {
		if c == 2 {
			continue
		}
		if c != 1 {
			return false // non-manifold: shared by 3+ triangles
		}
		if !g.Symmetric {
			return false
		}
		a, b := e[0], e[1]
		if !g.IsSymNode[a] || !g.IsSymNode[b] {
			return false
		}
	}
	return true
}

// EnvelopeBounds returns the axis-aligned bounding box of the wall nodes,
// used to size the far-field and default nearfield geometry.
func (g *WallGraph) EnvelopeBounds() (lo, hi meshio.Vec3) {
	return g.Wall.Bounds()
}

// EllipsoidEncloses reports whether the ellipsoid centered at ctr with
// semi-axes semiax fully encloses the wall mesh, i.e. every node satisfies
// sum((p-ctr)/semiax)^2 <= 1.
func (g *WallGraph) EllipsoidEncloses(ctr, semiax meshio.Vec3) bool {
	for _, p := range g.Wall.Nodes {
		var s float64
		for k := 0; k < 3; k++ {
			if semiax[k] == 0 {
				return false
			}
			d := (p[k] - ctr[k]) / semiax[k]
			s += d * d
		}
		if s > 1 {
			return false
		}
	}
	return true
}

// RequireClosed returns NotClosed if the manifold test fails, mirroring the
// original tool's pre-extrusion check.
func (g *WallGraph) RequireClosed() error {
	if !g.IsClosedManifold() {
		return perr.New(perr.NotClosed, "wall mesh is not watertight")
	}
	return nil
}
