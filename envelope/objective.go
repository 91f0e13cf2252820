// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envelope

import (
	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/internal/parallelfor"
	"github.com/cfsengineering/pentagrow/meshio"
)

// objective computes J(x) = sum over wall triangles of a quality functional
// Q(a,b,c;x) penalizing (i) departure of the envelope triangle normal from
// the local wall normal and (ii) skewness, the ratio of envelope to wall
// edge lengths (§4.3). Gradients are assembled in two disjoint-output
// passes (SPEC_FULL.md §9): first per-triangle-per-vertex contributions,
// computed in parallel over triangles into a private [ntri][3]Vec3 array;
// then a parallel-for over nodes sums each node's own incident triangles'
// contributions using the wall graph's T(i) adjacency, so no two
// goroutines ever write the same slot.
type objective struct {
	g *graph.WallGraph

	wNormal  float64 // weight on normal-deviation term
	wSkew    float64 // weight on skewness term
}

func newObjective(g *graph.WallGraph) *objective {
	return &objective{g: g, wNormal: 1.0, wSkew: 1.0}
}

// Eval is the nlopt-style objective callback: returns J(x) and, if grad is
// non-nil, fills it with ∇J(x).
func (o *objective) Eval(x, grad []float64) float64 {
	g := o.g
	ntri := len(g.Wall.Triangles)

	triVal := make([]float64, ntri)
	var triGrad [][3]meshio.Vec3
	if grad != nil {
		triGrad = make([][3]meshio.Vec3, ntri)
	}

	parallelfor.Range(ntri, parallelfor.DefaultChunk, func(lo, hi int) {
		for t := lo; t < hi; t++ {
			v, gr := o.triangleQuality(t, x, grad != nil)
			triVal[t] = v
			if grad != nil {
				triGrad[t] = gr
			}
		}
	})

	var J float64
	for _, v := range triVal {
		J += v
	}

	if grad != nil {
		n := len(g.Wall.Nodes)
		parallelfor.Range(n, parallelfor.DefaultChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				var acc meshio.Vec3
				for _, t := range g.NodeTris[i] {
					tri := g.Wall.Triangles[t]
					for v := 0; v < 3; v++ {
						if tri[v] == i {
							acc = meshio.Add(acc, triGrad[t][v])
						}
					}
				}
				grad[3*i], grad[3*i+1], grad[3*i+2] = acc[0], acc[1], acc[2]
			}
		})
	}

	return J
}

// triangleQuality computes Q(a,b,c;x) and, if withGrad, its gradient with
// respect to each of the triangle's three node offsets, by central finite
// differences on the triangle's own closed-form scalar — the triangle is a
// 9-variable local problem, cheap enough to differentiate directly without
// numerical instability (unlike the whole-mesh case the spec warns about in
// §4.3, which is why the *global* constraint gradients in constraints.go
// are instead closed-form).
func (o *objective) triangleQuality(t int, x []float64, withGrad bool) (float64, [3]meshio.Vec3) {
	g := o.g
	tri := g.Wall.Triangles[t]

	envPos := func(x []float64) [3]meshio.Vec3 {
		var p [3]meshio.Vec3
		for v := 0; v < 3; v++ {
			idx := tri[v]
			p[v] = meshio.Add(g.Wall.Nodes[idx], getVec3(x, idx))
		}
		return p
	}

	wn, _ := g.Wall.TriangleNormal(t)
	wn = meshio.Normalize(wn)

	eval := func(x []float64) float64 {
		p := envPos(x)
		en := meshio.Cross(meshio.Sub(p[1], p[0]), meshio.Sub(p[2], p[0]))
		enLen := meshio.Norm(en)
		if enLen < 1e-300 {
			return 1e6 // degenerate envelope triangle: heavily penalized
		}
		enUnit := meshio.Scale(1/enLen, en)
		normalTerm := 1 - meshio.Dot(enUnit, wn) // 0 when aligned

		var skew float64
		for v := 0; v < 3; v++ {
			we := meshio.Norm(meshio.Sub(g.Wall.Nodes[tri[(v+1)%3]], g.Wall.Nodes[tri[v]]))
			ee := meshio.Norm(meshio.Sub(p[(v+1)%3], p[v]))
			if we > 1e-300 {
				r := ee/we - 1
				skew += r * r
			}
		}
		return o.wNormal*normalTerm + o.wSkew*skew
	}

	val := eval(x)
	if !withGrad {
		return val, [3]meshio.Vec3{}
	}

	var grad [3]meshio.Vec3
	const eps = 1e-7
	xp := make([]float64, len(x))
	for v := 0; v < 3; v++ {
		idx := tri[v]
		copy(xp, x)
		for k := 0; k < 3; k++ {
			xp[3*idx+k] = x[3*idx+k] + eps
			fp := eval(xp)
			xp[3*idx+k] = x[3*idx+k] - eps
			fm := eval(xp)
			xp[3*idx+k] = x[3*idx+k]
			grad[v][k] = (fp - fm) / (2 * eps)
		}
	}
	return val, grad
}
