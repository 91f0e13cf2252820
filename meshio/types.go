// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package meshio holds the shared mesh primitives read and written by the
// core: the wall triangulation, the tetrahedral volume mesh, and the vector
// arithmetic used throughout geometry code. Node and element storage is a
// plain arena (indexable slice) with integer cross-links, never pointers,
// so adjacency can be rebuilt from scratch on any structural change (§9).
package meshio

import "math"

// Vec3 is a Cartesian point or direction.
type Vec3 = [3]float64

// Add returns a+b.
func Add(a, b Vec3) Vec3 { return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

// Sub returns a-b.
func Sub(a, b Vec3) Vec3 { return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

// Scale returns s*a.
func Scale(s float64, a Vec3) Vec3 { return Vec3{s * a[0], s * a[1], s * a[2]} }

// Dot returns a·b.
func Dot(a, b Vec3) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

// Cross returns a×b.
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Norm returns the Euclidean length of a.
func Norm(a Vec3) float64 { return math.Sqrt(Dot(a, a)) }

// Normalize returns a unit vector in the direction of a, or a zero vector if
// a is (numerically) zero.
func Normalize(a Vec3) Vec3 {
	n := Norm(a)
	if n < 1e-300 {
		return Vec3{}
	}
	return Scale(1/n, a)
}

// Lerp returns a linear interpolation between a and b at parameter t.
func Lerp(a, b Vec3, t float64) Vec3 {
	return Add(Scale(1-t, a), Scale(t, b))
}

// WallMesh is the input triangulated wall surface WT of §3: nodes, triangles
// (triples of distinct node indices), and an optional per-triangle tag.
type WallMesh struct {
	Nodes     []Vec3
	Triangles [][3]int
	Tags      []int // len 0 (untagged) or len(Triangles)

	Symmetric bool
	YPlane    float64
}

// Tag returns the tag of triangle t, or 0 if the mesh carries no tags.
func (m *WallMesh) Tag(t int) int {
	if len(m.Tags) == 0 {
		return 0
	}
	return m.Tags[t]
}

// TriangleNormal returns the (non-unit) normal of triangle t, oriented by
// the node winding order, and its area (half the cross product length).
func (m *WallMesh) TriangleNormal(t int) (n Vec3, area float64) {
	tri := m.Triangles[t]
	a, b, c := m.Nodes[tri[0]], m.Nodes[tri[1]], m.Nodes[tri[2]]
	cr := Cross(Sub(b, a), Sub(c, a))
	return cr, 0.5 * Norm(cr)
}

// Bounds returns the axis-aligned bounding box of the mesh nodes.
func (m *WallMesh) Bounds() (lo, hi Vec3) {
	if len(m.Nodes) == 0 {
		return
	}
	lo, hi = m.Nodes[0], m.Nodes[0]
	for _, p := range m.Nodes[1:] {
		for k := 0; k < 3; k++ {
			if p[k] < lo[k] {
				lo[k] = p[k]
			}
			if p[k] > hi[k] {
				hi[k] = p[k]
			}
		}
	}
	return
}

// TetMesh is the volume mesh TM of §3, as returned by the external tet
// mesher: nodes, tets (quadruples of node indices), and its boundary
// triangles with their region tags (used to match envelope triangles back
// to wall triangles, §4.5).
type TetMesh struct {
	Nodes        []Vec3
	Tets         [][4]int
	BoundaryTris [][3]int
	BoundaryTags []int
}

// TetVolume returns the signed volume of tet t; positive iff the node order
// gives a non-inverted (positive Jacobian) element.
func (m *TetMesh) TetVolume(t int) float64 {
	q := m.Tets[t]
	a, b, c, d := m.Nodes[q[0]], m.Nodes[q[1]], m.Nodes[q[2]], m.Nodes[q[3]]
	return Dot(Sub(a, d), Cross(Sub(b, d), Sub(c, d))) / 6.0
}
