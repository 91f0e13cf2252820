// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tetgen

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/cfsengineering/pentagrow/meshio"
)

// facet is one tagged polygon of the piecewise linear complex (§4.4).
type facet struct {
	verts [3]int
	tag   int
}

// plc is the piecewise linear complex handed to the external tet mesher:
// the envelope, far-field, optional nearfield, and hole markers, grounded
// on original_source/frontend.cpp's firstTetgenPass (PentaGrow::writeTetgen).
type plc struct {
	nodes  []meshio.Vec3
	facets []facet
	holes  []meshio.Vec3
}

// sphereMesh returns a UV-sphere triangulation centered at c with the given
// radius; subdiv controls resolution (stacks = 4+4*subdiv, slices =
// 8+8*subdiv, the same "refinement level" knob frontend.cpp passes to
// TriMesh::sphere/semisphere).
func sphereMesh(c meshio.Vec3, radius float64, subdiv int) *meshio.WallMesh {
	stacks := 4 + 4*subdiv
	slices := 8 + 8*subdiv
	return uvSphere(c, radius, stacks, slices, 0, math.Pi)
}

// hemisphereMesh returns the half of a UV-sphere with polar angle in
// [0,π/2], i.e. the cap farthest from the symmetry plane, plus a disk
// capping the symmetry plane, matching TriMesh::semisphere +
// addyplane in the original tool.
func hemisphereMesh(c meshio.Vec3, radius float64, subdiv int, yPlane float64) *meshio.WallMesh {
	stacks := 2 + 2*subdiv
	slices := 8 + 8*subdiv
	half := uvSphere(c, radius, stacks, slices, 0, math.Pi/2)
	disk := diskMesh(c, radius, slices, yPlane)
	return mergeWallMeshes(half, disk)
}

// uvSphere triangulates the polar-angle band [phiMin,phiMax] of a sphere of
// the given radius centered at c into stacks*slices quads (2 triangles
// each), y as the polar axis (so the symmetry-plane cap aligns with y).
func uvSphere(c meshio.Vec3, radius float64, stacks, slices int, phiMin, phiMax float64) *meshio.WallMesh {
	m := &meshio.WallMesh{}
	index := func(i, j int) int { return i*(slices+1) + j }

	for i := 0; i <= stacks; i++ {
		phi := phiMin + (phiMax-phiMin)*float64(i)/float64(stacks)
		for j := 0; j <= slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			y := radius * math.Cos(phi)
			r := radius * math.Sin(phi)
			x := r * math.Cos(theta)
			z := r * math.Sin(theta)
			m.Nodes = append(m.Nodes, meshio.Add(c, meshio.Vec3{x, y, z}))
		}
	}

	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := index(i, j)
			b := index(i, j+1)
			cc := index(i+1, j)
			d := index(i+1, j+1)
			m.Triangles = append(m.Triangles, [3]int{a, b, cc})
			m.Triangles = append(m.Triangles, [3]int{b, d, cc})
		}
	}
	return m
}

// diskMesh triangulates a filled disk of the given radius centered at c,
// lying in the plane y=yPlane (a fan of triangles from the center).
func diskMesh(c meshio.Vec3, radius float64, slices int, yPlane float64) *meshio.WallMesh {
	m := &meshio.WallMesh{}
	center := meshio.Vec3{c[0], yPlane, c[2]}
	m.Nodes = append(m.Nodes, center)
	for j := 0; j <= slices; j++ {
		theta := 2 * math.Pi * float64(j) / float64(slices)
		x := center[0] + radius*math.Cos(theta)
		z := center[2] + radius*math.Sin(theta)
		m.Nodes = append(m.Nodes, meshio.Vec3{x, yPlane, z})
	}
	for j := 1; j <= slices; j++ {
		m.Triangles = append(m.Triangles, [3]int{0, j, j + 1})
	}
	return m
}

func mergeWallMeshes(a, b *meshio.WallMesh) *meshio.WallMesh {
	m := &meshio.WallMesh{}
	m.Nodes = append(m.Nodes, a.Nodes...)
	m.Nodes = append(m.Nodes, b.Nodes...)
	m.Triangles = append(m.Triangles, a.Triangles...)
	offset := len(a.Nodes)
	for _, tri := range b.Triangles {
		m.Triangles = append(m.Triangles, [3]int{tri[0] + offset, tri[1] + offset, tri[2] + offset})
	}
	return m
}

// reverseWinding flips every triangle's orientation (and therefore its
// normal), used to turn an outward-facing far-field sphere into one facing
// inward, per §4.4's buildFarField.
func reverseWinding(m *meshio.WallMesh) {
	for i, tri := range m.Triangles {
		m.Triangles[i] = [3]int{tri[0], tri[2], tri[1]}
	}
}

// ellipsoidMesh triangulates an ellipsoid centered at c with semi-axes
// semiax, choosing a subdivision level so the average boundary triangle
// area approximates targetEdge^2*sqrt(3)/4, per §4.4's buildNearField.
func ellipsoidMesh(c, semiax meshio.Vec3, targetEdge float64) *meshio.WallMesh {
	// crude surface-area estimate (Thomsen approximation) to size the grid.
	p := 1.6075
	a, b, cc := semiax[0], semiax[1], semiax[2]
	area := 4 * math.Pi * math.Pow((math.Pow(a*b, p)+math.Pow(a*cc, p)+math.Pow(b*cc, p))/3, 1/p)
	targetTriArea := math.Sqrt(3) / 4 * targetEdge * targetEdge
	if targetTriArea <= 0 {
		targetTriArea = area / 200
	}
	ntri := area / targetTriArea
	// each UV-sphere with `stacks` stacks and `slices=2*stacks` slices has
	// 4*stacks^2 triangles; solve for stacks, clamp to a sane range.
	stacks := int(math.Sqrt(ntri/4)) + 1
	if stacks < 3 {
		stacks = 3
	}
	if stacks > 40 {
		stacks = 40
	}
	slices := 2 * stacks

	m := uvSphere(meshio.Vec3{}, 1, stacks, slices, 0, math.Pi)
	for i, p := range m.Nodes {
		m.Nodes[i] = meshio.Add(c, meshio.Vec3{p[0] * a, p[1] * b, p[2] * cc})
	}
	return m
}

// buildFarField returns the far-field boundary (§4.4): a sphere, or in
// symmetric mode a hemisphere capped by a disk on the symmetry plane, with
// normals reversed to face inward. It carries no tags; writePLC assigns
// farTag to its facets.
func buildFarField(center meshio.Vec3, radius float64, subdiv int, symmetric bool, yPlane float64) *meshio.WallMesh {
	var m *meshio.WallMesh
	if symmetric {
		m = hemisphereMesh(center, radius, subdiv, yPlane)
	} else {
		m = sphereMesh(center, radius, subdiv)
	}
	reverseWinding(m)
	return m
}

// buildNearField returns the optional refinement-region ellipsoid (§4.4),
// or nil if edgeLength is zero (disabled).
func buildNearField(center, semiax meshio.Vec3, edgeLength float64) *meshio.WallMesh {
	if edgeLength == 0 {
		return nil
	}
	return ellipsoidMesh(center, semiax, edgeLength)
}

// writePLC writes the envelope, far-field, optional nearfield and hole
// markers to a tetgen .smesh file (Part 1: nodes, Part 2: facets, Part 3:
// holes, Part 4: regions — none used here), using a reserved tag range
// above wallTagBase for non-wall facets, per §4.4.
func writePLC(path string, envelope *meshio.WallMesh, envelopeTags []int, far, near *meshio.WallMesh, holes []meshio.Vec3, wallTagBase int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	allNodes := append([]meshio.Vec3{}, envelope.Nodes...)
	farOffset := len(allNodes)
	allNodes = append(allNodes, far.Nodes...)
	nearOffset := len(allNodes)
	if near != nil {
		allNodes = append(allNodes, near.Nodes...)
	}

	fmt.Fprintf(w, "# node list\n%d 3 0 0\n", len(allNodes))
	for i, p := range allNodes {
		fmt.Fprintf(w, "%d %.10g %.10g %.10g\n", i+1, p[0], p[1], p[2])
	}

	nfacets := len(envelope.Triangles) + len(far.Triangles)
	if near != nil {
		nfacets += len(near.Triangles)
	}
	fmt.Fprintf(w, "# facet list\n%d 1\n", nfacets)

	wallTag := func(t int) int {
		if len(envelopeTags) == 0 {
			return wallTagBase + 1
		}
		return envelopeTags[t]
	}
	for t, tri := range envelope.Triangles {
		fmt.Fprintf(w, "1 0 %d\n3 %d %d %d\n", wallTag(t), tri[0]+1, tri[1]+1, tri[2]+1)
	}
	farTag := wallTagBase + 1000
	for _, tri := range far.Triangles {
		fmt.Fprintf(w, "1 0 %d\n3 %d %d %d\n", farTag, tri[0]+farOffset+1, tri[1]+farOffset+1, tri[2]+farOffset+1)
	}
	if near != nil {
		nearTag := wallTagBase + 2000
		for _, tri := range near.Triangles {
			fmt.Fprintf(w, "1 0 %d\n3 %d %d %d\n", nearTag, tri[0]+nearOffset+1, tri[1]+nearOffset+1, tri[2]+nearOffset+1)
		}
	}

	fmt.Fprintf(w, "# hole list\n%d\n", len(holes))
	for i, p := range holes {
		fmt.Fprintf(w, "%d %.10g %.10g %.10g\n", i+1, p[0], p[1], p[2])
	}

	fmt.Fprintf(w, "# region list\n0\n")
	return nil
}

// FarTagBase and NearTagBase expose the reserved tag ranges writePLC uses,
// so the reconciler (§4.5) can tell envelope faces from far/nearfield faces
// in the tet mesher's output.
func FarTagBase(wallTagBase int) int  { return wallTagBase + 1000 }
func NearTagBase(wallTagBase int) int { return wallTagBase + 2000 }
