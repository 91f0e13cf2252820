// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshio

// UnitCube returns the closed triangulated surface of the axis-aligned cube
// [0,1]^3 (12 triangles, outward-facing), scenario S1 of the testable
// properties (§8).
func UnitCube() *WallMesh {
	nodes := []Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	tris := [][3]int{
		{0, 3, 2}, {0, 2, 1}, // z=0, outward normal -z
		{4, 5, 6}, {4, 6, 7}, // z=1, outward normal +z
		{0, 1, 5}, {0, 5, 4}, // y=0, outward normal -y
		{3, 7, 6}, {3, 6, 2}, // y=1, outward normal +y
		{0, 4, 7}, {0, 7, 3}, // x=0, outward normal -x
		{1, 2, 6}, {1, 6, 5}, // x=1, outward normal +x
	}
	return &WallMesh{Nodes: nodes, Triangles: tris}
}
