// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prism

import "github.com/cfsengineering/pentagrow/meshio"

// countNegativeVolumes re-checks every pentahedron and tet of the final
// merged mesh for a non-positive Jacobian, after mergeNodes may have pulled
// a seam node to a shared position. It is a diagnostic pass, never fatal:
// the caller folds the result into Diagnostics.TangledElements.
func countNegativeVolumes(m *meshio.HybridMesh) int {
	count := 0
	for _, p := range m.Pentahedra {
		if pentahedronVolume(m.Nodes, p) <= 0 {
			count++
		}
	}
	for i := range m.Tets {
		t := m.Tets[i]
		if tetVolume(m.Nodes[t[0]], m.Nodes[t[1]], m.Nodes[t[2]], m.Nodes[t[3]]) <= 0 {
			count++
		}
	}
	return count
}
