// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshio

import (
	"os"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestNativeRoundTrip(tst *testing.T) {
	chk.PrintTitle("NativeRoundTrip")

	wt := UnitCube()
	wt.Symmetric = true
	wt.YPlane = 0.5
	wt.Tags = make([]int, len(wt.Triangles))
	wt.Tags[0] = 7

	path := tst.TempDir() + "/cube.zml"
	if err := WriteNative(path, wt); err != nil {
		tst.Fatalf("WriteNative failed: %v", err)
	}

	got, err := ReadNative(path)
	if err != nil {
		tst.Fatalf("ReadNative failed: %v", err)
	}
	if len(got.Nodes) != len(wt.Nodes) || len(got.Triangles) != len(wt.Triangles) {
		tst.Fatalf("got %d nodes / %d triangles, want %d / %d", len(got.Nodes), len(got.Triangles), len(wt.Nodes), len(wt.Triangles))
	}
	if got.Symmetric != true || got.YPlane != 0.5 {
		tst.Errorf("symmetry bookkeeping not round-tripped: %v %v", got.Symmetric, got.YPlane)
	}
	if len(got.Tags) != len(wt.Tags) || got.Tags[0] != 7 {
		tst.Errorf("triangle tags not round-tripped")
	}
	for i, n := range wt.Nodes {
		if got.Nodes[i] != n {
			tst.Errorf("node %d: got %v, want %v", i, got.Nodes[i], n)
		}
	}
}

func TestSTLRoundTrip(tst *testing.T) {
	chk.PrintTitle("STLRoundTrip")

	wt := UnitCube()
	path := tst.TempDir() + "/cube.stl"
	if err := WriteSTL(path, wt); err != nil {
		tst.Fatalf("WriteSTL failed: %v", err)
	}

	got, err := ReadSTL(path, 1e-6)
	if err != nil {
		tst.Fatalf("ReadSTL failed: %v", err)
	}
	if len(got.Triangles) != len(wt.Triangles) {
		tst.Fatalf("got %d triangles, want %d", len(got.Triangles), len(wt.Triangles))
	}
	// STL carries no topology: welding coincident vertices must recover the
	// same node count as the original closed cube.
	if len(got.Nodes) != len(wt.Nodes) {
		tst.Errorf("got %d welded nodes, want %d", len(got.Nodes), len(wt.Nodes))
	}
}

func TestReadWallDispatchesBySuffix(tst *testing.T) {
	chk.PrintTitle("ReadWallDispatchesBySuffix")

	wt := UnitCube()
	stlPath := tst.TempDir() + "/cube.stl"
	if err := WriteSTL(stlPath, wt); err != nil {
		tst.Fatalf("WriteSTL failed: %v", err)
	}

	got, err := ReadWall(stlPath, 0, 1e-6)
	if err != nil {
		tst.Fatalf("ReadWall failed: %v", err)
	}
	if len(got.Triangles) != len(wt.Triangles) {
		tst.Errorf("got %d triangles, want %d", len(got.Triangles), len(wt.Triangles))
	}
}

func TestParseFormatsBitmask(tst *testing.T) {
	chk.PrintTitle("ParseFormatsBitmask")

	f := ParseFormats("native, stl; SU2")
	if f&Native == 0 || f&STL == 0 || f&SU2 == 0 {
		tst.Errorf("got %v, want Native|STL|SU2 bits set", f)
	}
	if f&CGNS != 0 || f&EDGE != 0 || f&TAU != 0 {
		tst.Errorf("got %v, unexpected bits set", f)
	}
}

func TestWriteHybridNativeProducesFile(tst *testing.T) {
	chk.PrintTitle("WriteHybridNativeProducesFile")

	m := &HybridMesh{
		Nodes:      []Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Pentahedra: nil,
		Tets:       [][4]int{{0, 1, 2, 3}},
	}
	base := tst.TempDir() + "/out"
	if err := WriteHybrid(base, Native, m); err != nil {
		tst.Fatalf("WriteHybrid failed: %v", err)
	}
	info, err := os.Stat(base + ".zml")
	if err != nil {
		tst.Fatalf("cannot stat native output: %v", err)
	}
	if info.Size() == 0 {
		tst.Errorf("native hybrid output is empty")
	}
}
