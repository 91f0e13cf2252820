// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tetgen

import (
	"os"
	"testing"

	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/perr"
	"github.com/cpmech/gosl/chk"
)

func TestRunFirstPassMissingMesherFails(tst *testing.T) {
	chk.PrintTitle("RunFirstPassMissingMesherFails")

	wt := meshio.UnitCube()
	p := DefaultParams()
	p.TetgenPath = "/nonexistent/path/to/tetgen"
	p.FarfieldRadius = 10

	basePath := tst.TempDir() + "/boundaries"
	_, err := RunFirstPass(wt, nil, p, basePath)
	if err == nil {
		tst.Fatalf("expected error for missing tetgen executable")
	}
	perrErr, ok := err.(*perr.Error)
	if !ok {
		tst.Fatalf("expected *perr.Error, got %T: %v", err, err)
	}
	if perrErr.Kind != perr.TetgenFailed {
		tst.Errorf("expected Kind TetgenFailed, got %v", perrErr.Kind)
	}
}

func TestRunFirstPassRejectsOpenEnvelope(tst *testing.T) {
	chk.PrintTitle("RunFirstPassRejectsOpenEnvelope")

	wt := meshio.UnitCube()
	wt.Triangles = wt.Triangles[:len(wt.Triangles)-1] // drop a triangle: not watertight

	p := DefaultParams()
	basePath := tst.TempDir() + "/boundaries"
	_, err := RunFirstPass(wt, nil, p, basePath)
	if err == nil {
		tst.Fatalf("expected InvalidPLC error for non-watertight envelope")
	}
	perrErr, ok := err.(*perr.Error)
	if !ok || perrErr.Kind != perr.InvalidPLC {
		tst.Fatalf("expected *perr.Error{Kind: InvalidPLC}, got %v", err)
	}
}

func TestBuildFarFieldSphereIsInward(tst *testing.T) {
	chk.PrintTitle("BuildFarFieldSphereIsInward")

	center := meshio.Vec3{0, 0, 0}
	far := buildFarField(center, 10, 1, false, 0)
	if len(far.Triangles) == 0 {
		tst.Fatalf("expected a non-empty far-field triangulation")
	}
	for t := range far.Triangles {
		n, _ := far.TriangleNormal(t)
		tri := far.Triangles[t]
		centroid := meshio.Scale(1.0/3.0, meshio.Add(meshio.Add(far.Nodes[tri[0]], far.Nodes[tri[1]]), far.Nodes[tri[2]]))
		// an inward-facing sphere normal points back towards the center,
		// i.e. opposite the outward radial direction.
		outward := meshio.Sub(centroid, center)
		if meshio.Dot(n, outward) > 0 {
			tst.Errorf("triangle %d: expected inward-facing normal", t)
			break
		}
	}
}

func TestWritePLCProducesNonEmptyFile(tst *testing.T) {
	chk.PrintTitle("WritePLCProducesNonEmptyFile")

	wt := meshio.UnitCube()
	far := buildFarField(meshio.Vec3{}, 10, 1, false, 0)

	path := tst.TempDir() + "/boundaries.smesh"
	if err := writePLC(path, wt, nil, far, nil, nil, 0); err != nil {
		tst.Fatalf("writePLC failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		tst.Fatalf("cannot stat %s: %v", path, err)
	}
	if info.Size() == 0 {
		tst.Errorf("smesh file is empty")
	}
}
