// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package tetgen implements TetgenInterface (§4.4): it builds the
// piecewise-linear complex around an optimized envelope, invokes the
// external tetrahedral mesher as a subprocess, and reads its result back
// into a meshio.TetMesh.
package tetgen

import (
	"fmt"

	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/perr"
)

// Params configures far-field/nearfield geometry and the external mesher
// invocation, per §6's TetgenOptions/TetgenPath/Farfield*/Nearfield* keys.
type Params struct {
	FarfieldRadius      float64
	FarfieldCenter      meshio.Vec3
	FarfieldSubdivision int

	NearfieldEdgeLength float64
	NearfieldCenter     meshio.Vec3
	NearfieldSemiAxes   meshio.Vec3

	HolePositions []meshio.Vec3

	MaxGlobalEdgeLength float64
	MaxSteinerPoints    int

	TetgenOptions string
	TetgenPath    string

	Symmetric bool
	YPlane    float64

	// WallTagBase is the highest wall-triangle tag; far-field and
	// nearfield facets are tagged above it (§4.4's "reserved tag range").
	WallTagBase int
}

// DefaultParams returns the original tool's defaults (frontend.cpp).
func DefaultParams() Params {
	return Params{
		FarfieldRadius:      100.0,
		FarfieldSubdivision: 3,
		TetgenOptions:       "-pq1.2AY",
		TetgenPath:          "tetgen",
	}
}

// Result is the output of a tetgen pass: the tet mesh and the tag ranges
// needed by the reconciler (§4.5) to tell wall/far/near faces apart.
type Result struct {
	Mesh            *meshio.TetMesh
	FarTagBase      int
	NearTagBase     int
	HasNearfield    bool
}

func tetgenOptionsWithVolumeCap(options string, maxGlobalLength float64) string {
	if maxGlobalLength <= 0 {
		return options
	}
	for _, r := range options {
		if r == 'a' {
			return options
		}
	}
	vol := 0.1 * maxGlobalLength * maxGlobalLength * maxGlobalLength
	return fmt.Sprintf("%sa%g", options, vol)
}

func tetgenOptionsWithSteiner(options string, maxSteiner int) string {
	if maxSteiner <= 0 {
		return options
	}
	return fmt.Sprintf("%sS%d", options, maxSteiner)
}

// RunFirstPass builds the PLC around envelope, writes it as basePath+".smesh",
// invokes the tet mesher, and reads the result from basePath+".1.*" (tetgen's
// "-p" naming convention, grounded on frontend.cpp's firstTetgenPass /
// readTets(tgOutBasename) pairing).
func RunFirstPass(envelope *meshio.WallMesh, envelopeTags []int, p Params, basePath string) (*Result, error) {
	g, err := graph.Build(envelope, 1e-6)
	if err != nil {
		return nil, err
	}
	if !g.IsClosedManifold() {
		return nil, perr.New(perr.InvalidPLC, "envelope surface is not watertight")
	}

	far := buildFarField(p.FarfieldCenter, p.FarfieldRadius, p.FarfieldSubdivision, p.Symmetric, p.YPlane)

	var near *meshio.WallMesh
	hasNear := p.NearfieldEdgeLength > 0
	if hasNear {
		semiax := p.NearfieldSemiAxes
		if semiax == (meshio.Vec3{}) {
			lo, hi := envelope.Bounds()
			semiax = meshio.Scale(0.5, meshio.Sub(hi, lo))
		}
		center := p.NearfieldCenter
		near = buildNearField(center, semiax, p.NearfieldEdgeLength)
	}

	smeshPath := basePath + ".smesh"
	if err := writePLC(smeshPath, envelope, envelopeTags, far, near, p.HolePositions, p.WallTagBase); err != nil {
		return nil, perr.Wrap(perr.TetgenFailed, err, "cannot write %s", smeshPath)
	}

	options := p.TetgenOptions
	options = tetgenOptionsWithVolumeCap(options, p.MaxGlobalEdgeLength)
	options = tetgenOptionsWithSteiner(options, p.MaxSteinerPoints)

	if err := invoke(p.TetgenPath, options, smeshPath); err != nil {
		return nil, err
	}

	mesh, err := readTetMesh(basePath + ".1")
	if err != nil {
		return nil, err
	}

	return &Result{
		Mesh:         mesh,
		FarTagBase:   FarTagBase(p.WallTagBase),
		NearTagBase:  NearTagBase(p.WallTagBase),
		HasNearfield: hasNear,
	}, nil
}

// RunSecondPass re-invokes the mesher in refine mode ("-rqmY", per
// frontend.cpp's secondTetgenPass) against the metric file already written
// alongside basePath+".1", producing basePath+".2.*".
func RunSecondPass(p Params, basePath string) (*Result, error) {
	options := "-rqmY"
	if containsRune(p.TetgenOptions, 'V') {
		options += "V"
	}
	options = tetgenOptionsWithSteiner(options, p.MaxSteinerPoints)

	if err := invoke(p.TetgenPath, options, basePath+".1"); err != nil {
		return nil, err
	}

	mesh, err := readTetMesh(basePath + ".2")
	if err != nil {
		return nil, err
	}
	return &Result{
		Mesh:         mesh,
		FarTagBase:   FarTagBase(p.WallTagBase),
		NearTagBase:  NearTagBase(p.WallTagBase),
		HasNearfield: p.NearfieldEdgeLength > 0,
	}, nil
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
