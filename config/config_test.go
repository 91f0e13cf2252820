// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"strings"
	"testing"

	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cpmech/gosl/chk"
)

const sampleConfig = `
# comment line, ignored
FirstLayerThickness = 0.02
LayerCount = 4
GrowthRatio = 1.3
Symmetry = true
SplineNormals = yes
FarfieldCenter = 0 0 0
HolePosition = 1 2 3  4 5 6
TetgenOptions = -pq1.2AY

`

func TestReadFromParsesTypedValues(tst *testing.T) {
	chk.PrintTitle("ReadFromParsesTypedValues")

	c, err := ReadFrom(strings.NewReader(sampleConfig))
	if err != nil {
		tst.Fatalf("ReadFrom failed: %v", err)
	}

	if got := c.Float("FirstLayerThickness", -1); got != 0.02 {
		tst.Errorf("FirstLayerThickness: got %v, want 0.02", got)
	}
	if got := c.Int("LayerCount", -1); got != 4 {
		tst.Errorf("LayerCount: got %v, want 4", got)
	}
	if got := c.Float("GrowthRatio", -1); got != 1.3 {
		tst.Errorf("GrowthRatio: got %v, want 1.3", got)
	}
	if !c.Bool("Symmetry", false) {
		tst.Errorf("Symmetry: want true")
	}
	if !c.Bool("SplineNormals", false) {
		tst.Errorf("SplineNormals: want true for 'yes'")
	}
	if got := c.Vec3("FarfieldCenter", meshio.Vec3{1, 1, 1}); got != (meshio.Vec3{0, 0, 0}) {
		tst.Errorf("FarfieldCenter: got %v, want origin", got)
	}
	holes := c.Vec3List("HolePosition")
	if len(holes) != 2 {
		tst.Fatalf("HolePosition: got %d points, want 2", len(holes))
	}
	if holes[0] != (meshio.Vec3{1, 2, 3}) || holes[1] != (meshio.Vec3{4, 5, 6}) {
		tst.Errorf("HolePosition: got %v, want [{1 2 3} {4 5 6}]", holes)
	}
	if got := c.Value("TetgenOptions", ""); got != "-pq1.2AY" {
		tst.Errorf("TetgenOptions: got %q", got)
	}
	if c.HasKey("NotPresent") {
		tst.Errorf("HasKey: NotPresent should be absent")
	}
}

func TestMissingKeysFallBackToDefault(tst *testing.T) {
	chk.PrintTitle("MissingKeysFallBackToDefault")

	c := New()
	if got := c.Float("Anything", 3.5); got != 3.5 {
		tst.Errorf("got %v, want default 3.5", got)
	}
	if got := c.Int("Anything", 7); got != 7 {
		tst.Errorf("got %v, want default 7", got)
	}
	if got := c.Bool("Anything", true); got != true {
		tst.Errorf("got %v, want default true", got)
	}
	if got := c.Value("Anything", "fallback"); got != "fallback" {
		tst.Errorf("got %q, want fallback", got)
	}
}

func TestReadMissingFileIsAnError(tst *testing.T) {
	chk.PrintTitle("ReadMissingFileIsAnError")

	if _, err := Read("/nonexistent/path/to/config.cfg"); err == nil {
		tst.Fatalf("expected an error opening a missing config file")
	}
}
