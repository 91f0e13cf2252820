// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cpmech/gosl/chk"
)

// TestFakeTetgenHelperProcess is not a real test: it is re-executed as a
// subprocess (see writeFakeTetgenScript) to stand in for the external tet
// mesher in the S1 integration test below, since the real tetgen binary is
// an external dependency this core does not ship (spec.md §8 scenario S5's
// counterpart for a *present* mesher). Invoked normally, without the
// GO_WANT_HELPER_PROCESS env var, it is a no-op.
func TestFakeTetgenHelperProcess(tst *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if err := runFakeTetgen(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

// writeFakeTetgenScript writes a tiny POSIX shell wrapper that re-invokes
// the already-compiled test binary as the helper process, the standard
// self-exec trick (as used by os/exec's own tests) for standing in for an
// external program without shipping a second compiled artifact.
func writeFakeTetgenScript(t *testing.T, dir string) string {
	path := filepath.Join(dir, "faketetgen.sh")
	testBinary := os.Args[0]
	script := fmt.Sprintf("#!/bin/sh\nexport GO_WANT_HELPER_PROCESS=1\nexec %q -test.run=^TestFakeTetgenHelperProcess$ -test.v=false -- \"$@\"\n", testBinary)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("cannot write fake tetgen script: %v", err)
	}
	return path
}

// runFakeTetgen implements the two tetgen invocations RunFirstPass and
// RunSecondPass make: given a .smesh PLC, it passes the boundary nodes and
// facets through unchanged and fills the interior with one centroid-based
// tet per facet (a trivial, Delaunay-ish fill good enough to exercise the
// pipeline's reconciliation and prism assembly, not mesh quality); given a
// first-pass basename (the -rqmY second-pass invocation), it just carries
// the first-pass files forward to the second-pass filenames.
func runFakeTetgen(args []string) error {
	var rest []string
	for i, a := range args {
		if a == "--" {
			rest = args[i+1:]
			break
		}
	}
	if len(rest) == 0 {
		return fmt.Errorf("fake tetgen: no arguments")
	}
	last := rest[len(rest)-1]
	switch {
	case strings.HasSuffix(last, ".smesh"):
		return fakeFirstPass(strings.TrimSuffix(last, ".smesh"))
	case strings.HasSuffix(last, ".1"):
		return fakeSecondPass(last)
	default:
		return fmt.Errorf("fake tetgen: unrecognized input %q", last)
	}
}

type smeshFacet struct {
	verts [3]int
	tag   int
}

func readSmesh(path string) (nodes []meshio.Vec3, facets []smeshFacet, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	readLine := func() ([]string, bool) {
		for sc.Scan() {
			line := sc.Text()
			if i := strings.IndexByte(line, '#'); i >= 0 {
				line = line[:i]
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			return strings.Fields(line), true
		}
		return nil, false
	}

	header, ok := readLine()
	if !ok {
		return nil, nil, fmt.Errorf("empty smesh file")
	}
	nn, _ := strconv.Atoi(header[0])
	nodes = make([]meshio.Vec3, nn)
	for i := 0; i < nn; i++ {
		fields, ok := readLine()
		if !ok {
			return nil, nil, fmt.Errorf("truncated node section")
		}
		x, _ := strconv.ParseFloat(fields[1], 64)
		y, _ := strconv.ParseFloat(fields[2], 64)
		z, _ := strconv.ParseFloat(fields[3], 64)
		nodes[i] = meshio.Vec3{x, y, z}
	}

	fheader, ok := readLine()
	if !ok {
		return nil, nil, fmt.Errorf("missing facet section")
	}
	nf, _ := strconv.Atoi(fheader[0])
	facets = make([]smeshFacet, nf)
	for i := 0; i < nf; i++ {
		hdr, ok := readLine()
		if !ok {
			return nil, nil, fmt.Errorf("truncated facet header")
		}
		tag := 0
		if len(hdr) >= 3 {
			tag, _ = strconv.Atoi(hdr[2])
		}
		verts, ok := readLine()
		if !ok {
			return nil, nil, fmt.Errorf("truncated facet vertex line")
		}
		a, _ := strconv.Atoi(verts[1])
		b, _ := strconv.Atoi(verts[2])
		c, _ := strconv.Atoi(verts[3])
		facets[i] = smeshFacet{verts: [3]int{a, b, c}, tag: tag}
	}
	return nodes, facets, nil
}

func fakeFirstPass(base string) error {
	nodes, facets, err := readSmesh(base + ".smesh")
	if err != nil {
		return err
	}
	if len(facets) == 0 {
		return fmt.Errorf("fake tetgen: no facets in PLC")
	}

	// one interior point: the centroid of all boundary nodes, pulled
	// slightly inward is unnecessary for this stand-in -- the fill only
	// needs to exist, not be inversion-free, since tangled elements are a
	// non-fatal diagnostic (§7).
	var cx, cy, cz float64
	for _, p := range nodes {
		cx += p[0]
		cy += p[1]
		cz += p[2]
	}
	n := float64(len(nodes))
	interior := len(nodes) + 1 // 1-based

	nodeF, err := os.Create(base + ".1.node")
	if err != nil {
		return err
	}
	defer nodeF.Close()
	fmt.Fprintf(nodeF, "%d 3 0 0\n", len(nodes)+1)
	for i, p := range nodes {
		fmt.Fprintf(nodeF, "%d %.10g %.10g %.10g\n", i+1, p[0], p[1], p[2])
	}
	fmt.Fprintf(nodeF, "%d %.10g %.10g %.10g\n", interior, cx/n, cy/n, cz/n)

	eleF, err := os.Create(base + ".1.ele")
	if err != nil {
		return err
	}
	defer eleF.Close()
	fmt.Fprintf(eleF, "%d 4 0\n", len(facets))
	for i, fc := range facets {
		fmt.Fprintf(eleF, "%d %d %d %d %d\n", i+1, fc.verts[0], fc.verts[1], fc.verts[2], interior)
	}

	faceF, err := os.Create(base + ".1.face")
	if err != nil {
		return err
	}
	defer faceF.Close()
	fmt.Fprintf(faceF, "%d 1\n", len(facets))
	for i, fc := range facets {
		fmt.Fprintf(faceF, "%d %d %d %d %d\n", i+1, fc.verts[0], fc.verts[1], fc.verts[2], fc.tag)
	}
	return nil
}

func fakeSecondPass(base string) error {
	for _, ext := range []string{".node", ".ele", ".face"} {
		src := base + ext
		if _, err := os.Stat(src); err != nil {
			if ext == ".face" {
				continue
			}
			return err
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		dst := strings.TrimSuffix(base, ".1") + ".2" + ext
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// TestEndToEndUnitCube exercises scenario S1 (spec.md §8): a unit-cube wall
// mesh through the full pipeline (graph, shell, envelope, two tetgen
// passes, reconciliation, prism assembly, output) against the fake tetgen
// subprocess above, checking only that the pipeline completes and produces
// a plausible hybrid mesh -- the individual package tests already cover the
// numeric properties of each stage in isolation.
func TestEndToEndUnitCube(tst *testing.T) {
	chk.PrintTitle("EndToEndUnitCube")

	dir := tst.TempDir()
	wallPath := filepath.Join(dir, "cube.zml")
	if err := meshio.WriteNative(wallPath, meshio.UnitCube()); err != nil {
		tst.Fatalf("WriteNative failed: %v", err)
	}

	tetgenPath := writeFakeTetgenScript(tst, dir)

	cfgPath := filepath.Join(dir, "pentagrow.cfg")
	cfgBody := fmt.Sprintf(`
FirstLayerThickness = 0.02
LayerCount = 4
GrowthRatio = 1.3
FarfieldRadius = 10
FarfieldSubdivision = 1
TetgenPath = %s
TetGrowthFactor = 1.3
Pass = both
`, tetgenPath)
	if err := os.WriteFile(cfgPath, []byte(cfgBody), 0644); err != nil {
		tst.Fatalf("cannot write config: %v", err)
	}

	run(wallPath, cfgPath, "", true)

	outBase := strings.TrimSuffix(wallPath, filepath.Ext(wallPath)) + ".hybrid"
	info, err := os.Stat(outBase + ".zml")
	if err != nil {
		tst.Fatalf("expected hybrid output at %s.zml: %v", outBase, err)
	}
	if info.Size() == 0 {
		tst.Errorf("hybrid output file is empty")
	}
}
