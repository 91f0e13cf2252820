// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tetgen

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/perr"
)

// invoke runs the external tet mesher as a subprocess, in the same
// exec.Command+CombinedOutput shape as arx-os-arxos's pipeline.go wraps its
// Python bridge call: the mesher is a pure function from a file on disk to
// files on disk (§9 "subprocess as a unit of work"), so stdout/stderr are
// only captured for diagnostics, never parsed as the result.
func invoke(path, options string, args ...string) error {
	if path == "" {
		path = "tetgen"
	}
	cmdArgs := append(splitOptions(options), args...)
	cmd := exec.Command(path, cmdArgs...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return perr.Wrap(perr.TetgenFailed, err, "tetgen invocation failed: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

func splitOptions(options string) []string {
	var args []string
	for _, f := range strings.Fields(options) {
		args = append(args, f)
	}
	return args
}

// requireFiles checks that every named path exists, returning MissingOutput
// naming the first absent one.
func requireFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return perr.New(perr.MissingOutput, "expected tetgen output file not found: %s", p)
		}
	}
	return nil
}

// readTetMesh parses a tetgen result triple (basename.node/.ele/.face) into
// a TetMesh and the face boundary markers, mirroring MxMesh::readTetgen's
// (mesh, &ftags) signature in frontend.cpp.
func readTetMesh(basename string) (*meshio.TetMesh, error) {
	nodePath := basename + ".node"
	elePath := basename + ".ele"
	facePath := basename + ".face"
	if err := requireFiles(nodePath, elePath); err != nil {
		return nil, err
	}

	nodes, err := readNodeFile(nodePath)
	if err != nil {
		return nil, perr.Wrap(perr.MissingOutput, err, "cannot read %s", nodePath)
	}
	tets, err := readEleFile(elePath)
	if err != nil {
		return nil, perr.Wrap(perr.MissingOutput, err, "cannot read %s", elePath)
	}

	m := &meshio.TetMesh{Nodes: nodes, Tets: tets}
	if _, statErr := os.Stat(facePath); statErr == nil {
		faces, tags, err := readFaceFile(facePath)
		if err != nil {
			return nil, perr.Wrap(perr.MissingOutput, err, "cannot read %s", facePath)
		}
		m.BoundaryTris = faces
		m.BoundaryTags = tags
	}
	return m, nil
}

func readNodeFile(path string) ([]meshio.Vec3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var n int
	for sc.Scan() {
		line := stripComment(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 1 {
			return nil, fmt.Errorf("malformed .node header")
		}
		n, err = strconv.Atoi(fields[0])
		if err != nil {
			return nil, err
		}
		break
	}

	nodes := make([]meshio.Vec3, n)
	read := 0
	for sc.Scan() && read < n {
		line := stripComment(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		idx, _ := strconv.Atoi(fields[0])
		x, _ := strconv.ParseFloat(fields[1], 64)
		y, _ := strconv.ParseFloat(fields[2], 64)
		z, _ := strconv.ParseFloat(fields[3], 64)
		pos := idx
		if pos >= 1 {
			pos--
		}
		if pos < 0 || pos >= n {
			pos = read
		}
		nodes[pos] = meshio.Vec3{x, y, z}
		read++
	}
	return nodes, sc.Err()
}

func readEleFile(path string) ([][4]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var n int
	for sc.Scan() {
		line := stripComment(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		n, err = strconv.Atoi(fields[0])
		if err != nil {
			return nil, err
		}
		break
	}

	tets := make([][4]int, 0, n)
	for sc.Scan() && len(tets) < n {
		line := stripComment(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		var q [4]int
		for k := 0; k < 4; k++ {
			v, _ := strconv.Atoi(fields[k+1])
			q[k] = v - 1 // tetgen node indices are 1-based by default
		}
		tets = append(tets, q)
	}
	return tets, sc.Err()
}

func readFaceFile(path string) ([][3]int, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var n int
	for sc.Scan() {
		line := stripComment(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		n, err = strconv.Atoi(fields[0])
		if err != nil {
			return nil, nil, err
		}
		break
	}

	faces := make([][3]int, 0, n)
	tags := make([]int, 0, n)
	for sc.Scan() && len(faces) < n {
		line := stripComment(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		var tri [3]int
		for k := 0; k < 3; k++ {
			v, _ := strconv.Atoi(fields[k+1])
			tri[k] = v - 1
		}
		tag := 0
		if len(fields) >= 5 {
			tag, _ = strconv.Atoi(fields[4])
		}
		faces = append(faces, tri)
		tags = append(tags, tag)
	}
	return faces, tags, sc.Err()
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
