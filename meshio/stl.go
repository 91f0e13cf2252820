// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cfsengineering/pentagrow/perr"
)

// ReadSTL reads a triangulated wall mesh from an ASCII or binary STL file,
// dispatched by sniffing the first bytes. STL carries no topology, only a
// soup of triangles with repeated vertex coordinates; coincident vertices
// within tol are welded into shared nodes so the resulting WallMesh has
// real node→triangle adjacency.
func ReadSTL(path string, tol float64) (*WallMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrap(perr.InputFormat, err, "cannot open %s", path)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 1<<16)
	head, err := br.Peek(5)
	if err != nil && err != io.EOF {
		return nil, perr.Wrap(perr.InputFormat, err, "cannot read %s", path)
	}

	var tris [][3]Vec3
	if strings.EqualFold(string(head), "solid") {
		tris, err = readSTLAscii(br)
		if err != nil {
			// some binary STL files start with "solid " in their 80-byte
			// header by coincidence; fall back to binary parsing.
			f.Seek(0, io.SeekStart)
			tris, err = readSTLBinary(f)
		}
	} else {
		tris, err = readSTLBinary(f)
	}
	if err != nil {
		return nil, perr.Wrap(perr.InputFormat, err, "cannot parse STL %s", path)
	}

	return weldSoup(tris, tol), nil
}

func readSTLBinary(r io.Reader) ([][3]Vec3, error) {
	var header [80]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	tris := make([][3]Vec3, 0, n)
	var buf [50]byte
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		var tri [3]Vec3
		for v := 0; v < 3; v++ {
			off := 12 + v*12
			tri[v] = Vec3{
				float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off+8:]))),
			}
		}
		tris = append(tris, tri)
	}
	return tris, nil
}

func readSTLAscii(r io.Reader) ([][3]Vec3, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<16), 1<<20)
	var tris [][3]Vec3
	var cur [3]Vec3
	nv := 0
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("malformed vertex line: %q", sc.Text())
			}
			x, e1 := strconv.ParseFloat(fields[1], 64)
			y, e2 := strconv.ParseFloat(fields[2], 64)
			z, e3 := strconv.ParseFloat(fields[3], 64)
			if e1 != nil || e2 != nil || e3 != nil {
				return nil, fmt.Errorf("malformed vertex line: %q", sc.Text())
			}
			cur[nv] = Vec3{x, y, z}
			nv++
			if nv == 3 {
				tris = append(tris, cur)
				nv = 0
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tris, nil
}

// weldSoup merges coincident vertices of a triangle soup within tol,
// producing a WallMesh with real shared-node connectivity.
func weldSoup(tris [][3]Vec3, tol float64) *WallMesh {
	m := &WallMesh{}
	index := make(map[[3]int64]int)
	key := func(p Vec3) [3]int64 {
		inv := 1.0
		if tol > 0 {
			inv = 1.0 / tol
		}
		return [3]int64{
			int64(math.Round(p[0] * inv)),
			int64(math.Round(p[1] * inv)),
			int64(math.Round(p[2] * inv)),
		}
	}
	nodeOf := func(p Vec3) int {
		k := key(p)
		if id, ok := index[k]; ok {
			return id
		}
		id := len(m.Nodes)
		m.Nodes = append(m.Nodes, p)
		index[k] = id
		return id
	}
	for _, tri := range tris {
		var ids [3]int
		for v := 0; v < 3; v++ {
			ids[v] = nodeOf(tri[v])
		}
		if ids[0] == ids[1] || ids[1] == ids[2] || ids[0] == ids[2] {
			continue // degenerate triangle collapsed by welding
		}
		m.Triangles = append(m.Triangles, ids)
	}
	return m
}

// WriteSTL writes m as a binary STL file (facet normals recomputed from
// node order, the format tetgen and most CFD front ends accept).
func WriteSTL(path string, m *WallMesh) error {
	f, err := os.Create(path)
	if err != nil {
		return perr.Wrap(perr.InputFormat, err, "cannot create %s", path)
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<16)
	var header [80]byte
	copy(header[:], "pentagrow STL output")
	bw.Write(header[:])
	binary.Write(bw, binary.LittleEndian, uint32(len(m.Triangles)))

	var buf [50]byte
	for t := range m.Triangles {
		n, _ := m.TriangleNormal(t)
		n = Normalize(n)
		putF32 := func(off int, v float64) {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(v)))
		}
		putF32(0, n[0])
		putF32(4, n[1])
		putF32(8, n[2])
		for v := 0; v < 3; v++ {
			p := m.Nodes[m.Triangles[t][v]]
			base := 12 + v*12
			putF32(base, p[0])
			putF32(base+4, p[1])
			putF32(base+8, p[2])
		}
		buf[48], buf[49] = 0, 0
		bw.Write(buf[:])
	}
	return bw.Flush()
}
