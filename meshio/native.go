// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshio

import (
	"encoding/xml"
	"os"

	"github.com/cfsengineering/pentagrow/perr"
)

// nativeDoc is the on-disk shape of the native XML/ZML triangulation
// format, the same struct-tag-driven (de)serialization idiom the teacher
// uses for its JSON .sim format, translated to XML since this core's
// native format is XML-flavored (ZML).
type nativeDoc struct {
	XMLName   xml.Name `xml:"Triangulation"`
	Symmetric bool     `xml:"symmetric,attr"`
	YPlane    float64  `xml:"yplane,attr"`
	Nodes     []node   `xml:"Nodes>N"`
	Triangles []tri    `xml:"Triangles>T"`
}

type node struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
	Z float64 `xml:"z,attr"`
}

type tri struct {
	A   int `xml:"a,attr"`
	B   int `xml:"b,attr"`
	C   int `xml:"c,attr"`
	Tag int `xml:"tag,attr"`
}

// ReadNative reads the native XML wall-mesh format.
func ReadNative(path string) (*WallMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrap(perr.InputFormat, err, "cannot read %s", path)
	}
	var doc nativeDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, perr.Wrap(perr.InputFormat, err, "cannot parse native XML %s", path)
	}
	m := &WallMesh{
		Symmetric: doc.Symmetric,
		YPlane:    doc.YPlane,
		Nodes:     make([]Vec3, len(doc.Nodes)),
		Triangles: make([][3]int, len(doc.Triangles)),
	}
	for i, n := range doc.Nodes {
		m.Nodes[i] = Vec3{n.X, n.Y, n.Z}
	}
	hasTags := false
	m.Tags = make([]int, len(doc.Triangles))
	for i, t := range doc.Triangles {
		m.Triangles[i] = [3]int{t.A, t.B, t.C}
		m.Tags[i] = t.Tag
		if t.Tag != 0 {
			hasTags = true
		}
	}
	if !hasTags {
		m.Tags = nil
	}
	return m, nil
}

// WriteNative writes m in the native XML/ZML format.
func WriteNative(path string, m *WallMesh) error {
	doc := nativeDoc{
		Symmetric: m.Symmetric,
		YPlane:    m.YPlane,
		Nodes:     make([]node, len(m.Nodes)),
		Triangles: make([]tri, len(m.Triangles)),
	}
	for i, p := range m.Nodes {
		doc.Nodes[i] = node{p[0], p[1], p[2]}
	}
	for i, t := range m.Triangles {
		doc.Triangles[i] = tri{A: t[0], B: t[1], C: t[2], Tag: m.Tag(i)}
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
