// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshio

import (
	"encoding/xml"
	"fmt"
	"os"
)

// hybridDoc is the native-format encoding of a tet mesh: a flat node array
// plus one tet element block, mirroring nativeDoc's struct-tag idiom.
// Pentahedra are not part of this document.
type hybridDoc struct {
	XMLName xml.Name `xml:"HybridMesh"`
	Nodes   []node   `xml:"Nodes>N"`
	Tets    []tetXML `xml:"Tets>T"`
}

type tetXML struct {
	A int `xml:"a,attr"`
	B int `xml:"b,attr"`
	C int `xml:"c,attr"`
	D int `xml:"d,attr"`
}

type pentaXML struct {
	N string `xml:"n,attr"` // six space-separated node indices
}

// HybridMesh is the final output mesh of PrismAssembler: the merged node
// array shared by the prism and tet regions, the pentahedra emitted per
// wall triangle per sub-layer, and the tets from the external mesher's
// interior fill.
type HybridMesh struct {
	Nodes      []Vec3
	Pentahedra [][6]int
	Tets       [][4]int
}

func writeNativeHybrid(path string, m *TetMesh) error {
	doc := hybridDoc{
		Nodes: make([]node, len(m.Nodes)),
		Tets:  make([]tetXML, len(m.Tets)),
	}
	for i, p := range m.Nodes {
		doc.Nodes[i] = node{p[0], p[1], p[2]}
	}
	for i, t := range m.Tets {
		doc.Tets[i] = tetXML{A: t[0], B: t[1], C: t[2], D: t[3]}
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteHybridMesh writes a fully assembled hybrid mesh (prisms + tets) to
// the native XML format.
func WriteHybridMesh(path string, m *HybridMesh) error {
	doc := struct {
		XMLName    xml.Name   `xml:"HybridMesh"`
		Nodes      []node     `xml:"Nodes>N"`
		Pentahedra []pentaXML `xml:"Pentahedra>P"`
		Tets       []tetXML   `xml:"Tets>T"`
	}{
		Nodes:      make([]node, len(m.Nodes)),
		Pentahedra: make([]pentaXML, len(m.Pentahedra)),
		Tets:       make([]tetXML, len(m.Tets)),
	}
	for i, p := range m.Nodes {
		doc.Nodes[i] = node{p[0], p[1], p[2]}
	}
	for i, t := range m.Tets {
		doc.Tets[i] = tetXML{A: t[0], B: t[1], C: t[2], D: t[3]}
	}
	for i, pe := range m.Pentahedra {
		doc.Pentahedra[i] = pentaXML{N: fmt.Sprintf("%d %d %d %d %d %d", pe[0], pe[1], pe[2], pe[3], pe[4], pe[5])}
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
