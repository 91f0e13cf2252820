// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cfsengineering/pentagrow/config"
	"github.com/cfsengineering/pentagrow/envelope"
	"github.com/cfsengineering/pentagrow/graph"
	"github.com/cfsengineering/pentagrow/meshio"
	"github.com/cfsengineering/pentagrow/metric"
	"github.com/cfsengineering/pentagrow/perr"
	"github.com/cfsengineering/pentagrow/prism"
	"github.com/cfsengineering/pentagrow/reconcile"
	"github.com/cfsengineering/pentagrow/shell"
	"github.com/cfsengineering/pentagrow/tetgen"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func main() {
	passFlag := flag.String("pass", "", "override the Pass config key: first, second, or both")
	verbose := flag.Bool("verbose", true, "print progress and diagnostics")
	flag.Parse()

	if len(flag.Args()) < 1 {
		chk.Panic("Please, provide a wall-mesh filename. Ex.: wing.stl [config.cfg]")
	}
	wallPath := flag.Arg(0)
	var cfgPath string
	if len(flag.Args()) > 1 {
		cfgPath = flag.Arg(1)
	}

	defer func() {
		if err := recover(); err != nil {
			io.PfRed("ERROR: %v\n", err)
			os.Exit(1)
		}
	}()

	if *verbose {
		io.PfWhite("\nPentagrow -- hybrid prism/tet volume mesh generator\n\n")
	}

	run(wallPath, cfgPath, *passFlag, *verbose)
}

func run(wallPath, cfgPath, passFlag string, verbose bool) {
	cfg := config.New()
	if cfgPath != "" {
		var err error
		cfg, err = config.Read(cfgPath)
		if err != nil {
			chk.Panic("cannot read config file %s: %v", cfgPath, err)
		}
	}

	pass := strings.ToLower(passFlag)
	if pass == "" {
		pass = strings.ToLower(cfg.Value("Pass", "both"))
	}

	diag := &perr.Diagnostics{}

	inFmt := meshio.ParseFormats(cfg.Value("InputFormat", ""))
	wt, err := meshio.ReadWall(wallPath, inFmt, 1e-6)
	if err != nil {
		chk.Panic("%v", err)
	}
	wt.Symmetric = cfg.Bool("Symmetry", false)
	wt.YPlane = cfg.Float("YPlaneCut", 0)

	g, err := graph.Build(wt, 1e-6)
	if err != nil {
		chk.Panic("%v", err)
	}
	if err := g.RequireClosed(); err != nil {
		chk.Panic("%v", err)
	}

	sp := shell.DefaultParams()
	sp.HeightIterations = cfg.Int("HeightIterations", sp.HeightIterations)
	sp.NormalIterations = cfg.Int("NormalIterations", sp.NormalIterations)
	sp.MaxCritIterations = cfg.Int("MaxCritIterations", sp.MaxCritIterations)
	sp.LaplaceIterations = cfg.Int("LaplaceIterations", sp.LaplaceIterations)
	sp.FirstLayerThickness = cfg.Float("FirstLayerThickness", sp.FirstLayerThickness)
	sp.GrowthRatio = cfg.Float("GrowthRatio", sp.GrowthRatio)
	sp.LayerCount = cfg.Int("LayerCount", sp.LayerCount)
	sp.CurvatureScale = cfg.Float("CurvatureScale", sp.CurvatureScale)
	sp.ConcavityScale = cfg.Float("ConcavityScale", sp.ConcavityScale)

	fields := shell.Build(g, sp)
	diag.EnvelopeInfeasible = fields.Infeasible

	ep := envelope.DefaultParams()
	ep.Algorithm = cfg.Value("OptimizerAlgorithm", ep.Algorithm)
	ep.MaxIter = cfg.Int("OptimizerMaxIter", ep.MaxIter)
	ep.Tol = cfg.Float("OptimizerTol", ep.Tol)

	backend, err := envelope.NewNLoptBackend(3*len(g.Wall.Nodes), ep.Algorithm, ep.MaxIter, ep.Tol)
	if err != nil {
		chk.Panic("cannot create optimizer backend: %v", err)
	}
	defer backend.Destroy()

	envResult, err := envelope.Optimize(g, fields, ep, backend)
	if err != nil {
		chk.Panic("%v", err)
	}
	if envResult.Failed {
		diag.OptimizerFailed = true
		diag.OptimizerStatus = envResult.Status
	}

	envelopeMesh := &meshio.WallMesh{Nodes: envResult.Envelope, Triangles: g.Wall.Triangles}

	tp := tetgen.DefaultParams()
	tp.FarfieldRadius = cfg.Float("FarfieldRadius", tp.FarfieldRadius)
	tp.FarfieldSubdivision = cfg.Int("FarfieldSubdivision", tp.FarfieldSubdivision)
	tp.FarfieldCenter = cfg.Vec3("FarfieldCenter", tp.FarfieldCenter)
	tp.NearfieldEdgeLength = cfg.Float("NearfieldEdgeLength", tp.NearfieldEdgeLength)
	tp.NearfieldCenter = cfg.Vec3("NearfieldCenter", tp.NearfieldCenter)
	tp.NearfieldSemiAxes = cfg.Vec3("NearfieldSemiAxes", tp.NearfieldSemiAxes)
	tp.HolePositions = cfg.Vec3List("HolePosition")
	tp.MaxGlobalEdgeLength = cfg.Float("MaxGlobalEdgeLength", tp.MaxGlobalEdgeLength)
	tp.MaxSteinerPoints = cfg.Int("MaxSteinerPoints", tp.MaxSteinerPoints)
	tp.TetgenOptions = cfg.Value("TetgenOptions", tp.TetgenOptions)
	tp.TetgenPath = cfg.Value("TetgenPath", tp.TetgenPath)
	tp.Symmetric = wt.Symmetric
	tp.YPlane = wt.YPlane

	basePath := filepath.Join(filepath.Dir(wallPath), "boundaries")

	res1, err := tetgen.RunFirstPass(envelopeMesh, nil, tp, basePath)
	if err != nil {
		chk.Panic("%v", err)
	}
	tetMesh := res1.Mesh
	farTagBase := res1.FarTagBase

	growthFactor := cfg.Float("TetGrowthFactor", 1.0)
	if pass != "first" && growthFactor > 1 {
		if growthFactor < 1.21 || growthFactor > 1.6 {
			io.Pfyel("warning: TetGrowthFactor %.3f outside the recommended [1.21, 1.6] range\n", growthFactor)
		}
		refiner := metric.DefaultRefiner()
		refiner.GrowthFactor = growthFactor
		lengths := refiner.EdgeLengths(tetMesh)
		if err := metric.WriteMetricFile(basePath+".1.mtr", lengths); err != nil {
			chk.Panic("%v", err)
		}
		res2, err := tetgen.RunSecondPass(tp, basePath)
		if err != nil {
			chk.Panic("%v", err)
		}
		tetMesh = res2.Mesh
		farTagBase = res2.FarTagBase
	}

	if pass == "first" {
		if verbose {
			io.Pf("first pass only: %d nodes, %d tets (no prism layer assembled)\n", len(tetMesh.Nodes), len(tetMesh.Tets))
		}
		return
	}

	rec, err := reconcile.Reconcile(tetMesh, g, envResult.Envelope, reconcile.TagRange{FarTagBase: farTagBase}, 1e-4)
	if err != nil {
		chk.Panic("%v", err)
	}

	pp := prism.DefaultParams()
	pp.SplineNormals = cfg.Bool("SplineNormals", pp.SplineNormals)

	hybrid, err := prism.Assemble(g, fields, sp, tetMesh, rec.WallToTetNode, pp, diag)
	if err != nil {
		chk.Panic("%v", err)
	}

	outFmt := meshio.ParseFormats(cfg.Value("OutputFormat", "native"))
	outBase := strings.TrimSuffix(wallPath, filepath.Ext(wallPath)) + ".hybrid"
	if err := meshio.WriteHybrid(outBase, outFmt, hybrid); err != nil {
		chk.Panic("%v", err)
	}

	if verbose {
		io.Pf("wrote %d nodes, %d pentahedra, %d tets to %s.*\n",
			len(hybrid.Nodes), len(hybrid.Pentahedra), len(hybrid.Tets), outBase)
		if diag.HasIssues() {
			io.Pfyel("diagnostics: %s\n", formatDiagnostics(diag))
		}
	}
}

func formatDiagnostics(d *perr.Diagnostics) string {
	return fmt.Sprintf("infeasible=%d optimizerFailed=%v(%s) tangled=%d splineFallbacks=%d",
		len(d.EnvelopeInfeasible), d.OptimizerFailed, d.OptimizerStatus, d.TangledElements, len(d.SplineFallbackColumns))
}
