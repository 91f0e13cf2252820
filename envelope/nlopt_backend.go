// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envelope

import (
	"github.com/cfsengineering/pentagrow/perr"
	"github.com/go-nlopt/nlopt"
)

// NLoptBackend wraps github.com/go-nlopt/nlopt, selected per
// original_source/frontend.cpp's `#ifdef HAVE_NLOPT` conditional compile:
// the original tool already treats NLopt as its optional constrained-NLP
// backend, so this is the direct Go equivalent rather than a hand-rolled
// solver.
type NLoptBackend struct {
	opt *nlopt.NLopt
	dim int
}

// NewNLoptBackend constructs a Backend for a dim-dimensional problem using
// the named algorithm ("mma" or "slsqp", per §6's OptimizerAlgorithm key).
func NewNLoptBackend(dim int, algorithm string, maxIter int, tol float64) (*NLoptBackend, error) {
	alg := nlopt.LD_MMA
	if algorithm == "slsqp" {
		alg = nlopt.LD_SLSQP
	}
	opt, err := nlopt.NewNLopt(alg, uint(dim))
	if err != nil {
		return nil, perr.Wrap(perr.OptimizerFailed, err, "cannot create nlopt optimizer")
	}
	if err := opt.SetMaxEval(maxIter); err != nil {
		return nil, perr.Wrap(perr.OptimizerFailed, err, "cannot set nlopt max eval")
	}
	if err := opt.SetXtolRel(tol); err != nil {
		return nil, perr.Wrap(perr.OptimizerFailed, err, "cannot set nlopt tolerance")
	}
	return &NLoptBackend{opt: opt, dim: dim}, nil
}

func (b *NLoptBackend) SetBounds(lo, hi []float64) error {
	if err := b.opt.SetLowerBounds(lo); err != nil {
		return err
	}
	return b.opt.SetUpperBounds(hi)
}

func (b *NLoptBackend) SetObjective(f func(x, grad []float64) float64) error {
	return b.opt.SetMinObjective(func(x, grad []float64) float64 {
		return f(x, grad)
	})
}

func (b *NLoptBackend) AddInequalityConstraint(g func(x, grad []float64) float64, tol float64) error {
	return b.opt.AddInequalityConstraint(func(x, grad []float64) float64 {
		// NLopt does not zero grad between calls; eval (constraints.go)
		// only ever writes a handful of entries per call and relies on the
		// rest of the buffer already being zero.
		for i := range grad {
			grad[i] = 0
		}
		return g(x, grad)
	}, tol)
}

func (b *NLoptBackend) Minimize(x0 []float64) (xopt []float64, status string, err error) {
	input := make([]float64, len(x0))
	copy(input, x0)
	xopt, _, err = b.opt.Optimize(input)
	if err != nil {
		return x0, "failed", perr.Wrap(perr.OptimizerFailed, err, "nlopt optimization failed")
	}
	return xopt, "converged", nil
}

// Destroy releases the underlying C++ optimizer object. Callers that build
// a Backend per Optimize call should defer this.
func (b *NLoptBackend) Destroy() {
	b.opt.Destroy()
}
