// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envelope

// StepperBackend is a deterministic projected-gradient-descent Backend,
// used in place of NLoptBackend where linking the NLopt cgo dependency
// isn't wanted (unit tests). It ignores the registered inequality
// constraints' curvature and simply projects each step back into bounds
// and re-evaluates the constraints as a penalty, which is enough to
// exercise Optimize's wiring without a real QP/MMA solve.
type StepperBackend struct {
	lo, hi      []float64
	obj         func(x, grad []float64) float64
	constraints []func(x, grad []float64) float64
	iters       int
	step        float64
}

// NewStepperBackend returns a StepperBackend running iters fixed steps of
// size step.
func NewStepperBackend(iters int, step float64) *StepperBackend {
	return &StepperBackend{iters: iters, step: step}
}

func (b *StepperBackend) SetBounds(lo, hi []float64) error {
	b.lo, b.hi = lo, hi
	return nil
}

func (b *StepperBackend) SetObjective(f func(x, grad []float64) float64) error {
	b.obj = f
	return nil
}

func (b *StepperBackend) AddInequalityConstraint(g func(x, grad []float64) float64, tol float64) error {
	b.constraints = append(b.constraints, g)
	return nil
}

func (b *StepperBackend) Minimize(x0 []float64) (xopt []float64, status string, err error) {
	x := make([]float64, len(x0))
	copy(x, x0)
	grad := make([]float64, len(x0))
	cgrad := make([]float64, len(x0))

	for it := 0; it < b.iters; it++ {
		for k := range grad {
			grad[k] = 0
		}
		b.obj(x, grad)

		for _, c := range b.constraints {
			for k := range cgrad {
				cgrad[k] = 0
			}
			val := c(x, cgrad)
			if val > 0 { // infeasible: add a penalty gradient pulling back
				for k := range grad {
					grad[k] += val * cgrad[k]
				}
			}
		}

		for k := range x {
			x[k] -= b.step * grad[k]
			if x[k] < b.lo[k] {
				x[k] = b.lo[k]
			}
			if x[k] > b.hi[k] {
				x[k] = b.hi[k]
			}
		}
	}

	return x, "stepped", nil
}
