// Package fit abstracts the nonlinear least-squares capability behind an
// interface so deployments without the numerical solver still run: the
// estimator is handed either the real gonum-backed fitter or the disabled
// one at construction time.
package fit

import "errors"

// ErrUnavailable is reported by the disabled fitter.
var ErrUnavailable = errors.New("fit: curve fitting unavailable")

// ErrNoConvergence is reported when the solver fails, exceeds its time
// budget, or lands on a solution that does not describe the data.
var ErrNoConvergence = errors.New("fit: no convergence")

// Curve evaluates a parameterized model at t.
type Curve func(params []float64, t float64) float64

// Fitter solves min over params of the sum of squared residuals of curve
// against the (t, y) samples, starting from init.
type Fitter interface {
	Fit(curve Curve, t, y, init []float64) ([]float64, error)
}

// Disabled is a Fitter for deployments without the numerical solver.
type Disabled struct{}

// Fit always reports ErrUnavailable.
func (Disabled) Fit(Curve, []float64, []float64, []float64) ([]float64, error) {
	return nil, ErrUnavailable
}
