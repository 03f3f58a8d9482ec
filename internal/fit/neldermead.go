package fit

import (
	"math"
	"time"

	"gonum.org/v1/gonum/optimize"
)

// DefaultBudget bounds one solver run so a degenerate fit cannot stall the
// consumption loop.
const DefaultBudget = 2 * time.Second

const maxFuncEvals = 50000

// NelderMead is the real Fitter, a derivative-free simplex search over the
// sum of squared residuals.
type NelderMead struct {
	Budget time.Duration
}

// NewNelderMead returns a fitter with the given time budget per Fit call.
// A non-positive budget falls back to DefaultBudget.
func NewNelderMead(budget time.Duration) *NelderMead {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &NelderMead{Budget: budget}
}

// Fit minimizes the squared residuals of curve against the samples.
// Hitting the runtime budget counts as non-convergence.
func (f *NelderMead) Fit(curve Curve, t, y, init []float64) ([]float64, error) {
	if len(t) != len(y) || len(t) == 0 || len(init) == 0 {
		return nil, ErrNoConvergence
	}

	sse := func(params []float64) float64 {
		var sum float64
		for i := range t {
			r := y[i] - curve(params, t[i])
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return math.MaxFloat64
			}
			sum += r * r
		}
		return sum
	}

	problem := optimize.Problem{Func: sse}
	settings := &optimize.Settings{
		Runtime:         f.Budget,
		FuncEvaluations: maxFuncEvals,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Iterations: 100,
		},
	}

	x0 := append([]float64(nil), init...)
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, ErrNoConvergence
	}
	if result.Status == optimize.RuntimeLimit {
		return nil, ErrNoConvergence
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNoConvergence
		}
	}
	return result.X, nil
}
