// Package estimate fits a five-parameter logistic to the pre-stall heating
// curve and inverts it for the wrap- and finish-time estimates.
package estimate

import (
	"math"
	"time"

	"pitwatch/internal/fit"
	"pitwatch/internal/models"
	"pitwatch/internal/series"
)

// WrapTempF is the wrap milestone: the meat temperature at which the cook
// is typically wrapped to push through the stall.
const WrapTempF = 150.0

// Config tunes the estimator.
type Config struct {
	Window     time.Duration // fit window looking back from now
	MinSamples int           // minimum points below WrapTempF inside the window
	Interval   time.Duration // minimum spacing between fit attempts
	MaxRMSE    float64       // reject fits that do not describe the window
}

// DefaultConfig mirrors the production cadence: one attempt per minute over
// the trailing hour.
func DefaultConfig() Config {
	return Config{
		Window:     time.Hour,
		MinSamples: 5,
		Interval:   time.Minute,
		MaxRMSE:    5.0,
	}
}

// Estimator owns ModelState. Only post-stall-free (< 150°F) samples feed
// the regression; later data would bias the curve.
type Estimator struct {
	fitter      fit.Fitter
	cfg         Config
	start       time.Time
	targetMeatF float64

	state       models.ModelState
	lastAttempt time.Time
}

// New builds an estimator for a cook started at start. Pass fit.Disabled{}
// for deployments without the numerical solver; the estimator then always
// reports UNAVAILABLE.
func New(f fit.Fitter, cfg Config, start time.Time, targetMeatF float64) *Estimator {
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	if cfg.MinSamples < 3 {
		cfg.MinSamples = 3
	}
	if cfg.MaxRMSE <= 0 {
		cfg.MaxRMSE = 5.0
	}
	return &Estimator{
		fitter:      f,
		cfg:         cfg,
		start:       start,
		targetMeatF: targetMeatF,
		state:       models.ModelState{Freshness: models.ModelUnavailable},
	}
}

// Restore seeds the estimator from a snapshot.
func Restore(f fit.Fitter, cfg Config, start time.Time, targetMeatF float64, state models.ModelState) *Estimator {
	e := New(f, cfg, start, targetMeatF)
	if state.Freshness != "" {
		e.state = state
	}
	return e
}

// State returns the current model state without attempting a fit.
func (e *Estimator) State() models.ModelState { return e.state }

// TryFit refreshes the model from the meat sub-series. Attempts are
// throttled to one per configured interval; between attempts the previous
// state is returned unchanged. Fit failures never propagate: the model
// degrades to STALE (or UNAVAILABLE if it never converged).
func (e *Estimator) TryFit(s *series.Series, now time.Time) models.ModelState {
	if !e.lastAttempt.IsZero() && now.Sub(e.lastAttempt) < e.cfg.Interval {
		return e.state
	}
	e.lastAttempt = now

	win := e.window(s, now)
	if len(win) < e.cfg.MinSamples {
		e.degrade()
		return e.state
	}

	t := make([]float64, len(win))
	y := make([]float64, len(win))
	for i, r := range win {
		t[i] = r.Time.Sub(e.start).Hours()
		y[i] = r.Fahrenheit
	}

	params, err := e.fitter.Fit(logistic5, t, y, e.initialGuess(t, y))
	if err != nil {
		e.degrade()
		return e.state
	}

	p := models.LogisticParams{D: params[0], K: params[1], Rate: params[2], Lambda: params[3], Gamma: params[4]}
	rmse := rmse(params, t, y)
	if !plausible(p) || rmse > e.cfg.MaxRMSE {
		e.degrade()
		return e.state
	}

	e.state = models.ModelState{
		Params:    &p,
		FittedAt:  now,
		Freshness: models.ModelFresh,
		RMSE:      rmse,
		WrapETA:   e.invert(p, WrapTempF, now),
		FinishETA: e.invert(p, e.targetMeatF, now),
	}
	return e.state
}

// window selects meat samples still on the pre-stall curve.
func (e *Estimator) window(s *series.Series, now time.Time) []models.TemperatureReading {
	var out []models.TemperatureReading
	for _, r := range s.Window(models.RoleMeat, now.Add(-e.cfg.Window)) {
		if r.Fahrenheit < WrapTempF {
			out = append(out, r)
		}
	}
	return out
}

// degrade keeps the last successful prediction but stops calling it fresh.
// A disabled solver keeps the model UNAVAILABLE outright.
func (e *Estimator) degrade() {
	if _, disabled := e.fitter.(fit.Disabled); disabled || e.state.Params == nil {
		e.state.Freshness = models.ModelUnavailable
		return
	}
	e.state.Freshness = models.ModelStale
}

// initialGuess seeds the solver from the data: asymptotes from the window
// and target, growth rate and inflection from the steepest observed
// segment (a symmetric logistic peaks at rate*(K-D)/4 at its inflection).
func (e *Estimator) initialGuess(t, y []float64) []float64 {
	d := y[0]
	for _, v := range y {
		if v < d {
			d = v
		}
	}
	k := e.targetMeatF
	if k <= d+1 {
		k = d + 100
	}

	steepest := 0.0
	lambda := t[len(t)/2]
	for i := 1; i < len(t); i++ {
		dt := t[i] - t[i-1]
		if dt <= 0 {
			continue
		}
		slope := (y[i] - y[i-1]) / dt
		if slope > steepest {
			steepest = slope
			lambda = (t[i] + t[i-1]) / 2
		}
	}
	rate := 1.0
	if steepest > 0 {
		rate = clamp(4*steepest/(k-d), 0.1, 100)
	}
	return []float64{d, k, rate, lambda, 1.0}
}

// invert solves T(t) = target analytically and rejects solutions in the
// past or outside the curve's range.
func (e *Estimator) invert(p models.LogisticParams, targetF float64, now time.Time) *time.Time {
	if targetF <= p.D || targetF >= p.K {
		return nil
	}
	base := math.Pow((p.K-p.D)/(targetF-p.D), 1/p.Gamma) - 1
	if base <= 0 {
		return nil
	}
	tHours := p.Lambda - math.Log(base)/p.Rate
	if math.IsNaN(tHours) || math.IsInf(tHours, 0) {
		return nil
	}
	eta := e.start.Add(time.Duration(tHours * float64(time.Hour)))
	if eta.Before(now) {
		return nil
	}
	return &eta
}

// logistic5 is the 5PL curve over cook hours:
// T(t) = D + (K-D) / (1 + exp(-rate*(t-lambda)))^gamma.
func logistic5(params []float64, t float64) float64 {
	d, k, rate, lambda, gamma := params[0], params[1], params[2], params[3], params[4]
	return d + (k-d)/math.Pow(1+math.Exp(-rate*(t-lambda)), gamma)
}

func plausible(p models.LogisticParams) bool {
	return p.K > p.D && p.Rate > 0 && p.Gamma > 0
}

func rmse(params, t, y []float64) float64 {
	var sum float64
	for i := range t {
		r := y[i] - logistic5(params, t[i])
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(t)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
