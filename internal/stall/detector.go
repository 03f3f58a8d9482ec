// Package stall classifies the meat-temperature curve against Henderson's
// criterion: the cook is stalled when the normalized rate of change
// |α| = |T'/T| stays within 0.03 h⁻¹ while the meat sits in the 150-170°F
// band.
package stall

import (
	"math"

	"pitwatch/internal/models"
	"pitwatch/internal/series"
)

const (
	// AlphaLimit is the Henderson threshold, h⁻¹.
	AlphaLimit = 0.03

	stallBandLowF    = 150.0
	stallBandHighF   = 170.0
	approachingLowF  = 140.0
	minWindowSamples = 3
)

// Detector tracks the stall lifecycle for one session. RESOLVED is
// terminal: once the meat has climbed out of a detected stall the state
// never reverts.
type Detector struct {
	state models.StallState
}

// New returns a detector in INSUFFICIENT_DATA.
func New() *Detector {
	return &Detector{state: models.StallInsufficientData}
}

// Restore seeds the detector from a snapshot.
func Restore(state models.StallState) *Detector {
	if state == "" {
		state = models.StallInsufficientData
	}
	return &Detector{state: state}
}

// State returns the current classification without updating it.
func (d *Detector) State() models.StallState { return d.state }

// Update reclassifies from the meat sub-series and returns the new state.
// Fewer than three accepted samples leave the prior state untouched and
// report INSUFFICIENT_DATA only before any classification has been made.
func (d *Detector) Update(s *series.Series) models.StallState {
	win := s.Tail(models.RoleMeat, minWindowSamples)
	if len(win) < minWindowSamples {
		return d.state
	}

	tPrev, t0, tNext := win[0], win[1], win[2]
	if t0.Fahrenheit <= 0 {
		// pathological sample, keep prior state
		return d.state
	}

	span := tNext.Time.Sub(tPrev.Time).Hours()
	if span <= 0 {
		// α undefined: classify on temperature band alone
		d.state = d.classify(t0.Fahrenheit, math.Inf(1))
		return d.state
	}

	// centered finite difference, °F per hour
	rate := (tNext.Fahrenheit - tPrev.Fahrenheit) / span
	alpha := rate / t0.Fahrenheit

	d.state = d.classify(t0.Fahrenheit, alpha)
	return d.state
}

func (d *Detector) classify(tempF, alpha float64) models.StallState {
	if d.state == models.StallResolved {
		return models.StallResolved
	}
	switch {
	case tempF > stallBandHighF:
		if d.state == models.Stalled {
			return models.StallResolved
		}
		// above the band without a detected stall: still climbing
		return models.StallApproaching
	case tempF >= stallBandLowF:
		if math.Abs(alpha) <= AlphaLimit {
			return models.Stalled
		}
		return models.StallApproaching
	case tempF >= approachingLowF:
		return models.StallApproaching
	default:
		return models.StallBelowRange
	}
}
