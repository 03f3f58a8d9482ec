package models

import "time"

// StallState classifies where the cook is relative to the stall.
type StallState string

const (
	StallInsufficientData StallState = "INSUFFICIENT_DATA"
	StallBelowRange       StallState = "BELOW_RANGE"
	StallApproaching      StallState = "APPROACHING"
	Stalled               StallState = "STALLED"
	StallResolved         StallState = "RESOLVED" // terminal for the session
)

// ModelFreshness describes how trustworthy the fitted curve is.
type ModelFreshness string

const (
	ModelFresh       ModelFreshness = "FRESH"
	ModelStale       ModelFreshness = "STALE"
	ModelUnavailable ModelFreshness = "UNAVAILABLE"
)

// LogisticParams holds the fitted five-parameter logistic curve
// T(t) = D + (K-D) / (1 + exp(-Rate*(t-Lambda)))^Gamma, t in cook hours.
type LogisticParams struct {
	D      float64 `json:"d"`      // lower asymptote, °F
	K      float64 `json:"k_cap"`  // upper asymptote, °F
	Rate   float64 `json:"k"`      // growth rate, h⁻¹
	Lambda float64 `json:"lambda"` // inflection offset, cook hours
	Gamma  float64 `json:"gamma"`  // asymmetry
}

// ModelState is the estimator output. Mutated only by the estimator.
type ModelState struct {
	Params    *LogisticParams `json:"params,omitempty"`
	FittedAt  time.Time       `json:"fitted_at,omitempty"`
	Freshness ModelFreshness  `json:"freshness"`
	RMSE      float64         `json:"rmse,omitempty"`
	WrapETA   *time.Time      `json:"wrap_eta,omitempty"`   // 150°F crossing
	FinishETA *time.Time      `json:"finish_eta,omitempty"` // target meat temp crossing
}
