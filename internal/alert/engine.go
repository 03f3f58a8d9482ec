// Package alert turns readings and derived cook state into rate-limited
// notification requests.
package alert

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"pitwatch/internal/models"
)

// Threshold constants, °F relative to the configured targets.
const (
	pitCrashDeltaF = 75.0
	pitSpikeDeltaF = 50.0
	doneSoonLowF   = 195.0
	doneSoonHighF  = 200.0
)

// Config tunes cooldown and decline suppression.
type Config struct {
	Cooldown       time.Duration // per-category re-fire floor
	DeclineWindow  time.Duration // trailing pit window for the slope
	DeclineRateF   float64       // °F per hour of sustained decline, positive number
	ActionLookback time.Duration // how far back a fuel note suppresses pit_crash
}

// DefaultConfig carries the production defaults: 15 min cooldown, 10 min
// decline window and action lookback.
func DefaultConfig() Config {
	return Config{
		Cooldown:       15 * time.Minute,
		DeclineWindow:  10 * time.Minute,
		DeclineRateF:   30.0,
		ActionLookback: 10 * time.Minute,
	}
}

// Targets are the cook setpoints the thresholds key off.
type Targets struct {
	PitF  float64
	MeatF float64
}

// fuelWords flags user notes that explain a pit decline ("added 10
// briquettes", "threw a log on").
var fuelWords = []string{
	"fuel", "charcoal", "briquette", "coal", "wood", "pellet", "log",
	"chimney", "lit ", "fire",
}

type pitSample struct {
	at time.Time
	f  float64
}

// Engine evaluates alert conditions for one session. Not safe for
// concurrent use; the consumer loop owns it.
type Engine struct {
	cfg     Config
	records map[models.AlertCategory]*models.AlertRecord

	prevStall models.StallState

	pitWindow []pitSample
	// suppression: set when a pit decline coincides with a recent fuel
	// note, cleared when the pit climbs out of the crash zone or the
	// lookback expires without recovery
	suppressedAt *time.Time
}

// New returns an engine with no alert history.
func New(cfg Config) *Engine {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Minute
	}
	if cfg.DeclineWindow <= 0 {
		cfg.DeclineWindow = 10 * time.Minute
	}
	if cfg.ActionLookback <= 0 {
		cfg.ActionLookback = 10 * time.Minute
	}
	return &Engine{
		cfg:       cfg,
		records:   make(map[models.AlertCategory]*models.AlertRecord),
		prevStall: models.StallInsufficientData,
	}
}

// Restore rebuilds an engine from snapshotted records so cooldown windows
// survive a restart. pitHistory replays persisted pit readings into the
// trailing slope window; without it an active suppression could not see a
// recovery until enough fresh samples arrive.
func Restore(cfg Config, records []models.AlertRecord, prevStall models.StallState, suppress *models.SuppressionState, pitHistory []models.TemperatureReading) *Engine {
	e := New(cfg)
	for _, r := range records {
		rec := r
		e.records[r.Category] = &rec
	}
	if prevStall != "" {
		e.prevStall = prevStall
	}
	if suppress != nil {
		at := suppress.ActionAt
		e.suppressedAt = &at
	}
	for _, r := range pitHistory {
		if r.Role == models.RolePit {
			e.observePit(r.Time, r.Fahrenheit)
		}
	}
	return e
}

// Records returns the cooldown ledger for snapshotting, one per category.
func (e *Engine) Records() []models.AlertRecord {
	out := make([]models.AlertRecord, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, *r)
	}
	return out
}

// PrevStall returns the last stall state seen, for snapshotting the
// edge-trigger baseline.
func (e *Engine) PrevStall() models.StallState { return e.prevStall }

// Suppression returns the active decline suppression, if any.
func (e *Engine) Suppression() *models.SuppressionState {
	if e.suppressedAt == nil {
		return nil
	}
	return &models.SuppressionState{ActionAt: *e.suppressedAt}
}

// Observation is the raw input for one evaluation: the latest value per
// role, if any has been seen yet.
type Observation struct {
	PitF    float64
	HasPit  bool
	MeatF   float64
	HasMeat bool
}

// Evaluate decides which categories trigger for this reading. Cooldown
// timestamps update at attempt time, atomically with the decision, so a
// failed delivery downstream cannot re-fire the category early.
func (e *Engine) Evaluate(obs Observation, stallState models.StallState, now time.Time, actions []models.UserAction, targets Targets) []models.Alert {
	var out []models.Alert

	if obs.HasPit {
		e.observePit(now, obs.PitF)

		if obs.PitF < targets.PitF-pitCrashDeltaF {
			if e.allowPitCrash(now, actions) {
				out = e.attempt(out, models.AlertPitCrash, now,
					fmt.Sprintf("Pit crashed to %.0f°F - add fuel NOW", obs.PitF))
			}
		} else {
			// back out of the crash zone; any held episode is over
			e.suppressedAt = nil
		}
		if obs.PitF > targets.PitF+pitSpikeDeltaF {
			out = e.attempt(out, models.AlertPitSpike, now,
				fmt.Sprintf("Pit spiked to %.0f°F - close vents", obs.PitF))
		}
	}

	// stall is edge-triggered: only the transition into STALLED fires
	if stallState == models.Stalled && e.prevStall != models.Stalled {
		msg := "Stall detected - wrap now?"
		if obs.HasMeat {
			msg = fmt.Sprintf("Stall detected at %.0f°F - wrap now?", obs.MeatF)
		}
		out = e.attempt(out, models.AlertStall, now, msg)
	}
	e.prevStall = stallState

	if obs.HasMeat {
		if obs.MeatF >= doneSoonLowF && obs.MeatF < doneSoonHighF {
			out = e.attempt(out, models.AlertDoneSoon, now,
				fmt.Sprintf("Almost done! Meat at %.0f°F", obs.MeatF))
		}
		if obs.MeatF >= targets.MeatF {
			out = e.attempt(out, models.AlertDone, now,
				fmt.Sprintf("DONE - meat hit %.0f°F", obs.MeatF))
		}
	}

	return out
}

// attempt applies the per-category cooldown and records the attempt.
func (e *Engine) attempt(out []models.Alert, cat models.AlertCategory, now time.Time, msg string) []models.Alert {
	rec, ok := e.records[cat]
	if !ok {
		rec = &models.AlertRecord{Category: cat}
		e.records[cat] = rec
	}
	if !rec.LastAttempt.IsZero() && now.Sub(rec.LastAttempt) <= e.cfg.Cooldown {
		return out
	}
	rec.LastAttempt = now
	return append(out, models.Alert{Category: cat, Message: msg, At: now})
}

// observePit maintains the trailing pit window for the decline slope.
func (e *Engine) observePit(now time.Time, pitF float64) {
	e.pitWindow = append(e.pitWindow, pitSample{at: now, f: pitF})
	cutoff := now.Add(-e.cfg.DeclineWindow)
	i := 0
	for i < len(e.pitWindow) && e.pitWindow[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		e.pitWindow = append(e.pitWindow[:0:0], e.pitWindow[i:]...)
	}
}

// allowPitCrash applies decline suppression: a sustained decline right
// after the operator reported adding fuel is expected, so hold the alert.
// A recovering pit never alerts; the episode ends silently once the pit
// climbs back out of the crash zone. Only a decline that outlives the
// lookback without ever turning around fires after all.
func (e *Engine) allowPitCrash(now time.Time, actions []models.UserAction) bool {
	slope, ok := e.pitSlope()

	if e.suppressedAt != nil {
		if ok && slope > 0 {
			// the fuel is catching; keep waiting
			return false
		}
		if now.Sub(*e.suppressedAt) > e.cfg.ActionLookback {
			// the reported action never helped; alert after all
			e.suppressedAt = nil
			return true
		}
		return false
	}

	declining := ok && slope <= -e.cfg.DeclineRateF
	if !declining {
		return true
	}
	if at, found := recentFuelAction(actions, now, e.cfg.ActionLookback); found {
		e.suppressedAt = &at
		return false
	}
	return true
}

// pitSlope is the least-squares slope over the trailing window, °F/h.
func (e *Engine) pitSlope() (float64, bool) {
	n := len(e.pitWindow)
	if n < 2 {
		return 0, false
	}
	t0 := e.pitWindow[0].at
	hours := make([]float64, n)
	temps := make([]float64, n)
	for i, s := range e.pitWindow {
		hours[i] = s.at.Sub(t0).Hours()
		temps[i] = s.f
	}
	_, slope := stat.LinearRegression(hours, temps, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0, false
	}
	return slope, true
}

func recentFuelAction(actions []models.UserAction, now time.Time, lookback time.Duration) (time.Time, bool) {
	for i := len(actions) - 1; i >= 0; i-- {
		a := actions[i]
		if now.Sub(a.Time) > lookback {
			break
		}
		if mentionsFuel(a.Note) {
			return a.Time, true
		}
	}
	return time.Time{}, false
}

func mentionsFuel(note string) bool {
	note = strings.ToLower(note)
	for _, w := range fuelWords {
		if strings.Contains(note, w) {
			return true
		}
	}
	return false
}
