// Package session owns all cook state: the temperature series, stall
// classification, fitted model, alert ledger and user-action log. A single
// consumer goroutine drives it; nothing here is safe for concurrent use.
package session

import (
	"time"

	"pitwatch/internal/alert"
	"pitwatch/internal/estimate"
	"pitwatch/internal/fit"
	"pitwatch/internal/models"
	"pitwatch/internal/series"
	"pitwatch/internal/stall"
)

// Limits on the user-action suppression log.
const (
	maxActions   = 100
	actionMaxAge = 2 * time.Hour
)

// Config assembles everything a new session needs.
type Config struct {
	Meta      models.SessionMeta
	Retention time.Duration
	Fitter    fit.Fitter
	Estimator estimate.Config
	Alerts    alert.Config
}

// Session is the aggregate created once at cook start and mutated only by
// the consumer loop.
type Session struct {
	meta      models.SessionMeta
	series    *series.Series
	detector  *stall.Detector
	estimator *estimate.Estimator
	engine    *alert.Engine

	actions    []models.UserAction
	lastSample time.Time
}

// New starts a fresh session.
func New(cfg Config) *Session {
	return &Session{
		meta:      cfg.Meta,
		series:    series.New(cfg.Retention),
		detector:  stall.New(),
		estimator: estimate.New(cfg.Fitter, cfg.Estimator, cfg.Meta.StartedAt, cfg.Meta.TargetMeatF),
		engine:    alert.New(cfg.Alerts),
	}
}

// Meta returns the cook setup.
func (s *Session) Meta() models.SessionMeta { return s.meta }

// Ingest appends one reading and runs the full pipeline: series append,
// stall update, throttled model fit, alert evaluation. An out-of-order
// reading is rejected without touching any derived state; the caller gets
// series.ErrOutOfOrder and no alerts.
func (s *Session) Ingest(r models.TemperatureReading, now time.Time) ([]models.Alert, error) {
	if err := s.series.Append(r); err != nil {
		return nil, err
	}
	s.lastSample = r.Time

	stallState := s.detector.Update(s.series)
	s.estimator.TryFit(s.series, now)

	obs := alert.Observation{}
	if pit, ok := s.series.Latest(models.RolePit); ok {
		obs.PitF, obs.HasPit = pit.Fahrenheit, true
	}
	if meat, ok := s.series.Latest(models.RoleMeat); ok {
		obs.MeatF, obs.HasMeat = meat.Fahrenheit, true
	}

	targets := alert.Targets{PitF: s.meta.TargetPitF, MeatF: s.meta.TargetMeatF}
	return s.engine.Evaluate(obs, stallState, now, s.actions, targets), nil
}

// AddAction appends a user note to the bounded suppression log.
func (s *Session) AddAction(note string, now time.Time) {
	s.actions = append(s.actions, models.UserAction{Time: now, Note: note})
	cutoff := now.Add(-actionMaxAge)
	i := 0
	for i < len(s.actions) && s.actions[i].Time.Before(cutoff) {
		i++
	}
	if over := len(s.actions) - i - maxActions; over > 0 {
		i += over
	}
	if i > 0 {
		s.actions = append(s.actions[:0:0], s.actions[i:]...)
	}
}

// Actions returns the recent user-action log, oldest first.
func (s *Session) Actions() []models.UserAction {
	out := make([]models.UserAction, len(s.actions))
	copy(out, s.actions)
	return out
}

// StallState returns the current classification.
func (s *Session) StallState() models.StallState { return s.detector.State() }

// Model returns the current model state.
func (s *Session) Model() models.ModelState { return s.estimator.State() }

// LastSample returns the time of the most recent accepted reading, zero if
// none yet.
func (s *Session) LastSample() time.Time { return s.lastSample }

// Status assembles the read-only context bundle for outside consumers.
func (s *Session) Status(now time.Time, recentAlerts []models.Alert) models.StatusBundle {
	current := make(map[models.ProbeRole]models.TemperatureReading)
	for _, role := range []models.ProbeRole{models.RolePit, models.RoleMeat, models.RoleAmbient} {
		if r, ok := s.series.Latest(role); ok {
			current[role] = r
		}
	}
	return models.StatusBundle{
		Meta:         s.meta,
		Current:      current,
		Stall:        s.detector.State(),
		Model:        s.estimator.State(),
		RecentAlerts: recentAlerts,
		Actions:      s.Actions(),
		CookHours:    now.Sub(s.meta.StartedAt).Hours(),
		GeneratedAt:  now,
	}
}
