package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pitwatch/internal/alert"
	"pitwatch/internal/estimate"
	"pitwatch/internal/models"
	"pitwatch/internal/series"
	"pitwatch/internal/stall"
)

// ErrIncompatibleSnapshot marks a snapshot whose version or shape this
// implementation cannot load. Restore refuses rather than partially
// loading; the caller decides whether to start fresh.
var ErrIncompatibleSnapshot = errors.New("session: incompatible snapshot")

// Snapshot captures the full session: series, stall state, model state with
// predictions, alert cooldown ledger, suppression and the action log.
func (s *Session) Snapshot(now time.Time) models.SnapshotV1 {
	return models.SnapshotV1{
		Version:    models.SnapshotVersion,
		Meta:       s.meta,
		Readings:   s.series.All(),
		Stall:      s.detector.State(),
		Model:      s.estimator.State(),
		Alerts:     s.engine.Records(),
		Actions:    s.Actions(),
		Suppress:   s.engine.Suppression(),
		TakenAt:    now,
		LastSample: s.lastSample,
	}
}

// MarshalSnapshot serializes a snapshot document.
func MarshalSnapshot(doc models.SnapshotV1) ([]byte, error) {
	return json.Marshal(doc)
}

// UnmarshalSnapshot parses and version-checks a snapshot document.
func UnmarshalSnapshot(raw []byte) (models.SnapshotV1, error) {
	var doc models.SnapshotV1
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.SnapshotV1{}, fmt.Errorf("%w: %v", ErrIncompatibleSnapshot, err)
	}
	if doc.Version != models.SnapshotVersion {
		return models.SnapshotV1{}, fmt.Errorf("%w: version %d, want %d",
			ErrIncompatibleSnapshot, doc.Version, models.SnapshotVersion)
	}
	return doc, nil
}

// Restore rebuilds a session from a snapshot so that cooldown windows,
// stall state and model predictions behave exactly as in an uninterrupted
// run. It validates fully before constructing; a bad document never leaves
// a half-built session behind.
func Restore(doc models.SnapshotV1, cfg Config) (*Session, error) {
	if doc.Version != models.SnapshotVersion {
		return nil, fmt.Errorf("%w: version %d, want %d",
			ErrIncompatibleSnapshot, doc.Version, models.SnapshotVersion)
	}
	if doc.Meta.StartedAt.IsZero() {
		return nil, fmt.Errorf("%w: missing session start time", ErrIncompatibleSnapshot)
	}

	ser := series.New(cfg.Retention)
	for _, r := range doc.Readings {
		if err := ser.Append(r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIncompatibleSnapshot, err)
		}
	}

	s := &Session{
		meta:       doc.Meta,
		series:     ser,
		detector:   stall.Restore(doc.Stall),
		estimator:  estimate.Restore(cfg.Fitter, cfg.Estimator, doc.Meta.StartedAt, doc.Meta.TargetMeatF, doc.Model),
		engine:     alert.Restore(cfg.Alerts, doc.Alerts, doc.Stall, doc.Suppress, doc.Readings),
		actions:    append([]models.UserAction(nil), doc.Actions...),
		lastSample: doc.LastSample,
	}
	return s, nil
}
