package session_test

import (
	"errors"
	"testing"
	"time"

	"pitwatch/internal/alert"
	"pitwatch/internal/estimate"
	"pitwatch/internal/fit"
	"pitwatch/internal/models"
	"pitwatch/internal/series"
	"pitwatch/internal/session"
)

var cookStart = time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

func testConfig() session.Config {
	return session.Config{
		Meta: models.SessionMeta{
			MeatType:    "brisket",
			WeightLbs:   12,
			TargetPitF:  225,
			TargetMeatF: 203,
			StartedAt:   cookStart,
		},
		Retention: series.DefaultRetention,
		Fitter:    fit.Disabled{},
		Estimator: estimate.DefaultConfig(),
		Alerts:    alert.DefaultConfig(),
	}
}

func ingest(t *testing.T, s *session.Session, offsetSec int, role models.ProbeRole, f float64) []models.Alert {
	t.Helper()
	at := cookStart.Add(time.Duration(offsetSec) * time.Second)
	alerts, err := s.Ingest(models.TemperatureReading{Time: at, Role: role, Fahrenheit: f}, at)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	return alerts
}

func TestSession_IngestRunsFullPipeline(t *testing.T) {
	s := session.New(testConfig())

	ingest(t, s, 0, models.RolePit, 224)
	ingest(t, s, 0, models.RoleMeat, 155.0)
	ingest(t, s, 600, models.RoleMeat, 155.5)
	alerts := ingest(t, s, 1200, models.RoleMeat, 156.0)

	if got := s.StallState(); got != models.Stalled {
		t.Fatalf("StallState() = %v, want STALLED", got)
	}
	if len(alerts) != 1 || alerts[0].Category != models.AlertStall {
		t.Fatalf("alerts = %+v, want the stall transition alert", alerts)
	}
	if got := s.Model().Freshness; got != models.ModelUnavailable {
		t.Fatalf("Model().Freshness = %v with disabled fitter, want UNAVAILABLE", got)
	}
}

func TestSession_OutOfOrderReadingLeavesStateUntouched(t *testing.T) {
	s := session.New(testConfig())

	ingest(t, s, 0, models.RoleMeat, 100)
	ingest(t, s, 600, models.RoleMeat, 101)

	at := cookStart.Add(300 * time.Second)
	alerts, err := s.Ingest(models.TemperatureReading{Time: at, Role: models.RoleMeat, Fahrenheit: 300}, at)
	if !errors.Is(err, series.ErrOutOfOrder) {
		t.Fatalf("Ingest() error = %v, want ErrOutOfOrder", err)
	}
	if alerts != nil {
		t.Fatalf("alerts = %+v from a rejected reading, want none", alerts)
	}
	if got := s.LastSample(); !got.Equal(cookStart.Add(600 * time.Second)) {
		t.Fatalf("LastSample() = %v, want the last accepted reading", got)
	}
}

func TestSession_SnapshotRestoreRoundTrip(t *testing.T) {
	cfg := testConfig()
	s := session.New(cfg)

	ingest(t, s, 0, models.RolePit, 224)
	ingest(t, s, 0, models.RoleMeat, 155.0)
	ingest(t, s, 600, models.RoleMeat, 155.5)
	ingest(t, s, 1200, models.RoleMeat, 156.0) // stall alert fires here
	s.AddAction("added charcoal", cookStart.Add(1300*time.Second))

	now := cookStart.Add(1400 * time.Second)
	raw, err := session.MarshalSnapshot(s.Snapshot(now))
	if err != nil {
		t.Fatalf("MarshalSnapshot() error = %v", err)
	}

	doc, err := session.UnmarshalSnapshot(raw)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot() error = %v", err)
	}
	restored, err := session.Restore(doc, cfg)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if got := restored.StallState(); got != models.Stalled {
		t.Fatalf("restored StallState() = %v, want STALLED", got)
	}
	if got := restored.Meta(); got.MeatType != "brisket" || !got.StartedAt.Equal(cookStart) {
		t.Fatalf("restored Meta() = %+v", got)
	}
	if got := restored.Actions(); len(got) != 1 || got[0].Note != "added charcoal" {
		t.Fatalf("restored Actions() = %+v", got)
	}
	if got := restored.LastSample(); !got.Equal(cookStart.Add(1200 * time.Second)) {
		t.Fatalf("restored LastSample() = %v", got)
	}

	// still stalled plus the consumed stall edge: no duplicate alert
	alerts := ingest(t, restored, 1800, models.RoleMeat, 156.3)
	for _, a := range alerts {
		if a.Category == models.AlertStall {
			t.Fatalf("restored session re-fired the stall alert: %+v", alerts)
		}
	}
}

func TestSession_RestoreKeepsCooldownWindows(t *testing.T) {
	cfg := testConfig()
	cfg.Alerts.Cooldown = 900 * time.Second
	s := session.New(cfg)

	alerts := ingest(t, s, 0, models.RolePit, 300)
	if len(alerts) != 1 || alerts[0].Category != models.AlertPitSpike {
		t.Fatalf("alerts = %+v, want pit_spike", alerts)
	}

	raw, _ := session.MarshalSnapshot(s.Snapshot(cookStart.Add(100 * time.Second)))
	doc, _ := session.UnmarshalSnapshot(raw)
	restored, err := session.Restore(doc, cfg)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	// within the cooldown window recorded before the restart
	if got := ingest(t, restored, 500, models.RolePit, 300); len(got) != 0 {
		t.Fatalf("alerts = %+v inside restored cooldown, want none", got)
	}
	if got := ingest(t, restored, 901, models.RolePit, 300); len(got) != 1 {
		t.Fatalf("alerts = %+v after restored cooldown, want pit_spike again", got)
	}
}

func TestSession_RestoreRejectsUnknownVersion(t *testing.T) {
	s := session.New(testConfig())
	doc := s.Snapshot(cookStart)
	doc.Version = 2

	if _, err := session.Restore(doc, testConfig()); !errors.Is(err, session.ErrIncompatibleSnapshot) {
		t.Fatalf("Restore() error = %v, want ErrIncompatibleSnapshot", err)
	}

	raw := []byte(`{"version":2,"meta":{"started_at":"2024-06-01T06:00:00Z"}}`)
	if _, err := session.UnmarshalSnapshot(raw); !errors.Is(err, session.ErrIncompatibleSnapshot) {
		t.Fatalf("UnmarshalSnapshot() error = %v, want ErrIncompatibleSnapshot", err)
	}
}

func TestSession_RestoreRejectsMissingStart(t *testing.T) {
	s := session.New(testConfig())
	doc := s.Snapshot(cookStart)
	doc.Meta.StartedAt = time.Time{}

	if _, err := session.Restore(doc, testConfig()); !errors.Is(err, session.ErrIncompatibleSnapshot) {
		t.Fatalf("Restore() error = %v, want ErrIncompatibleSnapshot", err)
	}
}

func TestSession_ActionLogIsBounded(t *testing.T) {
	s := session.New(testConfig())
	for i := 0; i < 150; i++ {
		s.AddAction("note", cookStart.Add(time.Duration(i)*time.Second))
	}
	if got := len(s.Actions()); got != 100 {
		t.Fatalf("Actions() length = %d, want the 100 newest", got)
	}

	// aged notes drop regardless of count
	s.AddAction("fresh", cookStart.Add(3*time.Hour))
	acts := s.Actions()
	if len(acts) != 1 || acts[0].Note != "fresh" {
		t.Fatalf("Actions() = %+v, want only the fresh note", acts)
	}
}

func TestSession_StatusBundle(t *testing.T) {
	s := session.New(testConfig())
	ingest(t, s, 0, models.RolePit, 224)
	ingest(t, s, 0, models.RoleMeat, 120)

	now := cookStart.Add(2 * time.Hour)
	b := s.Status(now, nil)

	if b.Current[models.RolePit].Fahrenheit != 224 || b.Current[models.RoleMeat].Fahrenheit != 120 {
		t.Fatalf("Current = %+v", b.Current)
	}
	if b.CookHours != 2 {
		t.Fatalf("CookHours = %v, want 2", b.CookHours)
	}
	if b.Meta.TargetMeatF != 203 {
		t.Fatalf("Meta = %+v", b.Meta)
	}
}
