package alert_test

import (
	"testing"
	"time"

	"pitwatch/internal/alert"
	"pitwatch/internal/models"
)

var t0 = time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)

func targets() alert.Targets { return alert.Targets{PitF: 225, MeatF: 203} }

func pitObs(f float64) alert.Observation { return alert.Observation{PitF: f, HasPit: true} }
func meatObs(f float64) alert.Observation { return alert.Observation{MeatF: f, HasMeat: true} }

func only(t *testing.T, alerts []models.Alert, cat models.AlertCategory) {
	t.Helper()
	if len(alerts) != 1 || alerts[0].Category != cat {
		t.Fatalf("alerts = %+v, want exactly one %s", alerts, cat)
	}
}

func none(t *testing.T, alerts []models.Alert) {
	t.Helper()
	if len(alerts) != 0 {
		t.Fatalf("alerts = %+v, want none", alerts)
	}
}

func TestEngine_CooldownSuppressesRefire(t *testing.T) {
	cfg := alert.DefaultConfig()
	cfg.Cooldown = 900 * time.Second
	e := alert.New(cfg)

	only(t, e.Evaluate(pitObs(300), models.StallApproaching, t0, nil, targets()), models.AlertPitSpike)
	none(t, e.Evaluate(pitObs(300), models.StallApproaching, t0.Add(500*time.Second), nil, targets()))
	only(t, e.Evaluate(pitObs(300), models.StallApproaching, t0.Add(901*time.Second), nil, targets()), models.AlertPitSpike)
}

func TestEngine_CooldownIsPerCategory(t *testing.T) {
	e := alert.New(alert.DefaultConfig())

	only(t, e.Evaluate(pitObs(300), models.StallApproaching, t0, nil, targets()), models.AlertPitSpike)

	// a different category fires immediately despite the spike cooldown
	obs := alert.Observation{PitF: 300, HasPit: true, MeatF: 196, HasMeat: true}
	only(t, e.Evaluate(obs, models.StallApproaching, t0.Add(time.Minute), nil, targets()), models.AlertDoneSoon)
}

func TestEngine_StallFiresOnTransitionOnly(t *testing.T) {
	cfg := alert.DefaultConfig()
	cfg.Cooldown = time.Second
	e := alert.New(cfg)

	none(t, e.Evaluate(meatObs(152), models.StallApproaching, t0, nil, targets()))
	only(t, e.Evaluate(meatObs(155), models.Stalled, t0.Add(time.Minute), nil, targets()), models.AlertStall)

	// still stalled: edge already consumed, no re-fire even past cooldown
	none(t, e.Evaluate(meatObs(155), models.Stalled, t0.Add(10*time.Minute), nil, targets()))
}

func TestEngine_DoneSoonAndDoneBands(t *testing.T) {
	cfg := alert.DefaultConfig()
	e := alert.New(cfg)

	only(t, e.Evaluate(meatObs(196), models.StallResolved, t0, nil, targets()), models.AlertDoneSoon)

	// past the done_soon band and at target: only done
	only(t, e.Evaluate(meatObs(204), models.StallResolved, t0.Add(20*time.Minute), nil, targets()), models.AlertDone)
}

func TestEngine_PitCrashFiresWithoutFuelNote(t *testing.T) {
	e := alert.New(alert.DefaultConfig())

	// crash threshold is 150°F for a 225°F target
	only(t, e.Evaluate(pitObs(140), models.StallApproaching, t0, nil, targets()), models.AlertPitCrash)
}

func TestEngine_DeclineAfterFuelNoteRecoversWithoutAlert(t *testing.T) {
	cfg := alert.DefaultConfig()
	cfg.DeclineWindow = 3 * time.Minute
	e := alert.New(cfg)
	actions := []models.UserAction{{Time: t0.Add(250 * time.Second), Note: "added half a chimney of charcoal"}}

	at := func(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

	// establish a steep decline, still above the crash threshold
	none(t, e.Evaluate(pitObs(220), models.StallApproaching, at(0), actions, targets()))
	none(t, e.Evaluate(pitObs(200), models.StallApproaching, at(120), actions, targets()))
	none(t, e.Evaluate(pitObs(170), models.StallApproaching, at(240), actions, targets()))

	// crosses the threshold while declining with a fresh fuel note: held back
	none(t, e.Evaluate(pitObs(140), models.StallApproaching, at(300), actions, targets()))
	none(t, e.Evaluate(pitObs(130), models.StallApproaching, at(360), actions, targets()))
	if e.Suppression() == nil {
		t.Fatal("Suppression() = nil, want active decline suppression")
	}

	// pit turns around: the fuel worked, so the whole episode stays silent
	none(t, e.Evaluate(pitObs(135), models.StallApproaching, at(420), actions, targets()))
	none(t, e.Evaluate(pitObs(145), models.StallApproaching, at(480), actions, targets()))
	if e.Suppression() == nil {
		t.Fatal("Suppression() = nil, want it held through the recovery")
	}

	// climbing out of the crash zone ends the episode without an alert
	none(t, e.Evaluate(pitObs(165), models.StallApproaching, at(540), actions, targets()))
	if e.Suppression() != nil {
		t.Fatal("Suppression() still active after the pit left the crash zone")
	}
}

func TestEngine_SuppressionExpiresWithLookback(t *testing.T) {
	cfg := alert.DefaultConfig()
	cfg.DeclineWindow = 3 * time.Minute
	cfg.ActionLookback = 10 * time.Minute
	e := alert.New(cfg)
	actions := []models.UserAction{{Time: t0.Add(250 * time.Second), Note: "threw a log on the fire"}}

	at := func(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

	none(t, e.Evaluate(pitObs(220), models.StallApproaching, at(0), actions, targets()))
	none(t, e.Evaluate(pitObs(180), models.StallApproaching, at(150), actions, targets()))
	none(t, e.Evaluate(pitObs(140), models.StallApproaching, at(300), actions, targets()))
	if e.Suppression() == nil {
		t.Fatal("Suppression() = nil, want active decline suppression")
	}

	// the pit keeps sliding; once the note goes stale the alert fires
	none(t, e.Evaluate(pitObs(138), models.StallApproaching, at(600), actions, targets()))
	none(t, e.Evaluate(pitObs(136), models.StallApproaching, at(750), actions, targets()))
	only(t, e.Evaluate(pitObs(134), models.StallApproaching, at(900), actions, targets()), models.AlertPitCrash)
}

func TestEngine_NonFuelNoteDoesNotSuppress(t *testing.T) {
	cfg := alert.DefaultConfig()
	cfg.DeclineWindow = 3 * time.Minute
	e := alert.New(cfg)
	actions := []models.UserAction{{Time: t0.Add(250 * time.Second), Note: "spritzed with apple juice"}}

	at := func(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

	none(t, e.Evaluate(pitObs(220), models.StallApproaching, at(0), actions, targets()))
	none(t, e.Evaluate(pitObs(180), models.StallApproaching, at(150), actions, targets()))
	only(t, e.Evaluate(pitObs(140), models.StallApproaching, at(300), actions, targets()), models.AlertPitCrash)
}

func TestEngine_RestoreKeepsCooldownLedger(t *testing.T) {
	cfg := alert.DefaultConfig()
	cfg.Cooldown = 900 * time.Second
	e := alert.New(cfg)
	only(t, e.Evaluate(pitObs(300), models.StallApproaching, t0, nil, targets()), models.AlertPitSpike)

	restored := alert.Restore(cfg, e.Records(), e.PrevStall(), e.Suppression(), nil)

	none(t, restored.Evaluate(pitObs(300), models.StallApproaching, t0.Add(500*time.Second), nil, targets()))
	only(t, restored.Evaluate(pitObs(300), models.StallApproaching, t0.Add(901*time.Second), nil, targets()), models.AlertPitSpike)
}

func TestEngine_RestoreRebuildsDeclineWindow(t *testing.T) {
	cfg := alert.DefaultConfig()
	cfg.DeclineWindow = 3 * time.Minute
	cfg.ActionLookback = 200 * time.Second

	at := func(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

	history := []models.TemperatureReading{
		{Time: at(300), Role: models.RolePit, Fahrenheit: 140},
		{Time: at(360), Role: models.RolePit, Fahrenheit: 130},
		{Time: at(400), Role: models.RoleMeat, Fahrenheit: 120},
		{Time: at(420), Role: models.RolePit, Fahrenheit: 135},
	}
	suppress := &models.SuppressionState{ActionAt: at(250)}
	restored := alert.Restore(cfg, nil, models.StallApproaching, suppress, history)

	// the replayed window shows the pit turning around, so the held episode
	// stays silent even though the note is already past the lookback
	none(t, restored.Evaluate(pitObs(145), models.StallApproaching, at(480), nil, targets()))
	if restored.Suppression() == nil {
		t.Fatal("Suppression() = nil, want it held through the recovery")
	}

	none(t, restored.Evaluate(pitObs(165), models.StallApproaching, at(540), nil, targets()))
	if restored.Suppression() != nil {
		t.Fatal("Suppression() still active after the pit left the crash zone")
	}
}
