package series_test

import (
	"errors"
	"testing"
	"time"

	"pitwatch/internal/models"
	"pitwatch/internal/series"
)

func reading(role models.ProbeRole, at time.Time, f float64) models.TemperatureReading {
	return models.TemperatureReading{Time: at, Role: role, Fahrenheit: f}
}

func TestSeries_Append_RejectsOutOfOrderWithinRole(t *testing.T) {
	s := series.New(series.DefaultRetention)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := s.Append(reading(models.RoleMeat, base, 80)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(reading(models.RoleMeat, base.Add(time.Minute), 81)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	err := s.Append(reading(models.RoleMeat, base.Add(30*time.Second), 82))
	if !errors.Is(err, series.ErrOutOfOrder) {
		t.Fatalf("Append() error = %v, want ErrOutOfOrder", err)
	}
	if got := s.Count(models.RoleMeat); got != 2 {
		t.Fatalf("Count() = %d after rejected append, want 2", got)
	}
	last, _ := s.Latest(models.RoleMeat)
	if last.Fahrenheit != 81 {
		t.Fatalf("Latest() = %+v, want the pre-rejection sample", last)
	}
}

func TestSeries_Append_EqualTimestampAccepted(t *testing.T) {
	s := series.New(series.DefaultRetention)
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := s.Append(reading(models.RolePit, at, 225)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(reading(models.RolePit, at, 226)); err != nil {
		t.Fatalf("Append() equal timestamp error = %v", err)
	}
	if got := s.Count(models.RolePit); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
}

func TestSeries_OrderingIsPerRole(t *testing.T) {
	s := series.New(series.DefaultRetention)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := s.Append(reading(models.RolePit, base.Add(10*time.Minute), 230)); err != nil {
		t.Fatalf("Append(pit) error = %v", err)
	}
	// older than the pit sample but first for meat: accepted
	if err := s.Append(reading(models.RoleMeat, base, 75)); err != nil {
		t.Fatalf("Append(meat) error = %v, want nil across roles", err)
	}
}

func TestSeries_Append_UnknownRoleRejected(t *testing.T) {
	s := series.New(series.DefaultRetention)
	err := s.Append(reading("oven", time.Now(), 300))
	if err == nil {
		t.Fatal("Append() with unknown role returned nil error")
	}
	if errors.Is(err, series.ErrOutOfOrder) {
		t.Fatalf("Append() error = %v, want a role validation error", err)
	}
}

func TestSeries_TrimDropsAgedReadings(t *testing.T) {
	s := series.New(2 * time.Hour)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		at := base.Add(time.Duration(i) * 30 * time.Minute)
		if err := s.Append(reading(models.RoleMeat, at, 70+float64(i))); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	// last sample at +4h30m with 2h retention: only samples >= +2h30m survive
	if got := s.Count(models.RoleMeat); got != 5 {
		t.Fatalf("Count() = %d after trim, want 5", got)
	}
	win := s.Window(models.RoleMeat, time.Time{})
	if win[0].Time.Before(base.Add(2*time.Hour + 30*time.Minute)) {
		t.Fatalf("oldest retained reading %v precedes retention horizon", win[0].Time)
	}
}

func TestSeries_RetentionFloorIsOneHour(t *testing.T) {
	s := series.New(5 * time.Minute)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	if err := s.Append(reading(models.RoleMeat, base, 70)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(reading(models.RoleMeat, base.Add(30*time.Minute), 90)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	// 30 minutes apart: both must survive despite the tiny configured retention
	if got := s.Count(models.RoleMeat); got != 2 {
		t.Fatalf("Count() = %d, want 2 (retention floor)", got)
	}
}

func TestSeries_TailAndWindow(t *testing.T) {
	s := series.New(series.DefaultRetention)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := s.Append(reading(models.RoleMeat, base.Add(time.Duration(i)*time.Minute), float64(100+i))); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	tail := s.Tail(models.RoleMeat, 3)
	if len(tail) != 3 || tail[0].Fahrenheit != 102 || tail[2].Fahrenheit != 104 {
		t.Fatalf("Tail(3) = %+v, want the last three oldest-first", tail)
	}

	win := s.Window(models.RoleMeat, base.Add(3*time.Minute))
	if len(win) != 2 || win[0].Fahrenheit != 103 {
		t.Fatalf("Window() = %+v, want the two samples from +3m", win)
	}

	// mutations of returned slices must not leak back
	tail[0].Fahrenheit = -1
	again := s.Tail(models.RoleMeat, 3)
	if again[0].Fahrenheit != 102 {
		t.Fatalf("Tail() shares backing storage with caller")
	}
}
