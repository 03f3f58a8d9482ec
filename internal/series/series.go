// Package series holds the per-role temperature time series and enforces
// its ordering invariant: timestamps within a role never decrease.
package series

import (
	"errors"
	"fmt"
	"time"

	"pitwatch/internal/models"
)

// ErrOutOfOrder is returned when a reading is older than the last accepted
// reading for its role. The sample is rejected, never inserted.
var ErrOutOfOrder = errors.New("series: reading older than last accepted sample for role")

// DefaultRetention bounds retained history. It must stay comfortably above
// the estimator's fit window; one hour of data is always kept.
const DefaultRetention = 6 * time.Hour

const minRetention = time.Hour

// Series is the ordered-by-time sequence of readings per role.
type Series struct {
	retention time.Duration
	readings  map[models.ProbeRole][]models.TemperatureReading
}

// New returns an empty series with the given retention. Retentions below
// one hour are raised to one hour so model fitting always has its window.
func New(retention time.Duration) *Series {
	if retention < minRetention {
		retention = minRetention
	}
	return &Series{
		retention: retention,
		readings:  make(map[models.ProbeRole][]models.TemperatureReading),
	}
}

// Append validates and records a reading. A reading whose timestamp is
// older than the last accepted one for its role is rejected with
// ErrOutOfOrder and the series is left unchanged. Equal timestamps are
// accepted (non-decreasing, not strictly increasing).
func (s *Series) Append(r models.TemperatureReading) error {
	if !r.Role.Valid() {
		return fmt.Errorf("series: unknown probe role %q", r.Role)
	}
	rs := s.readings[r.Role]
	if n := len(rs); n > 0 && r.Time.Before(rs[n-1].Time) {
		return fmt.Errorf("%w: %s at %s before %s",
			ErrOutOfOrder, r.Role, r.Time.Format(time.RFC3339), rs[n-1].Time.Format(time.RFC3339))
	}
	s.readings[r.Role] = append(rs, r)
	s.trim(r.Role, r.Time)
	return nil
}

// trim drops readings older than the retention horizon for the role.
func (s *Series) trim(role models.ProbeRole, now time.Time) {
	rs := s.readings[role]
	cutoff := now.Add(-s.retention)
	i := 0
	for i < len(rs) && rs[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.readings[role] = append(rs[:0:0], rs[i:]...)
	}
}

// Latest returns the most recent reading for the role.
func (s *Series) Latest(role models.ProbeRole) (models.TemperatureReading, bool) {
	rs := s.readings[role]
	if len(rs) == 0 {
		return models.TemperatureReading{}, false
	}
	return rs[len(rs)-1], true
}

// Count returns the number of retained readings for the role.
func (s *Series) Count(role models.ProbeRole) int {
	return len(s.readings[role])
}

// Tail returns up to n most recent readings for the role, oldest first.
func (s *Series) Tail(role models.ProbeRole, n int) []models.TemperatureReading {
	rs := s.readings[role]
	if len(rs) > n {
		rs = rs[len(rs)-n:]
	}
	out := make([]models.TemperatureReading, len(rs))
	copy(out, rs)
	return out
}

// Window returns readings for the role with Time >= from, oldest first.
func (s *Series) Window(role models.ProbeRole, from time.Time) []models.TemperatureReading {
	rs := s.readings[role]
	i := 0
	for i < len(rs) && rs[i].Time.Before(from) {
		i++
	}
	out := make([]models.TemperatureReading, len(rs)-i)
	copy(out, rs[i:])
	return out
}

// All returns every retained reading across roles, ordered within each
// role, for snapshotting.
func (s *Series) All() []models.TemperatureReading {
	var out []models.TemperatureReading
	for _, role := range []models.ProbeRole{models.RolePit, models.RoleMeat, models.RoleAmbient} {
		out = append(out, s.readings[role]...)
	}
	return out
}
