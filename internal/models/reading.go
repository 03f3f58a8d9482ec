package models

import "time"

// ProbeRole identifies which sensor a reading came from.
type ProbeRole string

const (
	RolePit     ProbeRole = "pit"
	RoleMeat    ProbeRole = "meat"
	RoleAmbient ProbeRole = "ambient" // nearby weather station, lower confidence
)

// Valid reports whether the role is one of the known probe roles.
func (r ProbeRole) Valid() bool {
	switch r {
	case RolePit, RoleMeat, RoleAmbient:
		return true
	}
	return false
}

// TemperatureReading is a single normalized sample. Immutable once recorded.
type TemperatureReading struct {
	Time       time.Time `json:"time"`
	Role       ProbeRole `json:"role"`
	Fahrenheit float64   `json:"fahrenheit"`
}
