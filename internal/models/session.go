package models

import "time"

// SessionMeta is the immutable cook setup.
type SessionMeta struct {
	MeatType    string    `json:"meat_type"`
	WeightLbs   float64   `json:"weight_lbs"`
	TargetPitF  float64   `json:"target_pit_f"`
	TargetMeatF float64   `json:"target_meat_f"`
	StartedAt   time.Time `json:"started_at"`
}

// SnapshotVersion is the current snapshot schema version. Restore rejects
// documents with a different version instead of attempting a partial load.
const SnapshotVersion = 1

// SnapshotV1 is the persisted point-in-time image of a cook session.
// Optional fields default to zero values so newer implementations can load
// older documents of the same version.
type SnapshotV1 struct {
	Version    int                  `json:"version"`
	Meta       SessionMeta          `json:"meta"`
	Readings   []TemperatureReading `json:"readings"`
	Stall      StallState           `json:"stall"`
	Model      ModelState           `json:"model"`
	Alerts     []AlertRecord        `json:"alerts,omitempty"`
	Actions    []UserAction         `json:"actions,omitempty"`
	Suppress   *SuppressionState    `json:"suppress,omitempty"`
	TakenAt    time.Time            `json:"taken_at"`
	LastSample time.Time            `json:"last_sample,omitempty"`
}

// SuppressionState carries the pit-crash decline suppression across a
// restart so a resumed session does not immediately re-alert.
type SuppressionState struct {
	ActionAt time.Time `json:"action_at"`
}

// StatusBundle is the read-only context handed to outside consumers
// (conversational collaborator, status endpoint, websocket feed).
type StatusBundle struct {
	Meta         SessionMeta                      `json:"meta"`
	Current      map[ProbeRole]TemperatureReading `json:"current"`
	Stall        StallState                       `json:"stall"`
	Model        ModelState                       `json:"model"`
	RecentAlerts []Alert                          `json:"recent_alerts,omitempty"`
	Actions      []UserAction                     `json:"actions,omitempty"`
	CookHours    float64                          `json:"cook_hours"`
	GeneratedAt  time.Time                        `json:"generated_at"`
}
