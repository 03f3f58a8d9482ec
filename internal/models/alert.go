package models

import "time"

// AlertCategory is the kind of condition an alert reports.
type AlertCategory string

const (
	AlertPitCrash AlertCategory = "pit_crash"
	AlertPitSpike AlertCategory = "pit_spike"
	AlertStall    AlertCategory = "stall"
	AlertDoneSoon AlertCategory = "done_soon"
	AlertDone     AlertCategory = "done"
)

// AlertRecord tracks the last trigger attempt per category, created lazily
// on first evaluation. The attempt time is recorded at evaluation, not at
// confirmed delivery, so delivery retries cannot cause alert storms.
type AlertRecord struct {
	Category    AlertCategory `json:"category"`
	LastAttempt time.Time     `json:"last_attempt"`
}

// Alert is one triggered notification request.
type Alert struct {
	Category AlertCategory `json:"category"`
	Message  string        `json:"message"`
	At       time.Time     `json:"at"`
}

// UserAction is a free-text note the operator reported ("added 10
// briquettes"). Kept in a bounded recent-history log and used only as an
// alert suppression signal.
type UserAction struct {
	Time time.Time `json:"time"`
	Note string    `json:"note"`
}
