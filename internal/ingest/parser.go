// Package ingest turns the radio-capture collaborator's newline-delimited
// JSON into normalized temperature readings and feeds them to the consumer
// over a bounded channel.
package ingest

import (
	"encoding/json"
	"errors"
	"time"

	"pitwatch/internal/models"
)

// Sensor models the capture process reports. The TP12 carries the pit and
// meat probes; the LaCrosse unit is an unrelated nearby weather station
// used for ambient temperature.
const (
	modelThermoPro = "Thermopro-TP12"
	modelLaCrosse  = "LaCrosse-TX141Bv3"
)

const captureTimeLayout = "2006-01-02 15:04:05"

// ErrSkip marks records that are not for us or cannot be parsed; the
// caller drops them and keeps reading.
var ErrSkip = errors.New("ingest: record skipped")

type captureRecord struct {
	Time     string   `json:"time"`
	Model    string   `json:"model"`
	PitC     *float64 `json:"temperature_1_C"`
	MeatC    *float64 `json:"temperature_2_C"`
	AmbientC *float64 `json:"temperature_C"`
}

// ParseLine converts one capture line into zero or more readings. A TP12
// record yields a pit and a meat reading with the same timestamp; a
// LaCrosse record yields one ambient reading. Unknown models and malformed
// records return ErrSkip.
func ParseLine(line []byte) ([]models.TemperatureReading, error) {
	var rec captureRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, errors.Join(ErrSkip, err)
	}

	switch rec.Model {
	case modelThermoPro:
		at, err := time.ParseInLocation(captureTimeLayout, rec.Time, time.Local)
		if err != nil {
			return nil, errors.Join(ErrSkip, err)
		}
		if rec.PitC == nil || rec.MeatC == nil {
			return nil, ErrSkip
		}
		return []models.TemperatureReading{
			{Time: at, Role: models.RolePit, Fahrenheit: cToF(*rec.PitC)},
			{Time: at, Role: models.RoleMeat, Fahrenheit: cToF(*rec.MeatC)},
		}, nil

	case modelLaCrosse:
		if rec.AmbientC == nil {
			return nil, ErrSkip
		}
		at, err := time.ParseInLocation(captureTimeLayout, rec.Time, time.Local)
		if err != nil {
			at = time.Now()
		}
		return []models.TemperatureReading{
			{Time: at, Role: models.RoleAmbient, Fahrenheit: cToF(*rec.AmbientC)},
		}, nil

	default:
		return nil, ErrSkip
	}
}

func cToF(c float64) float64 { return c*9/5 + 32 }
