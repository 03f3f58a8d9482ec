package ingest

import (
	"bufio"
	"context"
	"io"

	"pitwatch/internal/logger"
	"pitwatch/internal/models"
)

// QueueSize bounds the reading channel. The producer blocks when the
// consumer falls behind; temperature samples are never dropped on
// overflow.
const QueueSize = 256

// maxLineBytes caps one capture line; rtl_433 records are tiny.
const maxLineBytes = 64 * 1024

// Pump reads capture output and publishes readings.
type Pump struct {
	out     chan models.TemperatureReading
	log     *logger.Logger
	skipped int
}

// NewPump returns a pump with a bounded queue.
func NewPump(log *logger.Logger) *Pump {
	return &Pump{
		out: make(chan models.TemperatureReading, QueueSize),
		log: log,
	}
}

// Readings is the consumer side of the queue. It is closed when Run
// returns.
func (p *Pump) Readings() <-chan models.TemperatureReading { return p.out }

// Skipped reports how many malformed records were dropped.
func (p *Pump) Skipped() int { return p.skipped }

// Run reads newline-delimited records from r until EOF or cancellation.
// Malformed records are dropped and logged; ingestion continues. Sending
// blocks when the queue is full.
func (p *Pump) Run(ctx context.Context, r io.Reader) error {
	defer close(p.out)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		readings, err := ParseLine(sc.Bytes())
		if err != nil {
			p.skipped++
			p.log.Debugw("capture record skipped", "err", err)
			continue
		}
		for _, reading := range readings {
			select {
			case p.out <- reading:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return sc.Err()
}
