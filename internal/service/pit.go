package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pitwatch/internal/logger"
	"pitwatch/internal/models"
	"pitwatch/internal/notify"
	"pitwatch/internal/repository"
	"pitwatch/internal/series"
	"pitwatch/internal/session"
)

// staleFeedAfter is how long without a reading before the sensor warning.
const staleFeedAfter = 5 * time.Minute

// recentAlertsKept bounds the alert history exposed in the status bundle.
const recentAlertsKept = 20

type cmdKind int

const (
	cmdAction cmdKind = iota
	cmdStatus
	cmdEnd
)

type command struct {
	kind   cmdKind
	note   string
	status chan models.StatusBundle
	done   chan error
}

// PitOptions tunes the consumer loop.
type PitOptions struct {
	SnapshotInterval time.Duration
	Destination      string // SMS destination, empty when notifications are off
}

// PitService drains the reading queue and performs all session mutation.
// The readings and command channels are the only structures shared with
// other goroutines; everything else is confined to Run.
type PitService struct {
	sess      *session.Session
	sessionID string
	sessions  repository.SessionRepo
	events    repository.EventRepo
	notifier  notify.Notifier
	readings  <-chan models.TemperatureReading
	log       *logger.Logger
	opts      PitOptions

	commands chan command

	// owned by Run
	recent      []models.Alert
	lastStall   models.StallState
	staleWarned bool
	ended       bool
}

// NewPitService wires the consumer loop around an existing session
// (fresh or restored).
func NewPitService(sess *session.Session, sessionID string, repos *repository.Repository,
	notifier notify.Notifier, readings <-chan models.TemperatureReading,
	log *logger.Logger, opts PitOptions) *PitService {
	if opts.SnapshotInterval <= 0 {
		opts.SnapshotInterval = time.Minute
	}
	return &PitService{
		sess:      sess,
		sessionID: sessionID,
		sessions:  repos.Sessions,
		events:    repos.Events,
		notifier:  notifier,
		readings:  readings,
		log:       log,
		opts:      opts,
		commands:  make(chan command),
		lastStall: sess.StallState(),
	}
}

// Run is the single consumer. It exits when ctx is canceled, flushing a
// final snapshot first so cooldowns survive the restart.
func (p *PitService) Run(ctx context.Context) {
	snapshots := time.NewTicker(p.opts.SnapshotInterval)
	staleCheck := time.NewTicker(time.Minute)
	defer snapshots.Stop()
	defer staleCheck.Stop()

	readings := p.readings
	for {
		select {
		case r, ok := <-readings:
			if !ok {
				readings = nil // capture ended; keep serving commands
				continue
			}
			p.handleReading(ctx, r)

		case cmd := <-p.commands:
			p.handleCommand(ctx, cmd)

		case <-snapshots.C:
			p.persist(ctx, time.Now())

		case <-staleCheck.C:
			p.checkStaleFeed()

		case <-ctx.Done():
			p.flushFinal()
			return
		}
	}
}

func (p *PitService) handleReading(ctx context.Context, r models.TemperatureReading) {
	if p.ended {
		return
	}
	now := r.Time
	if now.IsZero() {
		now = time.Now()
	}
	p.staleWarned = false

	alerts, err := p.sess.Ingest(r, now)
	if err != nil {
		if errors.Is(err, series.ErrOutOfOrder) {
			p.log.Debugw("out-of-order sample rejected", "role", r.Role, "at", r.Time)
			return
		}
		p.log.Warnw("reading rejected", "err", err)
		return
	}

	if st := p.sess.StallState(); st != p.lastStall {
		p.lastStall = st
		p.appendEvent(ctx, models.CookEvent{
			Type:    models.EventStall,
			Message: "stall state changed to " + string(st),
			Metadata: map[string]any{
				"state": st,
			},
		})
	}

	for _, a := range alerts {
		p.dispatch(ctx, a)
	}
}

// dispatch records the alert and requests delivery. The cooldown attempt
// was already recorded by the engine, atomically with the decision, so a
// delivery failure here is logged and nothing more.
func (p *PitService) dispatch(ctx context.Context, a models.Alert) {
	p.recent = append(p.recent, a)
	if len(p.recent) > recentAlertsKept {
		p.recent = p.recent[len(p.recent)-recentAlertsKept:]
	}

	p.appendEvent(ctx, models.CookEvent{
		Type:    models.EventAlert,
		Message: a.Message,
		Metadata: map[string]any{
			"category": a.Category,
		},
	})

	err := p.notifier.Send(ctx, notify.Request{
		Category:    a.Category,
		Message:     a.Message,
		Destination: p.opts.Destination,
	})
	if err != nil {
		p.log.Warnw("notification delivery failed", "category", a.Category, "err", err)
		return
	}
	p.log.Infow("alert sent", "category", a.Category, "message", a.Message)
}

func (p *PitService) handleCommand(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdAction:
		now := time.Now()
		p.sess.AddAction(cmd.note, now)
		p.appendEvent(ctx, models.CookEvent{
			OccurredAt: now,
			Type:       models.EventUserAction,
			Message:    cmd.note,
		})
		cmd.done <- nil

	case cmdStatus:
		cmd.status <- p.sess.Status(time.Now(), append([]models.Alert(nil), p.recent...))

	case cmdEnd:
		now := time.Now()
		p.persist(ctx, now)
		err := p.sessions.End(ctx, p.sessionID, now)
		if err == nil {
			p.ended = true
			p.appendEvent(ctx, models.CookEvent{
				OccurredAt: now,
				Type:       models.EventSessionEnd,
				Message:    "cook ended by operator",
			})
		}
		cmd.done <- err
	}
}

func (p *PitService) persist(ctx context.Context, now time.Time) {
	doc := p.sess.Snapshot(now)
	raw, err := session.MarshalSnapshot(doc)
	if err != nil {
		p.log.Errorw("snapshot marshal failed", "err", err)
		return
	}
	if err := p.sessions.Save(ctx, p.sessionID, doc.Meta.StartedAt, raw, now); err != nil {
		p.log.Errorw("snapshot save failed", "err", err)
	}
}

// flushFinal writes the last snapshot on shutdown with a fresh context;
// the loop context is already canceled.
func (p *PitService) flushFinal() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.persist(ctx, time.Now())
	p.log.Infow("final snapshot flushed", "session", p.sessionID)
}

func (p *PitService) checkStaleFeed() {
	last := p.sess.LastSample()
	if last.IsZero() || p.staleWarned {
		return
	}
	if time.Since(last) > staleFeedAfter {
		p.staleWarned = true
		p.log.Warnw("no temperature data, check the sensor", "last_sample", last)
	}
}

func (p *PitService) appendEvent(ctx context.Context, e models.CookEvent) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if err := p.events.Append(ctx, e); err != nil {
		p.log.Warnw("event append failed", "type", e.Type, "err", err)
	}
}

// AddAction hands a user note to the consumer loop.
func (p *PitService) AddAction(ctx context.Context, note string) error {
	cmd := command{kind: cmdAction, note: note, done: make(chan error, 1)}
	select {
	case p.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status asks the consumer loop for the read-only context bundle.
func (p *PitService) Status(ctx context.Context) (models.StatusBundle, error) {
	cmd := command{kind: cmdStatus, status: make(chan models.StatusBundle, 1)}
	select {
	case p.commands <- cmd:
	case <-ctx.Done():
		return models.StatusBundle{}, ctx.Err()
	}
	select {
	case b := <-cmd.status:
		return b, nil
	case <-ctx.Done():
		return models.StatusBundle{}, ctx.Err()
	}
}

// EndSession flushes a final snapshot and marks the session finished.
func (p *PitService) EndSession(ctx context.Context) error {
	cmd := command{kind: cmdEnd, done: make(chan error, 1)}
	select {
	case p.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
