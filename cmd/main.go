package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"pitwatch/internal/alert"
	"pitwatch/internal/config"
	"pitwatch/internal/estimate"
	"pitwatch/internal/fit"
	"pitwatch/internal/handlers"
	"pitwatch/internal/ingest"
	"pitwatch/internal/logger"
	"pitwatch/internal/models"
	"pitwatch/internal/notify"
	"pitwatch/internal/repository"
	"pitwatch/internal/server"
	"pitwatch/internal/service"
	"pitwatch/internal/session"
)

const defaultConfigPath = "configs/config.yml"

func main() {
	cfgPath := os.Getenv("PITWATCH_CONFIG")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "path", cfgPath, "err", err)
	}
	log := logger.Get(cfg.Logging.Level)
	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid config", "err", err)
	}

	conn, err := repository.InitDB(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessCfg := sessionConfig(cfg)
	sess, sessionID := openSession(ctx, repos, sessCfg, cfg, log)

	// producer: capture subprocess -> bounded queue
	pump := ingest.NewPump(log)
	capture, stdout, err := ingest.StartCapture(ctx, cfg.Capture.Command, cfg.Capture.Args...)
	if err != nil {
		log.Fatalw("failed to start capture", "command", cfg.Capture.Command, "err", err)
	}
	go func() {
		if perr := pump.Run(ctx, stdout); perr != nil && !errors.Is(perr, context.Canceled) {
			log.Errorw("capture pump stopped", "err", perr)
		}
		_ = capture.Wait()
	}()

	services := service.NewService(service.Deps{
		Session:   sess,
		SessionID: sessionID,
		Repos:     repos,
		Notifier:  buildNotifier(cfg),
		Readings:  pump.Readings(),
		Log:       log,
		Pit: service.PitOptions{
			SnapshotInterval: cfg.Storage.SnapshotInterval,
			Destination:      cfg.SMS.Phone,
		},
		SigningKey: cfg.Server.SigningSecret,
	})

	// consumer: owns all session state
	pitDone := make(chan struct{})
	go func() {
		defer close(pitDone)
		services.Pit.Run(ctx)
	}()

	srv := &server.Server{}
	apiHandler := handlers.NewHandler(services, log)
	go func() {
		if serr := srv.Run(cfg.Server.Port, apiHandler.InitRoutes()); serr != nil {
			log.Errorw("http server stopped", "err", serr)
		}
	}()

	waitForShutdown(cancel, srv, pitDone, log)
}

// sessionConfig translates file configuration into the session wiring.
func sessionConfig(cfg *config.Config) session.Config {
	var fitter fit.Fitter = fit.Disabled{}
	if cfg.Estimator.Enabled {
		fitter = fit.NewNelderMead(cfg.Estimator.FitBudget)
	}
	return session.Config{
		Meta: models.SessionMeta{
			MeatType:    cfg.Session.MeatType,
			WeightLbs:   cfg.Session.WeightLbs,
			TargetPitF:  cfg.Session.TargetPitF,
			TargetMeatF: cfg.Session.TargetMeatF,
			StartedAt:   time.Now(),
		},
		Retention: cfg.Session.Retention,
		Fitter:    fitter,
		Estimator: estimate.Config{
			Window:     cfg.Estimator.Window,
			MinSamples: cfg.Estimator.MinSamples,
			Interval:   cfg.Estimator.Interval,
			MaxRMSE:    estimate.DefaultConfig().MaxRMSE,
		},
		Alerts: alert.Config{
			Cooldown:       cfg.Alerts.Cooldown,
			DeclineWindow:  cfg.Alerts.DeclineWindow,
			DeclineRateF:   cfg.Alerts.DeclineRateF,
			ActionLookback: cfg.Alerts.ActionLookback,
		},
	}
}

// openSession resumes the active cook if a loadable snapshot exists,
// otherwise starts fresh. An incompatible snapshot is surfaced and then
// deliberately left behind: the new session takes over.
func openSession(ctx context.Context, repos *repository.Repository, sessCfg session.Config,
	cfg *config.Config, log *logger.Logger) (*session.Session, string) {

	id, raw, err := repos.Sessions.LoadActive(ctx)
	if err == nil {
		doc, derr := session.UnmarshalSnapshot(raw)
		if derr == nil {
			if sess, rerr := session.Restore(doc, sessCfg); rerr == nil {
				log.Infow("resumed cook session", "session", id,
					"meat", doc.Meta.MeatType, "started_at", doc.Meta.StartedAt)
				return sess, id
			} else {
				derr = rerr
			}
		}
		log.Warnw("active session snapshot not loadable; starting fresh", "session", id, "err", derr)
	} else if !errors.Is(err, repository.ErrNoActiveSession) {
		log.Warnw("failed to load active session; starting fresh", "err", err)
	}

	id = uuid.NewString()
	sess := session.New(sessCfg)
	_ = repos.Events.Append(ctx, models.CookEvent{
		Type:    models.EventSessionStart,
		Message: "cook started",
		Metadata: map[string]any{
			"session":       id,
			"meat_type":     sessCfg.Meta.MeatType,
			"weight_lbs":    sessCfg.Meta.WeightLbs,
			"target_pit_f":  sessCfg.Meta.TargetPitF,
			"target_meat_f": sessCfg.Meta.TargetMeatF,
		},
	})
	log.Infow("started cook session", "session", id,
		"meat", sessCfg.Meta.MeatType, "weight_lbs", sessCfg.Meta.WeightLbs)
	return sess, id
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.SMS.Enabled || cfg.SMS.Phone == "" {
		return notify.Disabled{}
	}
	return notify.NewTextBelt(cfg.SMS.URL, cfg.SMS.Key)
}

// waitForShutdown blocks on termination signals, then stops the consumer
// (which flushes a final snapshot) and the HTTP server.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, pitDone <-chan struct{}, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")
	cancel()

	select {
	case <-pitDone:
	case <-time.After(10 * time.Second):
		log.Warnw("consumer did not stop in time")
	}

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
