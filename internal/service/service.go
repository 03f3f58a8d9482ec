package service

import (
	"context"
	"time"

	"pitwatch/internal/logger"
	"pitwatch/internal/models"
	"pitwatch/internal/notify"
	"pitwatch/internal/repository"
	"pitwatch/internal/session"
)

// Pit is the single-consumer cook pipeline. Run owns all session state;
// the other methods hand work to it over the command channel.
type Pit interface {
	Run(ctx context.Context)
	AddAction(ctx context.Context, note string) error
	Status(ctx context.Context) (models.StatusBundle, error)
	EndSession(ctx context.Context) error
}

// EventLog exposes the append-only cook history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CookEvent, error)
}

// Authorization handles operator accounts and tokens.
type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// LogFilter selects events by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string
}

// Service aggregates the sub-services.
type Service struct {
	Pit
	EventLog
	Authorization
}

// Deps carries everything the composed service needs.
type Deps struct {
	Session    *session.Session
	SessionID  string
	Repos      *repository.Repository
	Notifier   notify.Notifier
	Readings   <-chan models.TemperatureReading
	Log        *logger.Logger
	Pit        PitOptions
	SigningKey string
}

// NewService wires the repository layer into concrete services.
func NewService(d Deps) *Service {
	return &Service{
		Pit:           NewPitService(d.Session, d.SessionID, d.Repos, d.Notifier, d.Readings, d.Log, d.Pit),
		EventLog:      NewEventLogService(d.Repos.Events),
		Authorization: NewAuthService(d.Repos.Auth, d.SigningKey),
	}
}
