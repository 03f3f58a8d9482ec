package repository

import (
	"context"
	"database/sql"
	"time"

	"pitwatch/internal/models"
	dbinit "pitwatch/internal/repository/db"
)

// SessionRepo persists versioned session snapshots.
type SessionRepo interface {
	Save(ctx context.Context, id string, startedAt time.Time, snapshot []byte, updatedAt time.Time) error
	LoadActive(ctx context.Context) (id string, snapshot []byte, err error)
	End(ctx context.Context, id string, endedAt time.Time) error
}

// EventRepo is the append-only cook event log.
type EventRepo interface {
	Append(ctx context.Context, e models.CookEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.CookEvent, error)
}

// Authorization stores operator accounts.
type Authorization interface {
	Create(username, passwordHash string) (int, error)
	GetByUsername(username string) (*models.Operator, error)
}

// Repository bundles the concrete stores.
type Repository struct {
	Sessions SessionRepo
	Events   EventRepo
	Auth     Authorization
}

// NewRepository wires SQLite-backed stores onto one connection.
func NewRepository(conn *sql.DB) *Repository {
	return &Repository{
		Sessions: NewSessionSQLite(conn),
		Events:   NewEventSQLite(conn),
		Auth:     NewOperatorSQLite(conn),
	}
}

// InitDB opens the database file and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	return dbinit.InitDB(path)
}
