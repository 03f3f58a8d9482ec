package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pitwatch/internal/models"
	"pitwatch/internal/repository"
)

type EventLogService struct {
	events repository.EventRepo
}

func NewEventLogService(events repository.EventRepo) *EventLogService {
	return &EventLogService{events: events}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// List validates and normalizes the filter, then queries the repo.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.CookEvent, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	typ := strings.TrimSpace(strings.ToUpper(f.Type))
	return s.events.List(ctx, from, to, typ)
}
