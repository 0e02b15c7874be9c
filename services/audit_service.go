package services

import (
	"context"
	"time"

	"github.com/blogem/registros/models"
	"github.com/blogem/registros/repositories"
)

// AuditService writes and reads the audit log
type AuditService interface {
	Record(ctx context.Context, actor string, action models.Action) error
	List(ctx context.Context) ([]models.Event, error)
	ViewLog(ctx context.Context, actor string) ([]models.Event, error)
}

type auditService struct {
	events   repositories.EventRepository
	location *time.Location
}

// NewAuditService creates a new audit service showing timestamps in loc
func NewAuditService(events repositories.EventRepository, loc *time.Location) AuditService {
	if loc == nil {
		loc = time.UTC
	}
	return &auditService{events: events, location: loc}
}

// Record appends one event. Its error is returned to the caller.
func (s *auditService) Record(ctx context.Context, actor string, action models.Action) error {
	return s.events.Create(ctx, actor, action)
}

// List returns events newest first with timestamps in the audit time zone
func (s *auditService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.events.ListNewestFirst(ctx)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Timestamp = events[i].Timestamp.In(s.location)
	}
	return events, nil
}

// ViewLog lists the events and then records that actor viewed them, so the
// returned list does not contain the view itself.
func (s *auditService) ViewLog(ctx context.Context, actor string) ([]models.Event, error) {
	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Record(ctx, actor, models.ActionViewEvents); err != nil {
		return nil, err
	}
	return events, nil
}
