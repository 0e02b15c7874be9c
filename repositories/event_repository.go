package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/blogem/registros/models"
)

// EventRepository handles audit event persistence
type EventRepository interface {
	Create(ctx context.Context, user string, action models.Action) error
	ListNewestFirst(ctx context.Context) ([]models.Event, error)
}

type sqlEventRepository struct {
	db  *sqlx.DB
	rec *recovery
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sqlx.DB, schema SchemaBootstrapper) EventRepository {
	return &sqlEventRepository{db: db, rec: &recovery{schema: schema}}
}

// Create inserts a new event; the timestamp comes from the column default
func (r *sqlEventRepository) Create(ctx context.Context, user string, action models.Action) error {
	query := r.db.Rebind(`INSERT INTO eventos (usuario, accion) VALUES (?, ?)`)
	err := r.rec.do(ctx, func() error {
		_, err := r.db.ExecContext(ctx, query, user, string(action))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", action, err)
	}
	return nil
}

// ListNewestFirst retrieves all events ordered by id descending
func (r *sqlEventRepository) ListNewestFirst(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	err := r.rec.do(ctx, func() error {
		events = events[:0]
		return r.db.SelectContext(ctx, &events, `SELECT id, usuario, accion, fecha FROM eventos ORDER BY id DESC`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
