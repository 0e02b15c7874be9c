package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/blogem/registros/database"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// SchemaBootstrapper recreates missing tables.
type SchemaBootstrapper interface {
	Bootstrap(ctx context.Context) error
}

// Repositories struct holds all repository interfaces
type Repositories struct {
	Users   UserRepository
	Records RecordRepository
	Events  EventRepository
}

// NewRepositories creates and initializes all repositories.
// schema may be nil, in which case missing tables are reported as ordinary errors.
func NewRepositories(db *sqlx.DB, schema SchemaBootstrapper) *Repositories {
	return &Repositories{
		Users:   NewUserRepository(db, schema),
		Records: NewRecordRepository(db, schema),
		Events:  NewEventRepository(db, schema),
	}
}

// recovery re-runs the schema bootstrap when a query hits a missing table.
type recovery struct {
	schema SchemaBootstrapper
}

// do runs op and, if it failed on a missing table, bootstraps once and retries once.
func (r *recovery) do(ctx context.Context, op func() error) error {
	err := op()
	if err == nil || r.schema == nil || !database.IsMissingTable(err) {
		return err
	}

	log.Warn().Err(err).Msg("Table missing, re-running schema bootstrap")
	if bootErr := r.schema.Bootstrap(ctx); bootErr != nil {
		return fmt.Errorf("schema recovery failed: %w (after: %v)", bootErr, err)
	}
	return op()
}
