package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/blogem/registros/models"
)

// insertChunkSize bounds the bind parameters of one INSERT statement.
const insertChunkSize = 500

// RecordRepository handles record persistence
type RecordRepository interface {
	InsertBatch(ctx context.Context, records []models.Record) (int, error)
	ListNewestFirst(ctx context.Context) ([]models.Record, error)
}

type sqlRecordRepository struct {
	db  *sqlx.DB
	rec *recovery
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *sqlx.DB, schema SchemaBootstrapper) RecordRepository {
	return &sqlRecordRepository{db: db, rec: &recovery{schema: schema}}
}

// InsertBatch appends all records in a single transaction.
// Either every record is stored or none is.
func (r *sqlRecordRepository) InsertBatch(ctx context.Context, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	err := r.rec.do(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for start := 0; start < len(records); start += insertChunkSize {
			end := min(start+insertChunkSize, len(records))
			_, err := tx.NamedExecContext(ctx,
				`INSERT INTO registros (nombre, email, puntaje) VALUES (:nombre, :email, :puntaje)`,
				records[start:end],
			)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert records: %w", err)
	}
	return len(records), nil
}

// ListNewestFirst retrieves all records ordered by id descending
func (r *sqlRecordRepository) ListNewestFirst(ctx context.Context) ([]models.Record, error) {
	records := []models.Record{}
	err := r.rec.do(ctx, func() error {
		records = records[:0]
		return r.db.SelectContext(ctx, &records, `SELECT id, nombre, email, puntaje FROM registros ORDER BY id DESC`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}
