package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// bootstrapLockKey serialises concurrent bootstraps on Postgres.
const bootstrapLockKey = 7340012

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS usuarios (
		id SERIAL PRIMARY KEY,
		username VARCHAR(50) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL CHECK (role IN ('uploader', 'viewer'))
	)`,
	`CREATE TABLE IF NOT EXISTS registros (
		id SERIAL PRIMARY KEY,
		nombre TEXT,
		email TEXT,
		puntaje BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS eventos (
		id SERIAL PRIMARY KEY,
		usuario VARCHAR(50) NOT NULL,
		accion VARCHAR(50) NOT NULL,
		fecha TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_eventos_fecha ON eventos (fecha DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS usuarios (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username VARCHAR(50) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL CHECK (role IN ('uploader', 'viewer'))
	)`,
	`CREATE TABLE IF NOT EXISTS registros (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre TEXT,
		email TEXT,
		puntaje INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS eventos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		usuario VARCHAR(50) NOT NULL,
		accion VARCHAR(50) NOT NULL,
		fecha TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_eventos_fecha ON eventos (fecha DESC)`,
}

const seedUserQuery = `INSERT INTO usuarios (username, password, role)
	VALUES (:username, :password, :role)
	ON CONFLICT (username) DO NOTHING`

// SeedUser is a default account created when missing.
type SeedUser struct {
	Username     string `db:"username"`
	PasswordHash string `db:"password"`
	Role         string `db:"role"`
}

// Schema creates the tables and default accounts.
type Schema struct {
	db    *sqlx.DB
	seeds []SeedUser
}

// NewSchema creates a schema bootstrapper for db.
func NewSchema(db *sqlx.DB, seeds ...SeedUser) *Schema {
	return &Schema{db: db, seeds: seeds}
}

// Bootstrap creates any missing table and inserts the seed accounts that do
// not exist yet. Existing rows are never modified, so it is safe to run on
// every start and from several processes at once.
func (s *Schema) Bootstrap(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bootstrap transaction: %w", err)
	}
	defer tx.Rollback()

	statements := sqliteSchema
	if s.db.DriverName() == DriverPostgres {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockKey); err != nil {
			return fmt.Errorf("failed to acquire bootstrap lock: %w", err)
		}
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	for _, seed := range s.seeds {
		res, err := tx.NamedExecContext(ctx, seedUserQuery, seed)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", seed.Username, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			log.Info().Str("username", seed.Username).Str("role", seed.Role).Msg("Seeded default user")
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bootstrap: %w", err)
	}
	return nil
}
