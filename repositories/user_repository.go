package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/blogem/registros/models"
)

// UserRepository handles user lookups
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

type sqlUserRepository struct {
	db  *sqlx.DB
	rec *recovery
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB, schema SchemaBootstrapper) UserRepository {
	return &sqlUserRepository{db: db, rec: &recovery{schema: schema}}
}

// FindByUsername retrieves a user by username
func (r *sqlUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := r.db.Rebind(`SELECT id, username, password, role FROM usuarios WHERE username = ?`)
	return r.findOne(ctx, query, username)
}

// FindByID retrieves a user by ID
func (r *sqlUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := r.db.Rebind(`SELECT id, username, password, role FROM usuarios WHERE id = ?`)
	return r.findOne(ctx, query, id)
}

func (r *sqlUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.rec.do(ctx, func() error {
		return r.db.GetContext(ctx, &user, query, arg)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.Role.Valid() {
		return nil, fmt.Errorf("user %s has unknown role %q", user.Username, user.Role)
	}
	return &user, nil
}
