package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// undefined_table
const pgUndefinedTable = "42P01"

// IsMissingTable reports whether err was caused by a table that does not exist.
func IsMissingTable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedTable
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrError && strings.Contains(liteErr.Error(), "no such table")
	}

	return false
}
