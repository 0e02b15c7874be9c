package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/registros/database"
	"github.com/blogem/registros/models"
)

func setupTestDB(t *testing.T) (*sqlx.DB, *database.Schema) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(database.DriverSQLite, "file:"+path+"?_busy_timeout=5000&_txlock=immediate")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema := database.NewSchema(db,
		database.SeedUser{Username: "admin", PasswordHash: "hash-admin", Role: "uploader"},
		database.SeedUser{Username: "viewer", PasswordHash: "hash-viewer", Role: "viewer"},
	)
	require.NoError(t, schema.Bootstrap(context.Background()))
	return db, schema
}

func score(v int64) *int64 { return &v }

func TestUserRepository(t *testing.T) {
	db, schema := setupTestDB(t)
	repo := NewUserRepository(db, schema)
	ctx := context.Background()

	admin, err := repo.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUploader, admin.Role)
	assert.Equal(t, "hash-admin", admin.PasswordHash)

	byID, err := repo.FindByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, admin, byID)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordRepository_InsertAndList(t *testing.T) {
	db, schema := setupTestDB(t)
	repo := NewRecordRepository(db, schema)
	ctx := context.Background()

	empty, err := repo.ListNewestFirst(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	n, err := repo.InsertBatch(ctx, []models.Record{
		{Name: "Ana", Email: "ana@example.com", Score: score(90)},
		{Name: "Luis", Email: "luis@example.com", Score: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := repo.ListNewestFirst(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Luis", records[0].Name)
	assert.Nil(t, records[0].Score)
	assert.Equal(t, "Ana", records[1].Name)
	assert.Equal(t, int64(90), *records[1].Score)
	assert.Greater(t, records[0].ID, records[1].ID)
}

func TestRecordRepository_InsertBatchAppendsAcrossChunks(t *testing.T) {
	db, schema := setupTestDB(t)
	repo := NewRecordRepository(db, schema)
	ctx := context.Background()

	batch := make([]models.Record, insertChunkSize*2+7)
	for i := range batch {
		batch[i] = models.Record{Name: "n", Email: "e", Score: score(int64(i))}
	}

	for round := 1; round <= 2; round++ {
		n, err := repo.InsertBatch(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, len(batch), n)

		var count int
		require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM registros`))
		assert.Equal(t, len(batch)*round, count)
	}
}

func TestRecordRepository_StoresScoresBeyondInt32(t *testing.T) {
	db, schema := setupTestDB(t)
	repo := NewRecordRepository(db, schema)
	ctx := context.Background()

	_, err := repo.InsertBatch(ctx, []models.Record{{Name: "Grande", Email: "g@example.com", Score: score(3_000_000_000)}})
	require.NoError(t, err)

	records, err := repo.ListNewestFirst(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(3_000_000_000), *records[0].Score)
}

func TestRecordRepository_InsertBatchEmpty(t *testing.T) {
	db, schema := setupTestDB(t)
	n, err := NewRecordRepository(db, schema).InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEventRepository_CreateAndList(t *testing.T) {
	db, schema := setupTestDB(t)
	repo := NewEventRepository(db, schema)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "admin", models.ActionLogin))
	require.NoError(t, repo.Create(ctx, "admin", models.ActionUpload))

	events, err := repo.ListNewestFirst(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.ActionUpload, events[0].Action)
	assert.Equal(t, models.ActionLogin, events[1].Action)
	assert.Equal(t, "admin", events[0].User)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestRecovery_RecreatesDroppedTable(t *testing.T) {
	db, schema := setupTestDB(t)
	repo := NewEventRepository(db, schema)
	ctx := context.Background()

	_, err := db.Exec(`DROP TABLE eventos`)
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, "viewer", models.ActionDownload))

	events, err := repo.ListNewestFirst(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ActionDownload, events[0].Action)
}

func TestRecovery_WithoutBootstrapperReturnsError(t *testing.T) {
	db, _ := setupTestDB(t)
	repo := NewRecordRepository(db, nil)

	_, err := db.Exec(`DROP TABLE registros`)
	require.NoError(t, err)

	_, err = repo.ListNewestFirst(context.Background())
	require.Error(t, err)
	assert.True(t, database.IsMissingTable(err))
}

type countingBootstrapper struct {
	calls int
	err   error
}

func (c *countingBootstrapper) Bootstrap(context.Context) error {
	c.calls++
	return c.err
}

func TestRecovery_BootstrapsAtMostOnce(t *testing.T) {
	db, _ := setupTestDB(t)
	boot := &countingBootstrapper{}
	repo := NewRecordRepository(db, boot)

	_, err := db.Exec(`DROP TABLE registros`)
	require.NoError(t, err)

	// bootstrapper does nothing, so the retry fails again
	_, err = repo.ListNewestFirst(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, boot.calls)

	boot.err = errors.New("disk full")
	_, err = repo.ListNewestFirst(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema recovery failed")
	assert.Equal(t, 2, boot.calls)
}

func TestRecordRepository_StorageFailureRollsBack(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	boot := &countingBootstrapper{}
	repo := NewRecordRepository(db, boot)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO registros`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = repo.InsertBatch(context.Background(), []models.Record{{Name: "Ana"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Zero(t, boot.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_StorageFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectExec(`INSERT INTO eventos`).
		WithArgs("admin", "logout").
		WillReturnError(errors.New("read-only transaction"))

	err = NewEventRepository(db, nil).Create(context.Background(), "admin", models.ActionLogout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logout")
	assert.NoError(t, mock.ExpectationsWereMet())
}
