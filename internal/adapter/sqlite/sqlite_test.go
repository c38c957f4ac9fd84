package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"heartscore/internal/adapter/sqlstore"
	"heartscore/internal/adapter/storetest"
	"heartscore/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *sqlstore.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "heartscore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store { return openTemp(t) })
}

func TestOpenInMemory(t *testing.T) {
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	n, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTemp(t)

	n, err := Migrate(context.Background(), db.SQL())
	require.NoError(t, err)
	assert.Zero(t, n, "second run applies nothing")
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	_, err := db.SQL().ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES ($1, '', $2)", "dup", time.Now().UTC())
	require.NoError(t, err)
	_, err = db.SQL().ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES ($1, '', $2)", "dup", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(context.Canceled))
}

func TestSessions(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	repo := sqlstore.NewSessionRepo(db)

	u, err := db.Create(ctx, "ravi", "")
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, u.ID, "live", "phone", "10.0.0.1", time.Now().Add(time.Hour)))
	require.NoError(t, repo.Create(ctx, u.ID, "stale", "phone", "10.0.0.1", time.Now().Add(-time.Hour)))

	s, err := repo.GetByToken(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, u.ID, s.UserID)
	assert.Equal(t, "phone", s.UserAgent)

	require.NoError(t, repo.DeleteExpired(ctx))
	gone, err := repo.GetByToken(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, gone)

	require.NoError(t, repo.Delete(ctx, "live"))
	gone, err = repo.GetByToken(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
