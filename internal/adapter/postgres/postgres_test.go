package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"heartscore/internal/adapter/sqlstore"
	"heartscore/internal/adapter/storetest"
	"heartscore/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDSN string

func TestMain(m *testing.M) {
	if os.Getenv("HEARTSCORE_SKIP_DOCKER") != "" {
		os.Exit(m.Run())
	}
	ctx := context.Background()
	container, dsn, err := startPostgres(ctx)
	if err != nil {
		// No container runtime; the tests below skip.
		fmt.Fprintf(os.Stderr, "postgres tests: container unavailable: %v\n", err)
		os.Exit(m.Run())
	}
	testDSN = dsn

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

// startPostgres runs a throwaway postgres container. testcontainers panics
// when it cannot find a docker host, so that is reported as an error too.
func startPostgres(ctx context.Context) (container testcontainers.Container, dsn string, err error) {
	defer func() {
		if r := recover(); r != nil {
			container, dsn, err = nil, "", fmt.Errorf("%v", r)
		}
	}()

	container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "heartscore",
				"POSTGRES_PASSWORD": "heartscore",
				"POSTGRES_DB":       "heartscore",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, fmt.Sprintf("postgres://heartscore:heartscore@%s:%s/heartscore?sslmode=disable", host, port.Port()), nil
}

func TestStartPostgresWithoutDockerHost(t *testing.T) {
	if testDSN != "" {
		t.Skip("docker host available")
	}
	t.Setenv("DOCKER_HOST", "unix:///nonexistent/docker.sock")
	t.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NotPanics(t, func() {
		container, dsn, err := startPostgres(ctx)
		assert.Error(t, err)
		assert.Nil(t, container)
		assert.Empty(t, dsn)
	})
}

// freshDB opens the shared container and empties every table.
func freshDB(t *testing.T) *sqlstore.DB {
	t.Helper()
	if testDSN == "" {
		t.Skip("postgres container not available")
	}
	db, err := Open(context.Background(), testDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.SQL().ExecContext(context.Background(),
		"TRUNCATE agent_actions, achievements, streaks, heart_scores, behavior_logs, glucose_readings, bp_readings, sessions, users RESTART IDENTITY")
	require.NoError(t, err)
	return db
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store { return freshDB(t) })
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := freshDB(t)

	n, err := Migrate(context.Background(), db.SQL())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIsUniqueViolation(t *testing.T) {
	db := freshDB(t)
	ctx := context.Background()

	_, err := db.Create(ctx, "dup", "")
	require.NoError(t, err)
	_, err = db.SQL().ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES ($1, '', now())", "dup")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(context.DeadlineExceeded))
}
