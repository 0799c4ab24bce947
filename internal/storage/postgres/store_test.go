package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"worktrack/internal/storage"
	"worktrack/internal/storage/storagetest"
)

// startPostgres returns a DSN for an empty database. TEST_DB_DSN points the
// suite at an existing server; otherwise a throwaway container is started.
func startPostgres(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("TEST_DB_DSN"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		t.Skip("postgres integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image: "postgres:15",
		Env: map[string]string{
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_USER":     "test",
			"POSTGRES_DB":       "worktrack",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/worktrack?sslmode=disable", host, port.Port())
}

func TestConformance(t *testing.T) {
	dsn := startPostgres(t)

	s, err := Open(dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storagetest.Run(t, func(t *testing.T) storage.Backend {
		require.NoError(t, s.db.Exec("TRUNCATE projects, tasks, tickets, comments").Error)
		return s
	})
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open("", nil)
	require.Error(t, err)
}
