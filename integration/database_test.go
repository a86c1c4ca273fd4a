//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer starts a database container and returns its host and mapped port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, string) {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return host, mapped.Port()
}

// exerciseHistoryBackend drives every history subcommand plus two fits against one backend.
func exerciseHistoryBackend(t *testing.T, backend, connStr string) {
	t.Helper()
	dir := t.TempDir()
	env := []string{
		"HOME=" + dir,
		"SEGREG_COLOR=no",
		"SEGREG_HISTORY_BACKEND=" + backend,
		"SEGREG_HISTORY_DB_CONNECT=" + connStr,
	}

	_, err := runSegregCommand(t, dir, env, "history", "clear")
	require.NoError(t, err)

	_, err = runSegregCommand(t, dir, env, "history", "migrate")
	require.NoError(t, err)

	_, err = runSegregCommand(t, dir, env, "fit", "--seed", "1")
	require.NoError(t, err)
	_, err = runSegregCommand(t, dir, env, "run", "--seed", "2", "--chart-file", "trend.svg")
	require.NoError(t, err)

	out, err := runSegregCommand(t, dir, env, "history", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")
	assert.Contains(t, out, "segreg_coefficients: 8 rows")

	_, err = runSegregCommand(t, dir, env, "history", "export", "--output-file", "runs")
	require.NoError(t, err)
	assert.FileExists(t, dir+"/runs.runs.parquet")

	_, err = runSegregCommand(t, dir, env, "history", "migrate", "--target-version", "0")
	require.NoError(t, err)

	_, err = runSegregCommand(t, dir, env, "history", "clear")
	require.NoError(t, err)
}

// TestSegregWithMySQL tests the segreg CLI with a MySQL history backend.
func TestSegregWithMySQL(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "segreg",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}, "3306")

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/segreg?parseTime=true", host, port)
	exerciseHistoryBackend(t, "mysql", connStr)
}

// TestSegregWithPostgres tests the segreg CLI with a PostgreSQL history backend.
func TestSegregWithPostgres(t *testing.T) {
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432")

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port)
	exerciseHistoryBackend(t, "postgresql", connStr)
}
