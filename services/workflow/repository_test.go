package workflow

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping store tests")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestPostgresStore_ExecAndQuery(t *testing.T) {
	pool := getTestPool(t)
	store := NewPostgresStore(pool, 5*time.Second)
	ctx := context.Background()

	_, err := store.Exec(ctx, `CREATE TEMP TABLE IF NOT EXISTS store_test (id INT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	t.Cleanup(func() { store.Exec(context.Background(), `DROP TABLE IF EXISTS store_test`) })

	affected, err := store.Exec(ctx, `INSERT INTO store_test (id, name) VALUES ($1, $2), ($3, $4)`, 1, "alpha", 2, "beta")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	rows, err := store.Query(ctx, `SELECT id, name FROM store_test ORDER BY id`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alpha", rows[0]["name"])
	assert.Equal(t, "beta", rows[1]["name"])
}

func TestPostgresStore_QueryNoRows(t *testing.T) {
	pool := getTestPool(t)
	store := NewPostgresStore(pool, 0)

	rows, err := store.Query(context.Background(), `SELECT 1 AS one WHERE false`)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestPostgresStore_InvalidQuery(t *testing.T) {
	pool := getTestPool(t)
	store := NewPostgresStore(pool, 0)

	_, err := store.Query(context.Background(), `SELECT * FROM table_that_does_not_exist`)
	assert.Error(t, err)
}

func TestPostgresStore_DatabaseNode(t *testing.T) {
	pool := getTestPool(t)
	reg, err := NewBuiltinRegistry(Dependencies{Store: NewPostgresStore(pool, 5*time.Second)})
	require.NoError(t, err)

	report, err := NewEngine(reg).Run(context.Background(), &Workflow{Nodes: []Node{
		{ID: "q", Type: "sql", Parameters: map[string]any{"operation": "select", "query": "SELECT $1::int AS n", "args": []any{7}}},
	}}, nil)

	require.NoError(t, err)
	require.True(t, report.ExecutionResults[0].Success, report.ExecutionResults[0].Error)
	data := report.ExecutionResults[0].Result.(map[string]any)
	assert.Equal(t, 1, data["rowCount"])
}
