package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modkit"
)

var testMigrations = []Migration{
	{ID: "001_items", SQL: `CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`},
	{ID: "002_items_index", SQL: `CREATE INDEX items_name ON items (name)`},
}

func newDatabase(t *testing.T, tree map[string]any) (*Module, error) {
	t.Helper()
	ctx := context.Background()
	cfg, err := modkit.ConfigFromMap(tree)
	require.NoError(t, err)
	m, err := modkit.CreateAndRun(ctx, New(), modkit.Props{Config: cfg, Logger: modkit.NopLogger()})
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = m.Stop(ctx) })
	return m.(*Module), nil
}

func TestModule_InMemory(t *testing.T) {
	ctx := context.Background()
	db, err := newDatabase(t, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)

	applied, err := db.Migrate(ctx, testMigrations...)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_items", "002_items_index"}, applied)

	_, err = db.ExecContext(ctx, `INSERT INTO items (name) VALUES (?), (?)`, "a", "b")
	require.NoError(t, err)

	rows, err := db.QueryContext(ctx, `SELECT name FROM items ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestModule_MigrationsRunOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	first, err := newDatabase(t, map[string]any{"dsn": path})
	require.NoError(t, err)
	applied, err := first.Migrate(ctx, testMigrations[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"001_items"}, applied)
	require.NoError(t, first.Stop(ctx))

	second, err := newDatabase(t, map[string]any{"dsn": path})
	require.NoError(t, err)
	applied, err = second.Migrate(ctx, testMigrations...)
	require.NoError(t, err)
	assert.Equal(t, []string{"002_items_index"}, applied)
	require.NoError(t, second.Stop(ctx))

	third, err := newDatabase(t, map[string]any{"dsn": path})
	require.NoError(t, err)
	applied, err = third.Migrate(ctx, testMigrations...)
	require.NoError(t, err)
	assert.Empty(t, applied)

	ids, err := third.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_items", "002_items_index"}, ids)
}

func TestModule_CustomMigrationsTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "versions.db")

	db, err := newDatabase(t, map[string]any{"dsn": path, "migrations_table": "versions"})
	require.NoError(t, err)
	applied, err := db.Migrate(ctx, testMigrations...)
	require.NoError(t, err)
	assert.Len(t, applied, 2)

	pool, err := db.DB()
	require.NoError(t, err)
	var n int
	require.NoError(t, pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM versions`).Scan(&n))
	assert.Equal(t, 2, n)

	err = pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n)
	require.Error(t, err, "the default tracking table is not created")
}

func TestModule_FailedMigration(t *testing.T) {
	ctx := context.Background()
	db, err := newDatabase(t, nil)
	require.NoError(t, err)

	var failed []modkit.CloudEvent
	db.On(EventTypeMigrationFailed, func(args ...any) { failed = append(failed, args[0].(modkit.CloudEvent)) })

	applied, err := db.Migrate(ctx, testMigrations[0], Migration{ID: "002_broken", SQL: "CREATE TABLE ("})
	require.Error(t, err)
	assert.Equal(t, []string{"001_items"}, applied)
	require.Len(t, failed, 1)

	var data MigrationEventData
	require.NoError(t, failed[0].DataAs(&data))
	assert.Equal(t, "002_broken", data.ID)

	ids, err := db.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_items"}, ids)
}

func TestModule_Errors(t *testing.T) {
	_, err := newDatabase(t, map[string]any{"driver": "postgres"})
	require.ErrorIs(t, err, ErrNoDSN)

	_, err = newDatabase(t, map[string]any{"migrations_table": "x; DROP TABLE y"})
	require.ErrorIs(t, err, ErrInvalidTableName)

	_, err = newDatabase(t, map[string]any{"driver": "nope", "dsn": "x"})
	require.Error(t, err)

	ctx := context.Background()
	m, err := modkit.Create(ctx, New(), modkit.Props{Logger: modkit.NopLogger()})
	require.NoError(t, err)
	_, err = m.(*Module).DB()
	require.ErrorIs(t, err, ErrNotConnected)
}
