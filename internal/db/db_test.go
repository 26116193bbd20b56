package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	var tableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='items'").Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "items", tableName)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	assert.NoError(t, Migrate(db))
}

func TestOpenMemoryIsolated(t *testing.T) {
	ctx := context.Background()

	a, err := OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	b, err := OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, b.Close()) })

	_, err = a.Exec("INSERT INTO items (name) VALUES ('Drill')")
	require.NoError(t, err)

	var n int
	require.NoError(t, b.QueryRow("SELECT COUNT(*) FROM items").Scan(&n))
	assert.Zero(t, n)
}

func TestAutoincrementNeverReusesIDs(t *testing.T) {
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	res, err := db.Exec("INSERT INTO items (name) VALUES ('a')")
	require.NoError(t, err)
	first, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM items WHERE id = ?", first)
	require.NoError(t, err)

	res, err = db.Exec("INSERT INTO items (name) VALUES ('b')")
	require.NoError(t, err)
	second, err := res.LastInsertId()
	require.NoError(t, err)

	assert.Greater(t, second, first)
}
