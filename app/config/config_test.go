package config

import (
	"database/sql"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg := New(memoryfs.New(), "/config.json")
	require.NoError(t, cfg.Load())
	assert.False(t, cfg.Database.Dialect.Valid)
	assert.False(t, cfg.Database.DSN.Valid)
	assert.False(t, cfg.Migrations.Dir.Valid)
	assert.False(t, cfg.Migrations.Table.Valid)
}

func TestConfigLoad(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	require.NoError(t, vfs.WriteFile(fsys, "/config.json", []byte(`{
		"database": {"dialect": "postgres", "dsn": "postgres://localhost/app"},
		"migrations": {"dir": "/data/migrations"}
	}`), 0o644))

	cfg := New(fsys, "/config.json")
	require.NoError(t, cfg.Load())
	assert.Equal(t, "postgres", cfg.Database.Dialect.V)
	assert.Equal(t, "postgres://localhost/app", cfg.Database.DSN.V)
	assert.Equal(t, "/data/migrations", cfg.Migrations.Dir.V)
	assert.False(t, cfg.Migrations.Table.Valid, "unset fields stay invalid")
}

func TestConfigSaveRoundTrip(t *testing.T) {
	t.Parallel()

	fsys := memoryfs.New()
	cfg := New(fsys, "/nested/dir/config.json")
	cfg.Database.Dialect = sql.Null[string]{V: "sqlite", Valid: true}
	cfg.Database.DSN = sql.Null[string]{V: "/data/app.db", Valid: true}
	require.NoError(t, cfg.Save())

	loaded := New(fsys, "/nested/dir/config.json")
	require.NoError(t, loaded.Load())
	assert.Equal(t, cfg.Database, loaded.Database)
	assert.False(t, loaded.Migrations.Dir.Valid)

	// Invalid fields are omitted from the file entirely.
	data, err := vfs.ReadFile(fsys, "/nested/dir/config.json")
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"dir"`)
	assert.NotContains(t, string(data), `"table"`)
}
