package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "Spice Shelf", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, SourceFiles, cfg.Catalog.Source)
	assert.Equal(t, "data/recipes.csv", cfg.Catalog.DishesPath)
	assert.Equal(t, MalformedFail, cfg.Catalog.MalformedRows)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, "spiceshelf-session", cfg.Session.CookieName)
	assert.Equal(t, time.Hour, cfg.Session.CleanupInterval)
	assert.Equal(t, 6, cfg.UI.ShelfColumns)
	assert.Equal(t, 3, cfg.UI.CardColumns)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
catalog:
  source: sqlite
  sqlite_path: /tmp/shelf.db
  malformed_rows: skip
session:
  store: redis
redis:
  host: cache
  port: 6380
ui:
  shelf_columns: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.Catalog.Source)
	assert.Equal(t, MalformedSkip, cfg.Catalog.MalformedRows)
	assert.Equal(t, StoreRedis, cfg.Session.Store)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr())
	assert.Equal(t, 4, cfg.UI.ShelfColumns)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SPICESHELF_CATALOG_MALFORMED_ROWS", "skip")
	t.Setenv("PORT", "9191")

	cfg, err := Load(writeConfig(t, "app:\n  name: Shelf\n"))
	require.NoError(t, err)

	assert.Equal(t, MalformedSkip, cfg.Catalog.MalformedRows)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:9191", cfg.Address())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown source", "catalog:\n  source: ftp\n", "catalog.source"},
		{"unknown policy", "catalog:\n  malformed_rows: ignore\n", "catalog.malformed_rows"},
		{"unknown store", "session:\n  store: disk\n", "session.store"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"zero columns", "ui:\n  card_columns: 0\n", "ui.shelf_columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
