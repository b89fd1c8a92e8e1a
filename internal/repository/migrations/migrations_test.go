package migrations

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteMigrations(t *testing.T) {
	tests := []struct {
		service config.Service
		table   string
	}{
		{config.ServiceAuth, "users"},
		{config.ServicePosts, "posts"},
		{config.ServiceComments, "comments"},
	}

	for _, tt := range tests {
		t.Run(string(tt.service), func(t *testing.T) {
			db := openMemory(t)

			m, err := NewSQLite(db, tt.service)
			require.NoError(t, err)
			require.NoError(t, Up(m))

			// A second run is a no-op.
			require.NoError(t, Up(m))

			var name string
			err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, tt.table).Scan(&name)
			require.NoError(t, err)
			assert.Equal(t, tt.table, name)

			version, dirty, err := m.Version()
			require.NoError(t, err)
			assert.Equal(t, uint(1), version)
			assert.False(t, dirty)
		})
	}
}

func TestEmbeddedLayout(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		for _, service := range []config.Service{config.ServiceAuth, config.ServicePosts, config.ServiceComments} {
			entries, err := files.ReadDir(dir(driver, service))
			require.NoError(t, err, "%s/%s", driver, service)
			assert.NotEmpty(t, entries)
		}
	}
}

func TestDownAndStatus(t *testing.T) {
	db := openMemory(t)
	m, err := NewSQLite(db, config.ServicePosts)
	require.NoError(t, err)

	version, dirty, err := Status(m)
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, Up(m))
	version, _, err = Status(m)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, Down(m))
	version, _, err = Status(m)
	require.NoError(t, err)
	assert.Zero(t, version)

	assert.ErrorIs(t, Down(m), ErrNothingToRollBack)
}
