package database

import (
	"io"
	"net/url"
	"testing"

	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationURL(t *testing.T) {
	raw := MigrationURL(utils.DatabaseConfig{
		Host:     "db.local",
		Port:     "5433",
		Name:     "dinewith",
		User:     "app",
		Password: "p@ss/word",
		SSLMode:  "require",
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "pgx5", u.Scheme)
	assert.Equal(t, "db.local:5433", u.Host)
	assert.Equal(t, "/dinewith", u.Path)
	assert.Equal(t, "app", u.User.Username())
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", pass)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	src, err := iofs.New(migrationFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	for {
		up, _, err := src.ReadUp(version)
		require.NoError(t, err, "version %d has no up file", version)
		body, err := io.ReadAll(up)
		up.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, body)

		down, _, err := src.ReadDown(version)
		require.NoError(t, err, "version %d has no down file", version)
		down.Close()

		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
	}
}
