package database

import (
	"embed"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationURL builds the pgx5:// URL the migrate pgx/v5 driver dials.
func MigrationURL(config utils.DatabaseConfig) string {
	u := url.URL{
		Scheme: "pgx5",
		User:   url.UserPassword(config.User, config.Password),
		Host:   net.JoinHostPort(config.Host, config.Port),
		Path:   "/" + config.Name,
	}
	q := url.Values{}
	if config.SSLMode != "" {
		q.Set("sslmode", config.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Migrator runs the embedded, versioned schema files.
type Migrator struct {
	m *migrate.Migrate
}

func NewMigrator(config utils.DatabaseConfig, log *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, MigrationURL(config))
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = migrateLogger{log: log.Sugar()}

	return &Migrator{m: m}, nil
}

// Up applies every pending migration. Nothing to apply is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back steps migrations, or all of them when steps is 0.
func (mg *Migrator) Down(steps int) error {
	var err error
	if steps > 0 {
		err = mg.m.Steps(-steps)
	} else {
		err = mg.m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version reports the applied version. A fresh database reports 0.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct {
	log *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Infof(strings.TrimRight(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool {
	return false
}
