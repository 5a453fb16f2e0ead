package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// Migrator handles DB schema migrations using golang-migrate.
type Migrator struct {
	dir string
	url string
}

// NewMigrator prepares migrations for a postgres DSN or a sqlite file.
func NewMigrator(driver, target string) (*Migrator, error) {
	if target == "" {
		return nil, fmt.Errorf("missing DSN")
	}
	switch driver {
	case "postgres":
		return &Migrator{dir: "migrations/postgres", url: target}, nil
	case "sqlite":
		return &Migrator{dir: "migrations/sqlite", url: "sqlite3://" + target}, nil
	}
	return nil, fmt.Errorf("no migrations for driver %q", driver)
}

func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, func(mig *migrate.Migrate) error { return mig.Up() })
}

func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, func(mig *migrate.Migrate) error { return mig.Steps(-1) })
}

// Version reports the applied schema version; 0 means none.
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	var (
		v     uint
		dirty bool
	)
	err := m.run(ctx, func(mig *migrate.Migrate) error {
		var err error
		v, dirty, err = mig.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return err
	})
	return v, dirty, err
}

func (m *Migrator) run(ctx context.Context, fn func(*migrate.Migrate) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := iofs.New(migrations, m.dir)
	if err != nil {
		return wrap(err, "open migrations")
	}
	mig, err := migrate.NewWithSourceInstance("iofs", src, m.url)
	if err != nil {
		return wrap(err, "init migrate")
	}
	defer mig.Close()
	if err := fn(mig); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return ErrNoChange
		}
		return err
	}
	return nil
}
