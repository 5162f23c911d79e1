package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/migrations"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrateUp applies the bundled migrations. A dirty version is forced clean
// first so a crashed deploy does not block the next one.
func migrateUp(pgURL string, l logger.Interface) (err error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("app - migrateUp - iofs.New: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(pgURL))
	if err != nil {
		return fmt.Errorf("app - migrateUp - migrate.NewWithSourceInstance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		l.Info("app - migrateUp - no migrations applied yet")
	case err != nil:
		return fmt.Errorf("app - migrateUp - m.Version: %w", err)
	case dirty:
		l.Warn("app - migrateUp - version %d is dirty, forcing", version)

		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("app - migrateUp - m.Force: %w", err)
		}
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("app - migrateUp - m.Up: %w", err)
	}

	version, _, err = m.Version()
	if err != nil {
		return fmt.Errorf("app - migrateUp - m.Version: %w", err)
	}
	l.Info("app - migrateUp - schema at version %d", version)

	return nil
}

// migrateURL swaps the postgres scheme for the one the pgx driver registers.
func migrateURL(pgURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(pgURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(pgURL, scheme)
		}
	}

	return pgURL
}
