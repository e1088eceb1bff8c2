package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"

	"leadbot/core/logger"
	"log/slog"
)

// Migrate applies all pending migrations from dir against the open connection.
// It is safe to call on every start: an up-to-date schema is a no-op.
func Migrate(db *sqlx.DB, dir string) error {
	if dir == "" {
		dir = "migrations"
	}

	driver, err := sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}

	start := time.Now()
	err = m.Up()
	took := logger.Took(start)
	switch {
	case err == nil:
		version, dirty, verr := m.Version()
		attrs := []slog.Attr{
			slog.String("event", "db.migrate"),
			slog.String("status", "applied"),
			slog.Duration("duration", took),
		}
		if verr == nil {
			attrs = append(attrs,
				slog.Uint64("version", uint64(version)),
				slog.Bool("dirty", dirty),
			)
		}
		logger.MIG.LogAttrs(logger.Background(), slog.LevelInfo, "migrations applied", attrs...)
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		logger.MIG.Info("schema up to date",
			slog.String("event", "db.migrate"),
			slog.String("status", "noop"),
			slog.Duration("duration", took),
		)
		return nil
	default:
		logger.MIG.Error("migration failed",
			slog.String("event", "db.migrate"),
			slog.String("status", "fail"),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("migrate up: %w", err)
	}
}
