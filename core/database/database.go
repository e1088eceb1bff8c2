package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"leadbot/core/logger"
	"log/slog"
)

// Config holds SQLite connection settings.
type Config struct {
	Path string `yaml:"path" envconfig:"DB_PATH"`
}

// DSN renders the modernc sqlite connection string with the pragmas the bot
// needs: busy_timeout so concurrent operator writes queue instead of failing,
// foreign_keys for referential safety.
func (c Config) DSN() string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	return fmt.Sprintf("file:%s?%s", c.Path, q.Encode())
}

// Connect opens the database, configures the pool, and verifies connectivity.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "sqlite", cfg.DSN())
	took := time.Since(start)
	if err != nil {
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("driver", "sqlite"),
			slog.String("db", cfg.Path),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	// SQLite serializes writers; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("driver", "sqlite"),
		slog.String("db", cfg.Path),
		slog.Duration("duration", logger.RoundMS(took)),
	)

	return db, nil
}
