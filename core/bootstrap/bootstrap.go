package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "leadbot/core/config"
	coredatabase "leadbot/core/database"
	"leadbot/core/logger"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(*sqlx.DB, string) error

	// MigrationsDir overrides the default migrations directory.
	MigrationsDir string

	// Seed runs after migrations with an open connection; it is the place to
	// materialize config-derived rows (manager roster, default knowledge base).
	Seed func(*sqlx.DB) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, connects to the database, applies migrations,
// and runs the optional seed hook.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(coredatabase.Config{Path: opts.Config.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.Migrate
	}
	if err := migrate(db, opts.MigrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	if opts.Seed != nil {
		if err := opts.Seed(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: seed failed: %w", err)
		}
	}

	return &Result{DB: db}, nil
}
