package api

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/facturier/facturier/internal/auth"
	"github.com/facturier/facturier/internal/cache"
	"github.com/facturier/facturier/internal/config"
	"github.com/facturier/facturier/internal/observability"
	"github.com/facturier/facturier/internal/storage"
)

// BuildDependencies opens the database, applies pending migrations, and
// constructs the cache and identity clients the router needs. The caller
// owns the result and must Close it on shutdown.
func BuildDependencies(ctx context.Context, cfg *config.Config, logger *observability.Logger) (Dependencies, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return Dependencies{}, err
	}

	if err := migrate(ctx, db, cfg, logger); err != nil {
		db.Close()
		return Dependencies{}, err
	}

	var pdfCache cache.Client
	switch cfg.Cache.Driver {
	case "redis":
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			db.Close()
			return Dependencies{}, fmt.Errorf("connect redis: %w", err)
		}
		pdfCache = client
	case "memory":
		pdfCache = cache.NewMemoryClient(0)
	}
	// driver "off" leaves pdfCache nil and PDFs render on every request

	var identity *auth.Client
	if cfg.Auth.Enabled {
		identity = auth.NewClient(cfg.Auth.URL, cfg.Auth.AnonKey, cfg.Auth.Timeout)
	}

	return Dependencies{
		DB:       db,
		Repos:    storage.NewRepositories(db),
		Cache:    pdfCache,
		Identity: identity,
	}, nil
}

// Close releases the dependencies in reverse construction order.
func (d Dependencies) Close() {
	if d.Cache != nil {
		d.Cache.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	driver := cfg.Database.Driver
	name := driver
	dsn := cfg.DatabaseDSN()
	if driver == "sqlite" {
		name = "sqlite3"
		dsn = fmt.Sprintf("file:%s?_journal_mode=%s&_busy_timeout=5000", dsn, cfg.Database.SQLite.JournalMode)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite" {
		if cfg.Database.SQLite.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
		}
	} else {
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB, cfg *config.Config, logger *observability.Logger) error {
	manager := storage.NewMigrationManager(db, cfg.Database.MigrationsDir, cfg.Database.Driver)

	status, err := manager.Check(ctx)
	if err != nil {
		return fmt.Errorf("check migrations: %w", err)
	}

	if status.UpToDate {
		logger.Info().Str("version", status.Current).Msg("Database schema up to date")
		return nil
	}

	logger.Info().Int("pending", len(status.Pending)).Msg("Applying database migrations")
	if err := manager.Run(ctx, status); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
