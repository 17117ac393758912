package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MigrationManager applies the schema files for the configured driver.
// Files live under <dir>/<driver>/ and apply in lexical order; applied
// versions are recorded in schema_migrations.
type MigrationManager struct {
	db     *sql.DB
	dir    string
	driver string
}

// NewMigrationManager creates a new migration manager.
func NewMigrationManager(db *sql.DB, dir, driver string) *MigrationManager {
	return &MigrationManager{
		db:     db,
		dir:    dir,
		driver: driver,
	}
}

// MigrationStatus represents the status of migrations.
type MigrationStatus struct {
	UpToDate bool
	Pending  []string
	Current  string
	Total    int
}

// Check reports which migrations have been applied and which are pending.
func (m *MigrationManager) Check(ctx context.Context) (*MigrationStatus, error) {
	status := &MigrationStatus{
		Pending: []string{},
	}

	if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	migrations, err := m.listMigrationFiles()
	if err != nil {
		return nil, fmt.Errorf("list migration files: %w", err)
	}

	status.Total = len(migrations)
	if len(migrations) == 0 {
		status.UpToDate = true
		return status, nil
	}

	current, err := m.currentVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current version: %w", err)
	}
	status.Current = current

	for _, migration := range migrations {
		if migration > current {
			status.Pending = append(status.Pending, migration)
		}
	}

	status.UpToDate = len(status.Pending) == 0
	return status, nil
}

// Run applies all pending migrations in order.
func (m *MigrationManager) Run(ctx context.Context, status *MigrationStatus) error {
	if len(status.Pending) == 0 {
		return nil
	}

	sort.Strings(status.Pending)

	for _, migration := range status.Pending {
		path := filepath.Join(m.dir, m.driver, migration)
		if err := m.runMigration(ctx, path); err != nil {
			return fmt.Errorf("run migration %s: %w", migration, err)
		}
	}

	return nil
}

func (m *MigrationManager) ensureSchemaMigrationsTable(ctx context.Context) error {
	var query string
	switch m.driver {
	case "postgres":
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				id SERIAL PRIMARY KEY,
				version TEXT UNIQUE NOT NULL,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`
	default:
		query = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				version TEXT UNIQUE NOT NULL,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`
	}
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *MigrationManager) listMigrationFiles() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.dir, m.driver))
	if err != nil {
		return nil, fmt.Errorf("read migration directory: %w", err)
	}

	var migrations []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		migrations = append(migrations, entry.Name())
	}

	sort.Strings(migrations)
	return migrations, nil
}

func (m *MigrationManager) currentVersion(ctx context.Context) (string, error) {
	var version string
	err := m.db.QueryRowContext(ctx,
		`SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return version, err
}

func (m *MigrationManager) runMigration(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}

	return m.record(ctx, filepath.Base(path))
}

func (m *MigrationManager) record(ctx context.Context, version string) error {
	var query string
	switch m.driver {
	case "postgres":
		query = `INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`
	default:
		query = `INSERT OR IGNORE INTO schema_migrations (version) VALUES ($1)`
	}
	_, err := m.db.ExecContext(ctx, query, version)
	return err
}
