package testhelpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// RunMigrations executes all SQL migration files, in order, on a test
// database connection. Used by integration tests that run against a
// local PostgreSQL instance.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	_, filename, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(filename), "..", "..", "migrations")

	entries, err := os.ReadDir(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		sqlBytes, readErr := os.ReadFile(filepath.Join(migrationsPath, file))
		if readErr != nil {
			return fmt.Errorf("read migration %s: %w", file, readErr)
		}
		if _, execErr := db.ExecContext(ctx, string(sqlBytes)); execErr != nil {
			return fmt.Errorf("execute migration %s: %w", file, execErr)
		}
	}

	return nil
}
