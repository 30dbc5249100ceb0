// Package repomanager provides a concrete RepositoryManager for the SQL
// drivers supported by dbx, wiring together repository constructors and
// database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/users"
)

// gooseDialects maps database/sql driver names to goose dialects.
var gooseDialects = map[string]string{
	dbx.DriverPostgres: "postgres",
	dbx.DriverSQLite:   "sqlite3",
}

// SQLRepositoryManager vends SQL-backed repository implementations and
// exposes a schema migration hook.
type SQLRepositoryManager struct {
	dialect string
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("migration dialect error: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewRepositoryManager constructs a RepositoryManager for the given
// database/sql driver name.
func NewRepositoryManager(driver string) (RepositoryManager, error) {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &SQLRepositoryManager{dialect: dialect}, nil
}
