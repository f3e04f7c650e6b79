// Package repomanager vends dialect-specific repositories and runs the
// embedded goose migrations for them.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Principals(db *sql.DB) principals.Repository
}

// NewRepositoryManager returns the manager for a SQL dialect.
func NewRepositoryManager(d dbx.Dialect) (RepositoryManager, error) {
	switch d {
	case dbx.DialectPostgres:
		return &PostgresRepositoryManager{}, nil
	case dbx.DialectSQLite:
		return &SQLiteRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("no repository manager for dialect %q", d)
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}
