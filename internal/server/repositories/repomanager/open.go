package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
)

// Directory is an opened user directory together with the database handle
// backing it, if any.
type Directory struct {
	Repository principals.Repository
	Dialect    dbx.Dialect
	db         *sql.DB
}

// Close releases the database handle. It is a no-op for the in-memory store.
func (d *Directory) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// OpenDirectory opens the directory described by dsn and brings its schema
// up to date. An empty dsn yields a fresh in-memory store.
func OpenDirectory(ctx context.Context, dsn string) (*Directory, error) {
	src, err := dbx.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if src.Dialect == dbx.DialectNone {
		return &Directory{Repository: principals.NewMemoryRepository(), Dialect: dbx.DialectNone}, nil
	}

	m, err := NewRepositoryManager(src.Dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(src.DriverName, src.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if src.Dialect == dbx.DialectSQLite {
		// sqlite allows a single writer; serialise through one connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Directory{Repository: m.Principals(db), Dialect: src.Dialect, db: db}, nil
}
