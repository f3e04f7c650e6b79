package dbx

import (
	"fmt"
	"strings"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	DialectNone     Dialect = ""
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func (d Dialect) String() string {
	if d == DialectNone {
		return "memory"
	}
	return string(d)
}

// Source describes how to open a DSN with database/sql.
type Source struct {
	Dialect    Dialect
	DriverName string
	DSN        string
}

// ParseDSN maps a configured DSN onto a driver:
//
//	""                          -> DialectNone (in-memory store, nothing to open)
//	postgres://, postgresql://  -> pgx
//	sqlite://path, file:path    -> modernc sqlite
func ParseDSN(dsn string) (Source, error) {
	dsn = strings.TrimSpace(dsn)

	switch {
	case dsn == "":
		return Source{Dialect: DialectNone}, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Source{Dialect: DialectPostgres, DriverName: "pgx", DSN: dsn}, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return Source{}, fmt.Errorf("sqlite dsn %q has no path", dsn)
		}
		return Source{Dialect: DialectSQLite, DriverName: "sqlite", DSN: path}, nil
	case strings.HasPrefix(dsn, "file:"):
		return Source{Dialect: DialectSQLite, DriverName: "sqlite", DSN: dsn}, nil
	default:
		return Source{}, fmt.Errorf("unsupported database dsn scheme: %q", dsn)
	}
}
