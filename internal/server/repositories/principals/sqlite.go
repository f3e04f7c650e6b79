package principals

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteQueries = queries{
	find: `SELECT id, username, email, full_name, active, created_at FROM principals
		 WHERE username = ?`,
	credential: `SELECT password_hash FROM credentials
		 WHERE username = ?`,
	exists: `SELECT EXISTS (SELECT 1 FROM principals WHERE username = ?)`,
	insertPrincipal: `INSERT INTO principals (id, username, email, full_name, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	insertCredential: `INSERT INTO credentials (username, password_hash)
		 VALUES (?, ?)`,
	setActive: `UPDATE principals SET active = ?
		 WHERE username = ?`,
}

func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries, isDuplicate: isSQLiteUniqueViolation}
}

func isSQLiteUniqueViolation(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	switch sqErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqErr.Error(), "UNIQUE")
	}
	return false
}
