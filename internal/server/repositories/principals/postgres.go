package principals

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var postgresQueries = queries{
	find: `SELECT id, username, email, full_name, active, created_at FROM principals
		 WHERE username = $1`,
	credential: `SELECT password_hash FROM credentials
		 WHERE username = $1`,
	exists: `SELECT EXISTS (SELECT 1 FROM principals WHERE username = $1)`,
	insertPrincipal: `INSERT INTO principals (id, username, email, full_name, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
	insertCredential: `INSERT INTO credentials (username, password_hash)
		 VALUES ($1, $2)`,
	setActive: `UPDATE principals SET active = $1
		 WHERE username = $2`,
}

func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries, isDuplicate: isPostgresUniqueViolation}
}

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
