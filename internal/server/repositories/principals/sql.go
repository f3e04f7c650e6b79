package principals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// queries is the per-dialect statement set. Arguments are positional in the
// order documented next to each field.
type queries struct {
	find             string // username
	credential       string // username
	exists           string // username
	insertPrincipal  string // id, username, email, full_name, active, created_at
	insertCredential string // username, password_hash
	setActive        string // active, username
}

// SQLRepository is the database/sql implementation of Repository. The
// dialect-specific constructors live in postgres.go and sqlite.go.
type SQLRepository struct {
	db          *sql.DB
	q           queries
	isDuplicate func(error) bool
}

func (r *SQLRepository) Find(ctx context.Context, username string) (*models.Principal, error) {
	var (
		p        models.Principal
		email    sql.NullString
		fullName sql.NullString
		created  dbTime
	)

	err := r.db.QueryRowContext(ctx, r.q.find, username).
		Scan(&p.ID, &p.Username, &email, &fullName, &p.Active, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.Email = email.String
	p.FullName = fullName.String
	p.CreatedAt = created.Time
	return &p, nil
}

func (r *SQLRepository) Credential(ctx context.Context, username string) (*models.Credential, error) {
	c := &models.Credential{Username: username}

	err := r.db.QueryRowContext(ctx, r.q.credential, username).Scan(&c.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) Exists(ctx context.Context, username string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, r.q.exists, username).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *SQLRepository) Insert(ctx context.Context, p *models.Principal, c *models.Credential) error {
	if p.Username == "" || c.Username != p.Username {
		return common.ErrorValidation
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, r.q.insertPrincipal,
			p.ID, p.Username, nullString(p.Email), nullString(p.FullName), p.Active, p.CreatedAt); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, r.q.insertCredential, c.Username, c.PasswordHash)
		return err
	})
	if err != nil {
		if r.isDuplicate(err) {
			return common.ErrDuplicateUsername
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) SetActive(ctx context.Context, username string, active bool) error {
	res, err := r.db.ExecContext(ctx, r.q.setActive, active, username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// now is the creation timestamp source, at the microsecond precision
// postgres keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// dbTime scans created_at from either driver: pgx hands back time.Time,
// sqlite stores the column as text.
type dbTime struct {
	Time time.Time
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func (d *dbTime) Scan(v any) error {
	switch t := v.(type) {
	case time.Time:
		d.Time = t.UTC()
		return nil
	case string:
		return d.parse(t)
	case []byte:
		return d.parse(string(t))
	case nil:
		d.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("created_at: unsupported type %T", v)
	}
}

func (d *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("created_at: cannot parse %q", s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
