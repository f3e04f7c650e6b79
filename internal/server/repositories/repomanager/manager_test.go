package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/migrations"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func stubGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestNewRepositoryManager(t *testing.T) {
	m, err := NewRepositoryManager(dbx.DialectPostgres)
	require.NoError(t, err)
	assert.IsType(t, &PostgresRepositoryManager{}, m)

	m, err = NewRepositoryManager(dbx.DialectSQLite)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRepositoryManager{}, m)

	_, err = NewRepositoryManager(dbx.DialectNone)
	assert.Error(t, err)
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var _ principals.Repository = (&PostgresRepositoryManager{}).Principals(db)
	var _ principals.Repository = (&SQLiteRepositoryManager{}).Principals(db)
}

func TestRunMigrations_UsesDialectDirectory(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	tests := []struct {
		name string
		m    RepositoryManager
		dir  string
	}{
		{name: "postgres", m: &PostgresRepositoryManager{}, dir: migrations.PostgresDir},
		{name: "sqlite", m: &SQLiteRepositoryManager{}, dir: migrations.SQLiteDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotDir string
			stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
				gotDir = dir
				return nil
			})

			require.NoError(t, tt.m.RunMigrations(context.Background(), db))
			assert.Equal(t, tt.dir, gotDir)
		})
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestOpenDirectory_MemoryWhenDSNEmpty(t *testing.T) {
	d, err := OpenDirectory(context.Background(), "")
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, dbx.DialectNone, d.Dialect)
	assert.IsType(t, &principals.MemoryRepository{}, d.Repository)
	assert.NoError(t, d.Close())
}

func TestOpenDirectory_BadDSN(t *testing.T) {
	_, err := OpenDirectory(context.Background(), "mysql://nope")
	assert.Error(t, err)
}

func TestOpenDirectory_SQLiteMigratesAndServes(t *testing.T) {
	ctx := context.Background()

	d, err := OpenDirectory(ctx, "file:repomanager_open?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.Equal(t, dbx.DialectSQLite, d.Dialect)

	p := &models.Principal{Username: "alice", Email: "alice@example.com", Active: true}
	require.NoError(t, d.Repository.Insert(ctx, p, &models.Credential{Username: "alice", PasswordHash: "$2a$04$x"}))

	got, err := d.Repository.Find(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", got.Email)

	err = d.Repository.Insert(ctx, &models.Principal{Username: "alice"}, &models.Credential{Username: "alice", PasswordHash: "other"})
	assert.ErrorIs(t, err, common.ErrDuplicateUsername)
}

func TestOpenDirectory_MigrationFailureClosesDB(t *testing.T) {
	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	_, err := OpenDirectory(context.Background(), "file:repomanager_fail?mode=memory&cache=shared")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration error")
}
