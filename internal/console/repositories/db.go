// Package repositories opens the console SQLite database and wires the
// repositories that live in it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tradeconsole/internal/console/migrations"
	"github.com/dmitrijs2005/tradeconsole/internal/console/repositories/credentials"
	"github.com/dmitrijs2005/tradeconsole/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

type Repositories struct {
	DB          *sql.DB
	Credentials credentials.Store
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenDatabase opens dsn with the sqlite driver and applies all migrations.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; a single connection also keeps ":memory:"
	// databases coherent across the pool.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// InitDatabase opens dsn and builds the credential store. A non-empty
// passphrase seals the persisted token at rest.
func InitDatabase(ctx context.Context, dsn string, passphrase string) (*Repositories, error) {
	if isFilePath(dsn) {
		if _, err := filex.EnsureParentDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := OpenDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}

	var store credentials.Store
	if passphrase == "" {
		store = credentials.NewSQLiteStore(db)
	} else {
		store, err = credentials.NewSealedSQLiteStore(ctx, db, []byte(passphrase))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &Repositories{DB: db, Credentials: store}, nil
}

func (r *Repositories) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// isFilePath reports whether dsn names a plain database file rather than an
// in-memory database or a URI.
func isFilePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}
