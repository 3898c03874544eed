// Package db provides the database adapter used by the migration engine,
// backed by database/sql with drivers for the supported dialects.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"go.hackfix.me/shift/migrate"
)

// driverNames maps engine dialects to registered database/sql driver names.
var driverNames = map[migrate.Dialect]string{
	migrate.DialectSQLite:   "sqlite",
	migrate.DialectPostgres: "postgres",
	migrate.DialectMySQL:    "mysql",
}

// DB wraps sql.DB with the transaction support the migration engine requires.
type DB struct {
	*sql.DB
}

var _ migrate.Adapter = (*DB)(nil)

// Open creates and configures a new database connection for the given dialect
// and connection string, and verifies it with a ping.
func Open(ctx context.Context, dialect migrate.Dialect, dsn string) (*DB, error) {
	driver, ok := driverNames[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect '%s'", dialect)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s database: %w", dialect, err)
	}
	d := &DB{DB: sqlDB}

	if dialect == migrate.DialectSQLite &&
		(strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, ":memory:")) {
		// See https://github.com/mattn/go-sqlite3#faq
		d.SetMaxIdleConns(10)
		d.SetConnMaxLifetime(time.Duration(math.Inf(1)))
	}

	if err = d.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed connecting to %s database: %w", dialect, err)
	}

	if dialect == migrate.DialectSQLite {
		// Enable foreign key enforcement
		if _, err = d.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
			return nil, fmt.Errorf("failed enabling foreign key enforcement: %w", err)
		}
	}

	return d, nil
}

// Transact runs fn within a database transaction, committing if it returns
// nil, and rolling back otherwise.
func (d *DB) Transact(ctx context.Context, fn func(tx migrate.Execer) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed starting transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (also failed rolling back: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed committing transaction: %w", err)
	}

	return nil
}
