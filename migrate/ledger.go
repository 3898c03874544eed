package migrate

import (
	"context"
	"fmt"
	"time"
)

// DefaultTable is the ledger table name used unless the runner is configured
// with another one.
const DefaultTable = "_migrations"

// Column types differ per dialect; everything else about the ledger schema is
// shared: the version is the primary key, and applied_at is assigned by the
// database server on insert.
var ledgerDDL = map[Dialect]string{
	DialectSQLite: `CREATE TABLE IF NOT EXISTS %s (
		version    TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	DialectPostgres: `CREATE TABLE IF NOT EXISTS %s (
		version    VARCHAR(255) PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	DialectMySQL: `CREATE TABLE IF NOT EXISTS %s (
		version    VARCHAR(255) PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// ensureLedger idempotently creates the ledger table. It is called on every
// engine entry point, and is a no-op after the first successful call. It runs
// outside any transaction; most databases auto-commit DDL anyway.
func (r *Runner) ensureLedger(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(ledgerDDL[r.dialect], r.table))
	if err != nil {
		return fmt.Errorf("failed creating ledger table '%s': %w", r.table, err)
	}

	return nil
}

// appliedVersions returns all ledger entries as a version -> applied_at map.
func (r *Runner) appliedVersions(ctx context.Context) (map[string]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT version, applied_at FROM %s`, r.table))
	if err != nil {
		return nil, fmt.Errorf("failed querying ledger table '%s': %w", r.table, err)
	}
	defer rows.Close()

	applied := map[string]time.Time{}
	for rows.Next() {
		var (
			version   string
			appliedAt time.Time
		)
		if err = rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed scanning ledger row: %w", err)
		}
		applied[version] = appliedAt
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading ledger rows: %w", err)
	}

	return applied, nil
}

// lastApplied returns up to n most recently applied versions, most recent
// first. Ordering is by version string, not wall-clock applied_at, though the
// two coincide since versions are timestamp-prefixed.
func (r *Runner) lastApplied(ctx context.Context, n int) ([]string, error) {
	query := r.dialect.rebind(
		fmt.Sprintf(`SELECT version FROM %s ORDER BY version DESC LIMIT ?`, r.table))
	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed querying ledger table '%s': %w", r.table, err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err = rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed scanning ledger row: %w", err)
		}
		versions = append(versions, version)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading ledger rows: %w", err)
	}

	return versions, nil
}
