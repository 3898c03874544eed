package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Status is the state of a single known migration: applied, with the ledger
// timestamp, or pending. It is a read-only projection, never persisted.
type Status struct {
	Version   string
	Name      string
	AppliedAt sql.Null[time.Time]
	Applied   bool
}

// Table names are interpolated into SQL, so they are restricted to plain
// identifiers valid across all supported dialects.
var tableIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Runner applies, reverts and reports schema migrations. Every call loads
// migrations fresh from the filesystem and queries the ledger fresh, so
// sequential calls are independently safe; the runner performs no locking
// against concurrent invocations targeting the same database.
type Runner struct {
	db      Adapter
	dialect Dialect
	dir     string
	fs      vfs.FileSystem
	table   string
	logger  *slog.Logger
}

// Option is a function that allows configuring the runner.
type Option func(*Runner)

// WithFS sets the filesystem migrations are loaded from. The default is the
// OS filesystem.
func WithFS(fsys vfs.FileSystem) Option {
	return func(r *Runner) {
		r.fs = fsys
	}
}

// WithLogger sets the logger used to report applied and reverted migrations.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTable sets the ledger table name, allowing multiple logical migration
// sets to coexist in one database. The default is DefaultTable.
func WithTable(table string) Option {
	return func(r *Runner) {
		r.table = table
	}
}

// New creates a migration runner for the database behind db, reading
// migration files from dir.
func New(db Adapter, dialect Dialect, dir string, opts ...Option) (*Runner, error) {
	if err := dialect.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		db:      db,
		dialect: dialect,
		dir:     dir,
		fs:      osfs.New(),
		table:   DefaultTable,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if !tableIdent.MatchString(r.table) {
		return nil, fmt.Errorf("invalid ledger table name '%s'", r.table)
	}

	return r, nil
}

// Up applies all pending migrations in ascending version order, and returns
// the number applied. Each migration's DDL and its ledger entry are committed
// in a single transaction; on failure the run aborts immediately, leaving
// previously committed migrations applied.
func (r *Runner) Up(ctx context.Context) (int, error) {
	if err := r.ensureLedger(ctx); err != nil {
		return 0, err
	}

	migrations, err := Load(r.fs, r.dir)
	if err != nil {
		return 0, err
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	insert := r.dialect.rebind(
		fmt.Sprintf(`INSERT INTO %s (version, name) VALUES (?, ?)`, r.table))

	count := 0
	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			r.logger.Debug("skipping applied migration", "version", m.Version)
			continue
		}

		err = r.db.Transact(ctx, func(tx Execer) error {
			if _, txErr := tx.ExecContext(ctx, m.Up); txErr != nil {
				return txErr
			}
			if _, txErr := tx.ExecContext(ctx, insert, m.Version, m.Name); txErr != nil {
				return fmt.Errorf("failed recording migration in ledger: %w", txErr)
			}
			return nil
		})
		if err != nil {
			return count, StepError{Version: m.Version, Name: m.Name, Op: "apply", Err: err}
		}

		r.logger.Info("applied migration", "version", m.Version, "name", m.Name)
		count++
	}

	return count, nil
}

// Down reverts up to steps most recently applied migrations, in descending
// version order. A selected migration that is missing from the directory or
// defines no down SQL fails the run before its transaction is attempted;
// migrations already reverted in the same run stay reverted.
func (r *Runner) Down(ctx context.Context, steps int) (int, error) {
	if err := r.ensureLedger(ctx); err != nil {
		return 0, err
	}

	migrations, err := Load(r.fs, r.dir)
	if err != nil {
		return 0, err
	}
	byVersion := make(map[string]*Migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}

	versions, err := r.lastApplied(ctx, steps)
	if err != nil {
		return 0, err
	}

	del := r.dialect.rebind(
		fmt.Sprintf(`DELETE FROM %s WHERE version = ?`, r.table))

	count := 0
	for _, version := range versions {
		m, ok := byVersion[version]
		if !ok {
			return count, UnknownVersionError{Version: version}
		}
		if m.Down == "" {
			return count, MissingDownError{Version: m.Version, Name: m.Name}
		}

		err = r.db.Transact(ctx, func(tx Execer) error {
			if _, txErr := tx.ExecContext(ctx, m.Down); txErr != nil {
				return txErr
			}
			if _, txErr := tx.ExecContext(ctx, del, m.Version); txErr != nil {
				return fmt.Errorf("failed removing migration from ledger: %w", txErr)
			}
			return nil
		})
		if err != nil {
			return count, StepError{Version: m.Version, Name: m.Name, Op: "revert", Err: err}
		}

		r.logger.Info("reverted migration", "version", m.Version, "name", m.Name)
		count++
	}

	return count, nil
}

// StatusAll projects every known migration, in ascending version order, into
// its applied/pending state by joining the migrations directory against the
// ledger. It never mutates state beyond the idempotent ledger creation.
func (r *Runner) StatusAll(ctx context.Context) ([]Status, error) {
	if err := r.ensureLedger(ctx); err != nil {
		return nil, err
	}

	migrations, err := Load(r.fs, r.dir)
	if err != nil {
		return nil, err
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, len(migrations))
	for i, m := range migrations {
		s := Status{Version: m.Version, Name: m.Name}
		if at, ok := applied[m.Version]; ok {
			s.Applied = true
			s.AppliedAt = sql.Null[time.Time]{V: at, Valid: true}
		}
		statuses[i] = s
	}

	return statuses, nil
}
