package migrate_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/shift/db"
	"go.hackfix.me/shift/migrate"
)

const (
	accountsFile = "20231207_120000_create_accounts.sql"
	usersFile    = "20231207_120001_create_users.sql"

	accountsSQL = "CREATE TABLE accounts (id INTEGER PRIMARY KEY);\n" +
		"-- migration: down\n" +
		"DROP TABLE accounts;\n"
	usersSQL = "CREATE TABLE users (id INTEGER PRIMARY KEY);\n" +
		"-- migration: down\n" +
		"DROP TABLE users;\n"
)

func newTestEnv(t *testing.T, opts ...migrate.Option) (*migrate.Runner, vfs.FileSystem, *db.DB) {
	t.Helper()

	// A unique name per test, to avoid clashing of in-memory SQLite DBs.
	rndName := make([]byte, 12)
	_, err := rand.Read(rndName)
	require.NoError(t, err)

	// Not using just :memory: to avoid 'no such table' issue.
	// See https://github.com/mattn/go-sqlite3#faq
	d, err := db.Open(context.Background(), migrate.DialectSQLite,
		fmt.Sprintf("file:shift-%x?mode=memory&cache=shared", rndName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	fsys := memoryfs.New()
	require.NoError(t, fsys.MkdirAll("/migrations", 0o755))

	opts = append([]migrate.Option{
		migrate.WithFS(fsys),
		migrate.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)
	runner, err := migrate.New(d, migrate.DialectSQLite, "/migrations", opts...)
	require.NoError(t, err)

	return runner, fsys, d
}

func writeMigration(t *testing.T, fsys vfs.FileSystem, name, contents string) {
	t.Helper()
	require.NoError(t, vfs.WriteFile(fsys, "/migrations/"+name, []byte(contents), 0o644))
}

func tableExists(t *testing.T, d *db.DB, name string) bool {
	t.Helper()
	var count int
	err := d.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).
		Scan(&count)
	require.NoError(t, err)
	return count > 0
}

func ledgerVersions(t *testing.T, d *db.DB, table string) []string {
	t.Helper()
	rows, err := d.QueryContext(context.Background(),
		fmt.Sprintf(`SELECT version FROM %s ORDER BY version`, table))
	require.NoError(t, err)
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	require.NoError(t, rows.Err())
	return versions
}

func TestRunnerStatusBeforeUp(t *testing.T) {
	t.Parallel()
	runner, fsys, _ := newTestEnv(t)
	writeMigration(t, fsys, accountsFile, accountsSQL)
	writeMigration(t, fsys, usersFile, usersSQL)

	statuses, err := runner.StatusAll(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.False(t, s.Applied)
		assert.False(t, s.AppliedAt.Valid)
	}
	assert.Equal(t, "20231207_120000", statuses[0].Version)
	assert.Equal(t, "create_accounts", statuses[0].Name)
	assert.Equal(t, "20231207_120001", statuses[1].Version)
	assert.Equal(t, "create_users", statuses[1].Name)
}

func TestRunnerUp(t *testing.T) {
	t.Parallel()
	runner, fsys, d := newTestEnv(t)
	writeMigration(t, fsys, accountsFile, accountsSQL)
	writeMigration(t, fsys, usersFile, usersSQL)

	count, err := runner.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.True(t, tableExists(t, d, "accounts"))
	assert.True(t, tableExists(t, d, "users"))
	assert.Equal(t, []string{"20231207_120000", "20231207_120001"},
		ledgerVersions(t, d, migrate.DefaultTable))

	statuses, err := runner.StatusAll(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Applied)
		assert.True(t, s.AppliedAt.Valid)
	}
}

func TestRunnerUpIdempotent(t *testing.T) {
	t.Parallel()
	runner, fsys, d := newTestEnv(t)
	writeMigration(t, fsys, accountsFile, accountsSQL)
	writeMigration(t, fsys, usersFile, usersSQL)

	count, err := runner.Up(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = runner.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, []string{"20231207_120000", "20231207_120001"},
		ledgerVersions(t, d, migrate.DefaultTable))
}

func TestRunnerUpEmptyDirectory(t *testing.T) {
	t.Parallel()
	runner, _, _ := newTestEnv(t)

	count, err := runner.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunnerUpFailureAbortsRun(t *testing.T) {
	t.Parallel()
	runner, fsys, d := newTestEnv(t)
	writeMigration(t, fsys, accountsFile, accountsSQL)
	writeMigration(t, fsys, usersFile, "CREATE BOGUS SYNTAX;")
	writeMigration(t, fsys, "20231207_120002_create_orders.sql",
		"CREATE TABLE orders (id INTEGER PRIMARY KEY);")

	count, err := runner.Up(context.Background())
	var stepErr migrate.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "20231207_120001", stepErr.Version)
	assert.Equal(t, "create_users", stepErr.Name)
	assert.Equal(t, "apply", stepErr.Op)

	// The first migration stays committed, the failing one left no trace, and
	// the one after it was never attempted.
	assert.Equal(t, 1, count)
	assert.True(t, tableExists(t, d, "accounts"))
	assert.False(t, tableExists(t, d, "orders"))
	assert.Equal(t, []string{"20231207_120000"}, ledgerVersions(t, d, migrate.DefaultTable))
}

func TestRunnerDown(t *testing.T) {
	t.Parallel()
	runner, fsys, d := newTestEnv(t)
	writeMigration(t, fsys, accountsFile, accountsSQL)
	writeMigration(t, fsys, usersFile, usersSQL)

	_, err := runner.Up(context.Background())
	require.NoError(t, err)

	count, err := runner.Down(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Only the most recently applied migration is reverted.
	assert.True(t, tableExists(t, d, "accounts"))
	assert.False(t, tableExists(t, d, "users"))
	assert.Equal(t, []string{"20231207_120000"}, ledgerVersions(t, d, migrate.DefaultTable))

	statuses, err := runner.StatusAll(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[1].Applied)
}

func TestRunnerDownMoreStepsThanApplied(t *testing.T) {
	t.Parallel()
	runner, fsys, d := newTestEnv(t)
	writeMigration(t, fsys, accountsFile, accountsSQL)
	writeMigration(t, fsys, usersFile, usersSQL)

	_, err := runner.Up(context.Background())
	require.NoError(t, err)

	count, err := runner.Down(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.False(t, tableExists(t, d, "accounts"))
	assert.False(t, tableExists(t, d, "users"))
	assert.Empty(t, ledgerVersions(t, d, migrate.DefaultTable))
}

func TestRunnerDownNothingApplied(t *testing.T) {
	t.Parallel()
	runner, fsys, _ := newTestEnv(t)
	writeMigration(t, fsys, accountsFile, accountsSQL)

	count, err := runner.Down(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunnerDownMissingDownSQL(t *testing.T) {
	t.Parallel()
	runner, fsys, d := newTestEnv(t)
	writeMigration(t, fsys, accountsFile,
		"CREATE TABLE accounts (id INTEGER PRIMARY KEY);")

	_, err := runner.Up(context.Background())
	require.NoError(t, err)

	count, err := runner.Down(context.Background(), 1)
	var missingErr migrate.MissingDownError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "20231207_120000", missingErr.Version)

	// The failed step mutated nothing.
	assert.Equal(t, 0, count)
	assert.True(t, tableExists(t, d, "accounts"))
	assert.Equal(t, []string{"20231207_120000"}, ledgerVersions(t, d, migrate.DefaultTable))
}

func TestRunnerDownUnknownVersion(t *testing.T) {
	t.Parallel()
	runner, fsys, _ := newTestEnv(t)
	writeMigration(t, fsys, accountsFile, accountsSQL)

	_, err := runner.Up(context.Background())
	require.NoError(t, err)

	// The applied migration's file disappears from the directory.
	require.NoError(t, fsys.Remove("/migrations/"+accountsFile))

	_, err = runner.Down(context.Background(), 1)
	var unknownErr migrate.UnknownVersionError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "20231207_120000", unknownErr.Version)
}

func TestRunnerRoundTrip(t *testing.T) {
	t.Parallel()
	runner, fsys, d := newTestEnv(t)
	writeMigration(t, fsys, accountsFile, accountsSQL)

	_, err := runner.Up(context.Background())
	require.NoError(t, err)
	require.True(t, tableExists(t, d, "accounts"))

	_, err = runner.Down(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, tableExists(t, d, "accounts"))
	assert.Empty(t, ledgerVersions(t, d, migrate.DefaultTable))
}

func TestRunnerCustomLedgerTable(t *testing.T) {
	t.Parallel()
	runner, fsys, d := newTestEnv(t, migrate.WithTable("billing_migrations"))
	writeMigration(t, fsys, accountsFile, accountsSQL)

	count, err := runner.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, tableExists(t, d, "billing_migrations"))
	assert.Equal(t, []string{"20231207_120000"}, ledgerVersions(t, d, "billing_migrations"))
}

func TestRunnerInvalidOptions(t *testing.T) {
	t.Parallel()
	_, _, d := newTestEnv(t)

	_, err := migrate.New(d, migrate.Dialect("oracle"), "/migrations")
	assert.EqualError(t, err, "unsupported dialect 'oracle'")

	_, err = migrate.New(d, migrate.DialectSQLite, "/migrations",
		migrate.WithTable("bad-name; DROP TABLE users"))
	assert.EqualError(t, err, "invalid ledger table name 'bad-name; DROP TABLE users'")
}
