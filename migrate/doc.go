// Package migrate implements the schema migration engine.
//
// Features:
// - Supports both forward (`up`) and rollback (`down`) migrations
// - Loads SQL migration files from any vfs filesystem with structured naming
//   (`{version}_{name}.sql`), where the version is a sortable timestamp
// - Tracks applied migrations in a configurable ledger table
// - Applies and reverts migrations in strict version order, one transaction
//   per migration
// - Reports the applied/pending state of every known migration
//
// The engine talks to the database exclusively through the Adapter interface,
// and never opens or closes connections itself.
package migrate
