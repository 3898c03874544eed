package migrate

import "fmt"

// DuplicateVersionError is returned by the loader when two migration files
// map to the same version. Versions are the ledger key, so the conflict must
// be resolved before anything is applied.
type DuplicateVersionError struct {
	Version string
	Files   []string
}

// Error returns a string representation of the error.
func (e DuplicateVersionError) Error() string {
	return fmt.Sprintf("duplicate migration version %s in files %v", e.Version, e.Files)
}

// EmptyMigrationError is returned by the loader when a migration file
// contains no up SQL after comment filtering.
type EmptyMigrationError struct {
	File string
}

// Error returns a string representation of the error.
func (e EmptyMigrationError) Error() string {
	return fmt.Sprintf("migration file '%s' contains no up SQL", e.File)
}

// MissingDownError is returned on rollback when a migration selected for
// revert defines no down SQL. Skipping it would leave a gap in the rollback
// sequence, so the whole run is aborted instead.
type MissingDownError struct {
	Version string
	Name    string
}

// Error returns a string representation of the error.
func (e MissingDownError) Error() string {
	return fmt.Sprintf("migration %s_%s has no down SQL", e.Version, e.Name)
}

// UnknownVersionError is returned on rollback when the ledger records a
// version that no file in the migrations directory provides.
type UnknownVersionError struct {
	Version string
}

// Error returns a string representation of the error.
func (e UnknownVersionError) Error() string {
	return fmt.Sprintf("applied migration %s not found in the migrations directory", e.Version)
}

// StepError wraps a failure of a single migration transaction, identifying
// the failing migration and the direction it was running in.
type StepError struct {
	Version string
	Name    string
	Op      string // "apply" or "revert"
	Err     error
}

// Error returns a string representation of the error.
func (e StepError) Error() string {
	return fmt.Sprintf("failed to %s migration %s_%s: %s", e.Op, e.Version, e.Name, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e StepError) Unwrap() error {
	return e.Err
}
