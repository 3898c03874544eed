// Package config manages the application configuration file.
package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Config represents the application configuration, backed by a filesystem for
// persistence. Values left unset in the file remain invalid sql.Null values,
// so CLI flags and built-in defaults can fill them in.
type Config struct {
	Database   Database
	Migrations Migrations

	fs   vfs.FileSystem
	path string
}

// Database defines the connection options for the target database.
type Database struct {
	// Dialect is the SQL variant of the target database:
	// sqlite, postgres or mysql.
	Dialect sql.Null[string] `json:"dialect"`
	// DSN is the driver-specific connection string.
	DSN sql.Null[string] `json:"dsn"`
}

// Migrations defines options for the migration engine.
type Migrations struct {
	// Dir is the path to the directory containing migration files.
	Dir sql.Null[string] `json:"dir"`
	// Table is the name of the ledger table tracking applied migrations.
	Table sql.Null[string] `json:"table"`
}

// New creates a new Config instance with the specified filesystem and
// configuration file path.
func New(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem. If the
// file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

type cfgWrapper struct {
	Database   dbCfgWrapper  `json:"database"`
	Migrations migCfgWrapper `json:"migrations"`
}
type dbCfgWrapper struct {
	Dialect string `json:"dialect,omitempty"`
	DSN     string `json:"dsn,omitempty"`
}
type migCfgWrapper struct {
	Dir   string `json:"dir,omitempty"`
	Table string `json:"table,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values to
// their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}

	if c.Database.Dialect.Valid {
		w.Database.Dialect = c.Database.Dialect.V
	}
	if c.Database.DSN.Valid {
		w.Database.DSN = c.Database.DSN.V
	}
	if c.Migrations.Dir.Valid {
		w.Migrations.Dir = c.Migrations.Dir.V
	}
	if c.Migrations.Table.Valid {
		w.Migrations.Table = c.Migrations.Table.V
	}

	//nolint:wrapcheck // This is wrapped by the caller.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling, marking only fields
// present in the file as valid.
func (c *Config) UnmarshalJSON(data []byte) error {
	w := cfgWrapper{}
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is wrapped by the caller.
		return err
	}

	if w.Database.Dialect != "" {
		c.Database.Dialect = sql.Null[string]{V: w.Database.Dialect, Valid: true}
	}
	if w.Database.DSN != "" {
		c.Database.DSN = sql.Null[string]{V: w.Database.DSN, Valid: true}
	}
	if w.Migrations.Dir != "" {
		c.Migrations.Dir = sql.Null[string]{V: w.Migrations.Dir, Valid: true}
	}
	if w.Migrations.Table != "" {
		c.Migrations.Table = sql.Null[string]{V: w.Migrations.Table, Valid: true}
	}

	return nil
}
