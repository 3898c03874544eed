// Package cli defines the command line interface of shift.
package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/shift/app/config"
	actx "go.hackfix.me/shift/app/context"
	"go.hackfix.me/shift/migrate"
)

// CLI is the command line interface of shift.
type CLI struct {
	Up     Up     `kong:"cmd,help='Apply all pending migrations.'"`
	Down   Down   `kong:"cmd,help='Revert the most recently applied migrations.'"`
	Status Status `kong:"cmd,help='Show the applied/pending state of all migrations.'"`
	Create Create `kong:"cmd,help='Create a new migration file.'"`

	Dialect string `kong:"help='SQL dialect of the target database: sqlite, postgres or mysql.'"`
	DSN     string `kong:"help='Connection string of the target database.'"`
	Dir     string `kong:"help='Path to the migrations directory.'"`
	Table   string `kong:"help='Name of the ledger table tracking applied migrations.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: Deliberately not using kong.ConfigFlag, since configuration is
	// managed independently from the CLI, and flags must override file values.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the shift configuration file.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(version, configFile string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("shift"),
		kong.UsageOnError(),
		kong.DefaultEnvars("SHIFT"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFile,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Execute starts the command execution. Parse must be called before this
// method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx, c)
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they
// weren't already set by flags, and falls back to built-in defaults.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	if c.Dialect == "" && cfg.Database.Dialect.Valid {
		c.Dialect = cfg.Database.Dialect.V
	}
	if c.DSN == "" && cfg.Database.DSN.Valid {
		c.DSN = cfg.Database.DSN.V
	}
	if c.Dir == "" && cfg.Migrations.Dir.Valid {
		c.Dir = cfg.Migrations.Dir.V
	}
	if c.Table == "" && cfg.Migrations.Table.Valid {
		c.Table = cfg.Migrations.Table.V
	}

	if c.Dir == "" {
		c.Dir = "migrations"
	}
	if c.Table == "" {
		c.Table = migrate.DefaultTable
	}
}
