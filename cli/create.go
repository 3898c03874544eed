package cli

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/shift/app/context"
	aerrors "go.hackfix.me/shift/app/errors"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

const migrationTemplate = `-- add up SQL here

-- migration: down

-- add down SQL here
`

// The Create command scaffolds a new migration file in the migrations
// directory, named with the current UTC timestamp as its version.
type Create struct {
	Name string `arg:"" help:"Short descriptive name of the migration, e.g. 'create users'."`
}

// Run the create command.
func (c *Create) Run(appCtx *actx.Context, cli *CLI) error {
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(c.Name), "_"), "_")
	if slug == "" {
		return fmt.Errorf("invalid migration name '%s'", c.Name)
	}

	version := appCtx.TimeNow().UTC().Format("20060102_150405")
	path := filepath.Join(cli.Dir, fmt.Sprintf("%s_%s.sql", version, slug))

	if _, err := appCtx.FS.Stat(path); err == nil {
		return fmt.Errorf("migration file '%s' already exists", path)
	} else if !vfs.IsErrNotExist(err) {
		return aerrors.NewWithCause("failed checking migration file", err, "path", path)
	}

	if err := appCtx.FS.MkdirAll(cli.Dir, 0o755); err != nil {
		return aerrors.NewWithCause("failed creating migrations directory", err, "dir", cli.Dir)
	}
	if err := vfs.WriteFile(appCtx.FS, path, []byte(migrationTemplate), 0o644); err != nil {
		return aerrors.NewWithCause("failed writing migration file", err, "path", path)
	}

	fmt.Fprintf(appCtx.Stdout, "created %s\n", path)

	return nil
}
