package cli

import (
	"errors"

	actx "go.hackfix.me/shift/app/context"
	"go.hackfix.me/shift/db"
	"go.hackfix.me/shift/migrate"
)

// newRunner opens a database connection for the configured dialect and
// creates a migration runner over it. The caller is responsible for closing
// the returned DB.
func (c *CLI) newRunner(appCtx *actx.Context) (*migrate.Runner, *db.DB, error) {
	if c.Dialect == "" {
		return nil, nil, errors.New("no database dialect configured; set --dialect or the config file")
	}
	if c.DSN == "" {
		return nil, nil, errors.New("no database DSN configured; set --dsn or the config file")
	}

	dialect := migrate.Dialect(c.Dialect)
	d, err := db.Open(appCtx.Ctx, dialect, c.DSN)
	if err != nil {
		return nil, nil, err
	}

	runner, err := migrate.New(d, dialect, c.Dir,
		migrate.WithFS(appCtx.FS),
		migrate.WithLogger(appCtx.Logger),
		migrate.WithTable(c.Table),
	)
	if err != nil {
		_ = d.Close()
		return nil, nil, err
	}

	return runner, d, nil
}
