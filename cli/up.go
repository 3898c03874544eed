package cli

import (
	"fmt"

	actx "go.hackfix.me/shift/app/context"
	aerrors "go.hackfix.me/shift/app/errors"
)

// The Up command applies all pending migrations in ascending version order.
type Up struct{}

// Run the up command.
func (c *Up) Run(appCtx *actx.Context, cli *CLI) error {
	runner, d, err := cli.newRunner(appCtx)
	if err != nil {
		return err
	}
	defer d.Close()

	count, err := runner.Up(appCtx.Ctx)
	if err != nil {
		return aerrors.NewWithCause("failed applying migrations", err, "applied", count)
	}

	switch count {
	case 0:
		fmt.Fprintln(appCtx.Stdout, "no pending migrations")
	case 1:
		fmt.Fprintln(appCtx.Stdout, "applied 1 migration")
	default:
		fmt.Fprintf(appCtx.Stdout, "applied %d migrations\n", count)
	}

	return nil
}
