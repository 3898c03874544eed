package cli

import (
	"errors"
	"fmt"

	actx "go.hackfix.me/shift/app/context"
	aerrors "go.hackfix.me/shift/app/errors"
)

// The Down command reverts the most recently applied migrations, most recent
// first.
type Down struct {
	Steps int `arg:"" optional:"" default:"1" help:"Number of migrations to revert."`
}

// Run the down command.
func (c *Down) Run(appCtx *actx.Context, cli *CLI) error {
	if c.Steps < 1 {
		return errors.New("steps must be greater than 0")
	}

	runner, d, err := cli.newRunner(appCtx)
	if err != nil {
		return err
	}
	defer d.Close()

	count, err := runner.Down(appCtx.Ctx, c.Steps)
	if err != nil {
		return aerrors.NewWithCause("failed reverting migrations", err, "reverted", count)
	}

	switch count {
	case 0:
		fmt.Fprintln(appCtx.Stdout, "no applied migrations")
	case 1:
		fmt.Fprintln(appCtx.Stdout, "reverted 1 migration")
	default:
		fmt.Fprintf(appCtx.Stdout, "reverted %d migrations\n", count)
	}

	return nil
}
