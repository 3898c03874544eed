package cli

import (
	actx "go.hackfix.me/shift/app/context"
	aerrors "go.hackfix.me/shift/app/errors"
)

// The Status command shows the applied/pending state of all migrations in
// the migrations directory, in ascending version order.
type Status struct{}

// Run the status command.
func (c *Status) Run(appCtx *actx.Context, cli *CLI) error {
	runner, d, err := cli.newRunner(appCtx)
	if err != nil {
		return err
	}
	defer d.Close()

	statuses, err := runner.StatusAll(appCtx.Ctx)
	if err != nil {
		return aerrors.NewWithCause("failed getting migration status", err)
	}
	if len(statuses) == 0 {
		return nil
	}

	data := make([][]string, len(statuses))
	for i, s := range statuses {
		state, appliedAt := "pending", ""
		if s.Applied {
			state = "applied"
			appliedAt = s.AppliedAt.V.UTC().Format("2006-01-02 15:04:05")
		}
		data[i] = []string{s.Version, s.Name, state, appliedAt}
	}

	header := []string{"Version", "Name", "Status", "Applied At"}
	if err = renderTable(header, data, appCtx.Stdout); err != nil {
		return aerrors.NewWithCause("failed rendering status table", err)
	}

	return nil
}
