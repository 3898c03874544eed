// Package app wires the application together: CLI, configuration, logging
// and the shared context.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/shift/app/config"
	actx "go.hackfix.me/shift/app/context"
	"go.hackfix.me/shift/cli"
)

// App is the application.
type App struct {
	name string
	ctx  *actx.Context
	cli  *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with
	// the WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application.
func New(name, configFile string, opts ...Option) (*App, error) {
	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		TimeNow: time.Now,
		Version: actx.GetVersion(),
	}
	app := &App{name: name, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	var err error
	app.cli, err = cli.New(fmt.Sprintf("%s %s", app.name, app.ctx.Version), configFile)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	cfg := config.New(app.ctx.FS, app.cli.ConfigFile)
	if err := cfg.Load(); err != nil {
		return err
	}
	app.ctx.Config = cfg
	app.cli.ApplyConfig(cfg)

	return app.cli.Execute(app.ctx)
}
