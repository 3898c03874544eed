package main

import (
	"os"

	"github.com/adrg/xdg"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/shift/app"
	aerrors "go.hackfix.me/shift/app/errors"
)

func main() {
	configFile, err := xdg.ConfigFile("shift/config.json")
	if err != nil {
		aerrors.Log(err)
		os.Exit(1)
	}

	a, err := app.New("shift", configFile,
		app.WithFDs(
			os.Stdin,
			colorable.NewColorable(os.Stdout),
			colorable.NewColorable(os.Stderr),
		),
		app.WithFS(osfs.New()),
		app.WithLogger(isatty.IsTerminal(os.Stderr.Fd())),
	)
	if err != nil {
		aerrors.Log(err)
		os.Exit(1)
	}
	if err = a.Run(os.Args[1:]); err != nil {
		aerrors.Log(err)
		os.Exit(1)
	}
}
