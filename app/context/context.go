// Package context defines the shared application context.
package context

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/shift/app/config"
)

// Context contains common objects used by the application. It is passed
// around the application to avoid direct dependencies on external systems,
// and make testing easier.
type Context struct {
	Ctx     context.Context // global context
	FS      vfs.FileSystem  // filesystem
	Logger  *slog.Logger    // global logger
	Config  *config.Config
	TimeNow func() time.Time

	// Standard streams
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Metadata
	Version string
}
