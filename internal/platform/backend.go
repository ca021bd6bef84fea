// Package platform binds the display core to the operating system's display
// manager: X11 RandR on Linux and CoreGraphics on macOS.
package platform

import (
	"io"
	"log/slog"
	"time"

	"github.com/1broseidon/displix/internal/display"
)

// Fade configures the brightness ramp played around a mode switch. Backends
// without gamma control ignore it.
type Fade struct {
	Enabled  bool
	Steps    int
	Duration time.Duration
}

// Options configures Open.
type Options struct {
	Logger *slog.Logger
	// Display and XAuthority are used by the X11 backend when the process
	// environment does not name a server.
	Display    string
	XAuthority string
	Fade       Fade
}

// Backend is a display subsystem bound to an open connection.
type Backend interface {
	display.Subsystem
	Close() error
}

// Open connects to the platform display subsystem. Errors carry a
// display.Code.
func Open(opts Options) (Backend, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return open(opts)
}
