package x11

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// Connection manages the X11 connection and the RandR extension.
type Connection struct {
	XUtil  *xgbutil.XUtil
	Root   xproto.Window
	Logger *slog.Logger
}

// NewConnection connects to the X server described by env and initializes
// RandR. An empty env.Display falls back to $DISPLAY.
func NewConnection(env Env, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	// xgb reads the authority file from the environment.
	if env.XAuthority != "" && os.Getenv("XAUTHORITY") == "" {
		if err := os.Setenv("XAUTHORITY", env.XAuthority); err != nil {
			return nil, fmt.Errorf("failed to set XAUTHORITY: %w", err)
		}
	}

	xu, err := xgbutil.NewConnDisplay(env.Display)
	if err != nil {
		return nil, err
	}

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	logger.Debug("connected to X server", "display", env.Display)
	return &Connection{
		XUtil:  xu,
		Root:   xu.RootWin(),
		Logger: logger,
	}, nil
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
