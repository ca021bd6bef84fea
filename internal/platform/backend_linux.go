//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/displix/internal/display"
	"github.com/1broseidon/displix/internal/x11"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

var (
	resolveEnvFn    = x11.ResolveEnv
	newConnectionFn = x11.NewConnection
)

// LinuxBackend exposes the outputs of an X11 screen through RandR. A display
// is a RandR output and a mode is a RandR mode XID.
type LinuxBackend struct {
	conn   *x11.Connection
	fade   x11.Fade
	logger *slog.Logger
}

var _ Backend = (*LinuxBackend)(nil)

func open(opts Options) (Backend, error) {
	env, err := resolveEnvFn(opts.Display, opts.XAuthority)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", display.InvalidConnection, err)
	}
	conn, err := newConnectionFn(env, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to X11 display %q: %w", display.InvalidConnection, env.Display, err)
	}
	return NewLinuxBackend(conn, opts), nil
}

// NewLinuxBackend wraps an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection, opts Options) *LinuxBackend {
	logger := opts.Logger
	if logger == nil {
		logger = conn.Logger
	}
	return &LinuxBackend{
		conn: conn,
		fade: x11.Fade{
			Enabled:  opts.Fade.Enabled,
			Steps:    opts.Fade.Steps,
			Duration: opts.Fade.Duration,
		},
		logger: logger,
	}
}

// Close disconnects from the X server.
func (b *LinuxBackend) Close() error {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
	return nil
}

// DisplayList reports connected outputs driven by a CRTC, or every connected
// output for OnlineDisplays.
func (b *LinuxBackend) DisplayList(kind display.ListKind, ids []display.ID) (int, error) {
	res, err := b.conn.Resources()
	if err != nil {
		return 0, wrapErr(err)
	}
	outputs := res.ActiveOutputs(kind == display.OnlineDisplays)
	for i, o := range outputs {
		if i >= len(ids) {
			break
		}
		ids[i] = display.ID(o.ID)
	}
	return len(outputs), nil
}

// MainDisplay returns the primary output, or 0 when the screen has none.
func (b *LinuxBackend) MainDisplay() display.ID {
	res, err := b.conn.Resources()
	if err != nil {
		b.logger.Debug("primary output lookup failed", "error", err)
		return 0
	}
	id, err := b.conn.PrimaryOutput(res)
	if err != nil {
		b.logger.Debug("primary output lookup failed", "error", err)
		return 0
	}
	return display.ID(id)
}

// CopyAllModes returns the output's modes in server order.
func (b *LinuxBackend) CopyAllModes(id display.ID, opts display.ModeOptions) (display.ModeArray, error) {
	res, err := b.conn.Resources()
	if err != nil {
		return nil, wrapErr(err)
	}
	o, ok := res.Output(randr.Output(id))
	if !ok {
		return nil, wrapErr(fmt.Errorf("output %d: %w", id, x11.ErrOutputNotFound))
	}
	return &modeArray{modes: res.OutputModes(o, opts.IncludeLowResDuplicates)}, nil
}

// CurrentMode returns the mode the output's CRTC is scanning out.
func (b *LinuxBackend) CurrentMode(id display.ID) (display.Mode, error) {
	res, err := b.conn.Resources()
	if err != nil {
		return display.Mode{}, wrapErr(err)
	}
	info, err := b.conn.CurrentMode(res, randr.Output(id))
	if err != nil {
		return display.Mode{}, wrapErr(err)
	}
	return toMode(-1, info), nil
}

// BeginConfiguration grabs the X server for a configuration transaction.
func (b *LinuxBackend) BeginConfiguration() (display.ConfigRef, error) {
	tx, err := b.conn.BeginConfiguration(b.fade)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &configRef{tx: tx}, nil
}

type configRef struct {
	tx *x11.ConfigTransaction
}

func (r *configRef) ConfigureWithMode(id display.ID, mode display.Mode) error {
	return wrapErr(r.tx.Stage(randr.Output(id), randr.Mode(mode.ID)))
}

func (r *configRef) Complete() error {
	return wrapErr(r.tx.Complete())
}

func (r *configRef) Cancel() error {
	return wrapErr(r.tx.Cancel())
}

type modeArray struct {
	modes    []x11.ModeInfo
	released bool
}

func (a *modeArray) Count() int {
	return len(a.modes)
}

func (a *modeArray) Mode(i int) display.Mode {
	if a.released {
		panic("platform: mode array used after release")
	}
	return toMode(i, a.modes[i])
}

func (a *modeArray) Release() {
	a.released = true
	a.modes = nil
}

func toMode(index int, info x11.ModeInfo) display.Mode {
	return display.Mode{
		Index:       index,
		ID:          uint32(info.ID),
		Width:       info.Width,
		Height:      info.Height,
		RefreshRate: info.RefreshRate,
	}
}

// wrapErr attaches the matching display.Code to an X11 error, keeping the
// original message.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var code display.Code
	if errors.As(err, &code) {
		return err
	}
	return fmt.Errorf("%w: %w", codeFor(err), err)
}

// codeFor maps X11 and RandR failures onto display codes.
func codeFor(err error) display.Code {
	var setErr *x11.SetConfigError
	switch {
	case errors.Is(err, x11.ErrOutputNotFound), errors.Is(err, x11.ErrModeUnsupported):
		return display.IllegalArgument
	case errors.Is(err, x11.ErrOutputInactive), errors.Is(err, x11.ErrTransactionDone):
		return display.InvalidOperation
	case errors.As(err, &setErr):
		if setErr.Status == randr.SetConfigFailed {
			return display.Failure
		}
		// The screen changed after the transaction snapshot was taken.
		return display.CannotComplete
	}

	var xerr xgb.Error
	if !errors.As(err, &xerr) {
		return display.Failure
	}
	switch xerr.(type) {
	case xproto.MatchError, randr.BadOutputError, randr.BadCrtcError, randr.BadModeError, xproto.WindowError:
		return display.IllegalArgument
	case xproto.ValueError, xproto.LengthError:
		return display.RangeCheck
	case xproto.AccessError:
		return display.InvalidOperation
	case xproto.ImplementationError, xproto.RequestError:
		return display.NotImplemented
	case xproto.AllocError:
		return display.NoneAvailable
	default:
		return display.Failure
	}
}
