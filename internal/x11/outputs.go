package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

var (
	// ErrOutputNotFound reports an output XID the server does not know.
	ErrOutputNotFound = errors.New("randr output not found")
	// ErrOutputInactive reports an output that is not driven by a CRTC.
	ErrOutputInactive = errors.New("randr output has no active crtc")
	// ErrModeUnsupported reports a mode the output does not list.
	ErrModeUnsupported = errors.New("mode not supported by output")
)

// Output is a RandR output (a connector that may drive a display).
type Output struct {
	ID        randr.Output
	Name      string
	Connected bool
	Crtc      randr.Crtc
	// Modes is the output's mode list in server order; the first NumPreferred
	// entries are the preferred modes.
	Modes        []randr.Mode
	NumPreferred int
}

// Active reports whether the output is connected and driven by a CRTC.
func (o Output) Active() bool {
	return o.Connected && o.Crtc != 0
}

// ModeInfo describes a RandR mode.
type ModeInfo struct {
	ID          randr.Mode
	Width       int
	Height      int
	RefreshRate float64
	Interlaced  bool
	DoubleScan  bool
}

// Resources is a snapshot of the screen's RandR configuration.
type Resources struct {
	ConfigTimestamp xproto.Timestamp
	Outputs         []Output
	Crtcs           []randr.Crtc
	Modes           map[randr.Mode]ModeInfo
}

// Resources queries the current RandR screen resources and every output. The
// outputs keep the server's order.
func (c *Connection) Resources() (*Resources, error) {
	reply, err := randr.GetScreenResourcesCurrent(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	res := &Resources{
		ConfigTimestamp: reply.ConfigTimestamp,
		Crtcs:           reply.Crtcs,
		Modes:           make(map[randr.Mode]ModeInfo, len(reply.Modes)),
	}
	for _, mi := range reply.Modes {
		info := modeInfoFromRandr(mi)
		res.Modes[info.ID] = info
	}

	for _, id := range reply.Outputs {
		info, err := randr.GetOutputInfo(c.XUtil.Conn(), id, reply.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get output %d info: %w", id, err)
		}
		res.Outputs = append(res.Outputs, Output{
			ID:           id,
			Name:         string(info.Name),
			Connected:    info.Connection == randr.ConnectionConnected,
			Crtc:         info.Crtc,
			Modes:        info.Modes,
			NumPreferred: int(info.NumPreferred),
		})
	}
	return res, nil
}

// Output looks up an output by XID.
func (r *Resources) Output(id randr.Output) (Output, bool) {
	for _, o := range r.Outputs {
		if o.ID == id {
			return o, true
		}
	}
	return Output{}, false
}

// ActiveOutputs returns connected outputs driven by a CRTC. With online set,
// connected outputs without a CRTC are included too.
func (r *Resources) ActiveOutputs(online bool) []Output {
	var out []Output
	for _, o := range r.Outputs {
		if o.Active() || (online && o.Connected) {
			out = append(out, o)
		}
	}
	return out
}

// OutputModes returns the output's modes in server order. Unless
// includeDuplicates is set, interlaced and doublescan modes and modes that
// repeat the resolution of an earlier entry are dropped.
func (r *Resources) OutputModes(o Output, includeDuplicates bool) []ModeInfo {
	seen := make(map[[2]int]bool, len(o.Modes))
	modes := make([]ModeInfo, 0, len(o.Modes))
	for _, id := range o.Modes {
		info, ok := r.Modes[id]
		if !ok {
			continue
		}
		size := [2]int{info.Width, info.Height}
		if !includeDuplicates {
			if info.Interlaced || info.DoubleScan || seen[size] {
				continue
			}
		}
		seen[size] = true
		modes = append(modes, info)
	}
	return modes
}

// PrimaryOutput returns the screen's primary output. When none is set, or the
// server still names an output that was turned off, the first active output
// is used.
func (c *Connection) PrimaryOutput(res *Resources) (randr.Output, error) {
	reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to get primary output: %w", err)
	}
	return res.primaryOrFirstActive(reply.Output), nil
}

func (r *Resources) primaryOrFirstActive(primary randr.Output) randr.Output {
	if o, ok := r.Output(primary); ok && o.Active() {
		return primary
	}
	if active := r.ActiveOutputs(false); len(active) > 0 {
		return active[0].ID
	}
	return 0
}

// CurrentMode returns the mode the output's CRTC is scanning out.
func (c *Connection) CurrentMode(res *Resources, id randr.Output) (ModeInfo, error) {
	o, ok := res.Output(id)
	if !ok {
		return ModeInfo{}, ErrOutputNotFound
	}
	if !o.Active() {
		return ModeInfo{}, ErrOutputInactive
	}
	crtc, err := randr.GetCrtcInfo(c.XUtil.Conn(), o.Crtc, res.ConfigTimestamp).Reply()
	if err != nil {
		return ModeInfo{}, fmt.Errorf("failed to get crtc %d info: %w", o.Crtc, err)
	}
	info, ok := res.Modes[crtc.Mode]
	if !ok {
		return ModeInfo{}, fmt.Errorf("crtc %d: %w", o.Crtc, ErrModeUnsupported)
	}
	return info, nil
}

func modeInfoFromRandr(mi randr.ModeInfo) ModeInfo {
	return ModeInfo{
		ID:          randr.Mode(mi.Id),
		Width:       int(mi.Width),
		Height:      int(mi.Height),
		RefreshRate: refreshRate(mi),
		Interlaced:  mi.ModeFlags&randr.ModeFlagInterlace != 0,
		DoubleScan:  mi.ModeFlags&randr.ModeFlagDoubleScan != 0,
	}
}

// refreshRate computes the vertical refresh in Hz the way xrandr does.
func refreshRate(mi randr.ModeInfo) float64 {
	vtotal := float64(mi.Vtotal)
	if mi.ModeFlags&randr.ModeFlagDoubleScan != 0 {
		vtotal *= 2
	}
	if mi.ModeFlags&randr.ModeFlagInterlace != 0 {
		vtotal /= 2
	}
	if mi.Htotal == 0 || vtotal == 0 {
		return 0
	}
	return float64(mi.DotClock) / (float64(mi.Htotal) * vtotal)
}
