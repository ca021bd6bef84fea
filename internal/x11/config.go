package x11

import (
	"errors"
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// ErrTransactionDone reports use of a completed or cancelled transaction.
var ErrTransactionDone = errors.New("randr configuration already finished")

// SetConfigError carries a non-success RandR SetCrtcConfig status.
type SetConfigError struct {
	Crtc   randr.Crtc
	Status byte
}

func (e *SetConfigError) Error() string {
	name := "failed"
	switch e.Status {
	case randr.SetConfigInvalidConfigTime:
		name = "invalid config time"
	case randr.SetConfigInvalidTime:
		name = "invalid time"
	}
	return fmt.Sprintf("set crtc %d config: %s", e.Crtc, name)
}

type crtcChange struct {
	crtc randr.Crtc
	info *randr.GetCrtcInfoReply
	mode ModeInfo
}

// ConfigTransaction is a server-grabbed RandR reconfiguration. Nothing is
// sent to the server until Complete.
type ConfigTransaction struct {
	c       *Connection
	res     *Resources
	fade    Fade
	pending []crtcChange
	done    bool
}

// BeginConfiguration grabs the server and snapshots the screen resources.
func (c *Connection) BeginConfiguration(fade Fade) (*ConfigTransaction, error) {
	if err := xproto.GrabServerChecked(c.XUtil.Conn()).Check(); err != nil {
		return nil, fmt.Errorf("failed to grab server: %w", err)
	}
	res, err := c.Resources()
	if err != nil {
		c.ungrab()
		return nil, err
	}
	return &ConfigTransaction{c: c, res: res, fade: fade}, nil
}

// Stage records a mode change for an output. The output must be active and
// list the mode.
func (t *ConfigTransaction) Stage(id randr.Output, mode randr.Mode) error {
	if t.done {
		return ErrTransactionDone
	}
	o, ok := t.res.Output(id)
	if !ok {
		return fmt.Errorf("output %d: %w", id, ErrOutputNotFound)
	}
	if !o.Active() {
		return fmt.Errorf("output %d: %w", id, ErrOutputInactive)
	}
	if !containsMode(o.Modes, mode) {
		return fmt.Errorf("output %d mode %d: %w", id, mode, ErrModeUnsupported)
	}
	info, ok := t.res.Modes[mode]
	if !ok {
		return fmt.Errorf("output %d mode %d: %w", id, mode, ErrModeUnsupported)
	}

	for i := range t.pending {
		if t.pending[i].crtc == o.Crtc {
			t.pending[i].mode = info
			return nil
		}
	}

	crtc, err := randr.GetCrtcInfo(t.c.XUtil.Conn(), o.Crtc, t.res.ConfigTimestamp).Reply()
	if err != nil {
		return fmt.Errorf("failed to get crtc %d info: %w", o.Crtc, err)
	}
	t.pending = append(t.pending, crtcChange{crtc: o.Crtc, info: crtc, mode: info})
	return nil
}

// Complete applies the staged changes, resizing the screen around them, and
// releases the server grab.
func (t *ConfigTransaction) Complete() error {
	if t.done {
		return ErrTransactionDone
	}
	t.done = true
	defer t.c.ungrab()

	if len(t.pending) == 0 {
		return nil
	}

	geoms, err := t.crtcGeometries()
	if err != nil {
		return err
	}
	newW, newH := screenSize(geoms)

	root, err := xproto.GetGeometry(t.c.XUtil.Conn(), xproto.Drawable(t.c.Root)).Reply()
	if err != nil {
		return fmt.Errorf("failed to get root geometry: %w", err)
	}
	curW, curH := int(root.Width), int(root.Height)

	ramps := t.fadeOut()
	defer t.fadeIn(ramps)

	// Grow first so every crtc fits while it is being reconfigured.
	if growW, growH := max(curW, newW), max(curH, newH); growW != curW || growH != curH {
		if err := t.setScreenSize(growW, growH, curW, curH); err != nil {
			return err
		}
	}

	for _, ch := range t.pending {
		reply, err := randr.SetCrtcConfig(
			t.c.XUtil.Conn(),
			ch.crtc,
			xproto.TimeCurrentTime,
			t.res.ConfigTimestamp,
			ch.info.X,
			ch.info.Y,
			ch.mode.ID,
			ch.info.Rotation,
			ch.info.Outputs,
		).Reply()
		if err != nil {
			return fmt.Errorf("failed to set crtc %d config: %w", ch.crtc, err)
		}
		if reply.Status != randr.SetConfigSuccess {
			return &SetConfigError{Crtc: ch.crtc, Status: reply.Status}
		}
		t.c.Logger.Debug("crtc reconfigured",
			"crtc", ch.crtc,
			"width", ch.mode.Width,
			"height", ch.mode.Height,
		)
	}

	if newW != max(curW, newW) || newH != max(curH, newH) {
		if err := t.setScreenSize(newW, newH, curW, curH); err != nil {
			return err
		}
	}
	return nil
}

// Cancel releases the server grab without applying anything.
func (t *ConfigTransaction) Cancel() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.c.ungrab()
}

func (t *ConfigTransaction) crtcGeometries() ([]crtcGeometry, error) {
	var geoms []crtcGeometry
	for _, crtc := range t.res.Crtcs {
		geom, ok, err := t.geometryFor(crtc)
		if err != nil {
			return nil, err
		}
		if ok {
			geoms = append(geoms, geom)
		}
	}
	return geoms, nil
}

func (t *ConfigTransaction) geometryFor(crtc randr.Crtc) (crtcGeometry, bool, error) {
	for _, ch := range t.pending {
		if ch.crtc == crtc {
			return crtcGeometry{
				X:        int(ch.info.X),
				Y:        int(ch.info.Y),
				Width:    ch.mode.Width,
				Height:   ch.mode.Height,
				Rotation: ch.info.Rotation,
			}, true, nil
		}
	}

	info, err := randr.GetCrtcInfo(t.c.XUtil.Conn(), crtc, t.res.ConfigTimestamp).Reply()
	if err != nil {
		return crtcGeometry{}, false, fmt.Errorf("failed to get crtc %d info: %w", crtc, err)
	}
	if info.Mode == 0 || len(info.Outputs) == 0 {
		return crtcGeometry{}, false, nil
	}
	// GetCrtcInfo already reports rotated width and height.
	return crtcGeometry{
		X:      int(info.X),
		Y:      int(info.Y),
		Width:  int(info.Width),
		Height: int(info.Height),
	}, true, nil
}

func (t *ConfigTransaction) setScreenSize(w, h, curW, curH int) error {
	screen := t.c.XUtil.Screen()
	mmW, mmH := physicalSize(w, h, curW, curH, int(screen.WidthInMillimeters), int(screen.HeightInMillimeters))
	err := randr.SetScreenSizeChecked(
		t.c.XUtil.Conn(),
		t.c.Root,
		uint16(w),
		uint16(h),
		uint32(mmW),
		uint32(mmH),
	).Check()
	if err != nil {
		return fmt.Errorf("failed to set screen size %dx%d: %w", w, h, err)
	}
	return nil
}

// fadeOut dims every changed crtc and returns their original ramps. Fading
// is cosmetic, so failures only disable it.
func (t *ConfigTransaction) fadeOut() map[randr.Crtc]gammaRamp {
	if !t.fade.Enabled {
		return nil
	}
	ramps := make(map[randr.Crtc]gammaRamp, len(t.pending))
	for _, ch := range t.pending {
		ramp, err := t.c.crtcGamma(ch.crtc)
		if err != nil || len(ramp.red) == 0 {
			t.c.Logger.Debug("gamma fade unavailable", "crtc", ch.crtc, "error", err)
			continue
		}
		if err := t.c.fade(ch.crtc, ramp, 1, 0, t.fade); err != nil {
			t.c.Logger.Debug("gamma fade failed", "crtc", ch.crtc, "error", err)
		}
		ramps[ch.crtc] = ramp
	}
	return ramps
}

func (t *ConfigTransaction) fadeIn(ramps map[randr.Crtc]gammaRamp) {
	for crtc, ramp := range ramps {
		if err := t.c.fade(crtc, ramp, 0, 1, t.fade); err != nil {
			t.c.Logger.Debug("gamma fade failed", "crtc", crtc, "error", err)
			// Leave the display readable even if the ramp was interrupted.
			_ = t.c.setCrtcGamma(crtc, ramp)
		}
	}
}

func (c *Connection) ungrab() error {
	return xproto.UngrabServerChecked(c.XUtil.Conn()).Check()
}

func containsMode(modes []randr.Mode, mode randr.Mode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

type crtcGeometry struct {
	X, Y          int
	Width, Height int
	Rotation      uint16
}

// screenSize returns the bounding box of all crtcs. Width and height of
// quarter-turn rotated crtcs are swapped.
func screenSize(geoms []crtcGeometry) (int, int) {
	w, h := 0, 0
	for _, g := range geoms {
		gw, gh := g.Width, g.Height
		if g.Rotation&(randr.RotationRotate90|randr.RotationRotate270) != 0 {
			gw, gh = gh, gw
		}
		w = max(w, g.X+gw)
		h = max(h, g.Y+gh)
	}
	return w, h
}

// physicalSize scales the screen's millimetre size with its pixel size so the
// DPI is kept. Without a usable current size, 96 DPI is assumed.
func physicalSize(w, h, curW, curH, curMmW, curMmH int) (int, int) {
	if curW <= 0 || curH <= 0 || curMmW <= 0 || curMmH <= 0 {
		return int(math.Round(float64(w) * 25.4 / 96)), int(math.Round(float64(h) * 25.4 / 96))
	}
	return w * curMmW / curW, h * curMmH / curH
}
