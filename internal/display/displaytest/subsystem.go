// Package displaytest provides an in-memory display subsystem for tests.
package displaytest

import (
	"github.com/1broseidon/displix/internal/display"
)

// Mode is a mode known to a fake display.
type Mode struct {
	ID          uint32
	Width       int
	Height      int
	RefreshRate float64
	// LowResDuplicate entries are only listed when duplicates are requested.
	LowResDuplicate bool
}

// Display is a fake display.
type Display struct {
	ID display.ID
	// Inactive displays are online but not part of the active list.
	Inactive bool
	Modes    []Mode
	// Current is the ID of the active mode.
	Current uint32
}

// Subsystem is a scriptable display.Subsystem. The zero value has no
// displays.
type Subsystem struct {
	Displays []Display
	Main     display.ID

	// ListErr fails every DisplayList call.
	ListErr error
	// FillErr fails only DisplayList calls that fetch identifiers.
	FillErr error
	// HotPlug displays are reported in addition to Displays once the count
	// query has run, simulating a display attached between the two calls.
	HotPlug []Display

	CopyModesErr map[display.ID]error
	CurrentErr   error
	BeginErr     error
	ConfigureErr error
	CompleteErr  error
	CancelErr    error

	// Calls records subsystem operations in order.
	Calls []string
	// Outstanding counts mode arrays handed out and not yet released.
	Outstanding int

	counted bool
}

var _ display.Subsystem = (*Subsystem)(nil)

// DisplayList implements display.Subsystem.
func (s *Subsystem) DisplayList(kind display.ListKind, ids []display.ID) (int, error) {
	s.Calls = append(s.Calls, "list")
	if s.ListErr != nil {
		return 0, s.ListErr
	}

	all := s.listed(kind, s.Displays)
	if s.counted {
		all = append(all, s.listed(kind, s.HotPlug)...)
	}
	s.counted = true

	if ids == nil {
		return len(all), nil
	}
	if s.FillErr != nil {
		return 0, s.FillErr
	}
	for i := 0; i < len(ids) && i < len(all); i++ {
		ids[i] = all[i]
	}
	return len(all), nil
}

func (s *Subsystem) listed(kind display.ListKind, displays []Display) []display.ID {
	var out []display.ID
	for _, d := range displays {
		if d.Inactive && kind == display.ActiveDisplays {
			continue
		}
		out = append(out, d.ID)
	}
	return out
}

// MainDisplay implements display.Subsystem.
func (s *Subsystem) MainDisplay() display.ID {
	if s.Main != 0 {
		return s.Main
	}
	if len(s.Displays) > 0 {
		return s.Displays[0].ID
	}
	return 0
}

// CopyAllModes implements display.Subsystem.
func (s *Subsystem) CopyAllModes(id display.ID, opts display.ModeOptions) (display.ModeArray, error) {
	s.Calls = append(s.Calls, "copy_modes")
	if err := s.CopyModesErr[id]; err != nil {
		return nil, err
	}
	d := s.find(id)
	if d == nil {
		return nil, display.IllegalArgument
	}

	arr := &modeArray{owner: s}
	for _, m := range d.Modes {
		if m.LowResDuplicate && !opts.IncludeLowResDuplicates {
			continue
		}
		arr.modes = append(arr.modes, toMode(m))
	}
	s.Outstanding++
	return arr, nil
}

// CurrentMode implements display.Subsystem.
func (s *Subsystem) CurrentMode(id display.ID) (display.Mode, error) {
	if s.CurrentErr != nil {
		return display.Mode{}, s.CurrentErr
	}
	d := s.find(id)
	if d == nil {
		return display.Mode{}, display.IllegalArgument
	}
	for _, m := range d.Modes {
		if m.ID == d.Current {
			return toMode(m), nil
		}
	}
	return display.Mode{}, display.NoneAvailable
}

// BeginConfiguration implements display.Subsystem.
func (s *Subsystem) BeginConfiguration() (display.ConfigRef, error) {
	s.Calls = append(s.Calls, "begin")
	if s.BeginErr != nil {
		return nil, s.BeginErr
	}
	return &configRef{owner: s}, nil
}

// Display returns the fake display with the given ID.
func (s *Subsystem) Display(id display.ID) *Display {
	return s.find(id)
}

func (s *Subsystem) find(id display.ID) *Display {
	for i := range s.Displays {
		if s.Displays[i].ID == id {
			return &s.Displays[i]
		}
	}
	return nil
}

func toMode(m Mode) display.Mode {
	return display.Mode{
		ID:          m.ID,
		Width:       m.Width,
		Height:      m.Height,
		RefreshRate: m.RefreshRate,
	}
}

type modeArray struct {
	owner    *Subsystem
	modes    []display.Mode
	released bool
}

func (a *modeArray) Count() int { return len(a.modes) }

func (a *modeArray) Mode(i int) display.Mode {
	if a.released {
		panic("displaytest: mode array read after release")
	}
	return a.modes[i]
}

func (a *modeArray) Release() {
	if a.released {
		panic("displaytest: mode array released twice")
	}
	a.released = true
	a.owner.Outstanding--
}

type staged struct {
	id   display.ID
	mode uint32
}

type configRef struct {
	owner   *Subsystem
	pending []staged
	done    bool
}

func (c *configRef) ConfigureWithMode(id display.ID, mode display.Mode) error {
	c.owner.Calls = append(c.owner.Calls, "configure")
	if c.owner.ConfigureErr != nil {
		return c.owner.ConfigureErr
	}
	d := c.owner.find(id)
	if d == nil {
		return display.IllegalArgument
	}
	for _, m := range d.Modes {
		if m.ID == mode.ID {
			c.pending = append(c.pending, staged{id: id, mode: m.ID})
			return nil
		}
	}
	return display.IllegalArgument
}

func (c *configRef) Complete() error {
	c.owner.Calls = append(c.owner.Calls, "complete")
	c.done = true
	if c.owner.CompleteErr != nil {
		return c.owner.CompleteErr
	}
	for _, p := range c.pending {
		if d := c.owner.find(p.id); d != nil {
			d.Current = p.mode
		}
	}
	return nil
}

func (c *configRef) Cancel() error {
	if c.done {
		return nil
	}
	c.done = true
	c.owner.Calls = append(c.owner.Calls, "cancel")
	return c.owner.CancelErr
}
