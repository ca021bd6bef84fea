// Package display holds the display enumeration and mode configuration logic:
// the Directory of attached displays, the per-display mode catalog, index
// resolution and the three-phase configuration transaction. It talks to the
// operating system only through the Subsystem interface.
package display

import "math"

// ID is the opaque system identifier of a display. It is stable for the
// lifetime of the process but not across reconnects.
type ID uint32

// Device pairs a display identifier with its position in this run's
// enumeration order.
type Device struct {
	ID      ID
	Ordinal int
}

// Mode describes one supported configuration of a display. It is a copy of the
// subsystem's mode attributes and stays valid after the catalog it came from is
// released.
type Mode struct {
	// Index is the mode's position in the catalog it was read from.
	Index int
	// ID is the subsystem's own mode identifier, used to find the mode again
	// when staging a configuration.
	ID          uint32
	Width       int
	Height      int
	// PixelWidth and PixelHeight are the backing resolution. They differ from
	// Width and Height on scaled modes and are zero when the subsystem does
	// not distinguish them.
	PixelWidth  int
	PixelHeight int
	RefreshRate float64
}

// Matches reports whether o describes the same mode as m, ignoring Index.
// Refresh rates are compared to the nearest hundredth of a hertz.
func (m Mode) Matches(o Mode) bool {
	return m.ID == o.ID &&
		m.Width == o.Width &&
		m.Height == o.Height &&
		m.PixelWidth == o.PixelWidth &&
		m.PixelHeight == o.PixelHeight &&
		math.Abs(m.RefreshRate-o.RefreshRate) < 0.01
}

// ListKind selects which displays a directory enumerates.
type ListKind int

const (
	// ActiveDisplays are displays currently drawable.
	ActiveDisplays ListKind = iota
	// OnlineDisplays additionally include connected displays that are asleep,
	// mirrored or otherwise not drawable.
	OnlineDisplays
)

func (k ListKind) String() string {
	switch k {
	case OnlineDisplays:
		return "online"
	default:
		return "active"
	}
}

// ModeOptions tunes a mode catalog query.
type ModeOptions struct {
	// IncludeLowResDuplicates asks the subsystem for mode entries it hides by
	// default because they duplicate another mode at a scaled or legacy
	// resolution.
	IncludeLowResDuplicates bool
}

// ModeArray is a subsystem-owned collection of modes. Entries may only be read
// until Release is called.
type ModeArray interface {
	Count() int
	Mode(i int) Mode
	Release()
}

// ConfigRef is an open configuration transaction.
type ConfigRef interface {
	// ConfigureWithMode stages a mode change for a display.
	ConfigureWithMode(id ID, mode Mode) error
	// Complete applies the staged changes for the current session only.
	Complete() error
	// Cancel discards the transaction. It is a no-op once Complete has run.
	Cancel() error
}

// Subsystem is the operating system display-management facility. All calls
// block; errors returned by an implementation carry a Code.
type Subsystem interface {
	// DisplayList writes up to len(ids) identifiers into ids and returns how
	// many displays the system reported. With a nil slice it only counts.
	DisplayList(kind ListKind, ids []ID) (int, error)
	// MainDisplay returns the primary display.
	MainDisplay() ID
	// CopyAllModes returns the display's modes in subsystem order.
	CopyAllModes(id ID, opts ModeOptions) (ModeArray, error)
	// CurrentMode returns the display's active mode. Its Index is not
	// meaningful; callers locate it in a catalog by ID.
	CurrentMode(id ID) (Mode, error)
	// BeginConfiguration opens a configuration transaction.
	BeginConfiguration() (ConfigRef, error)
}
