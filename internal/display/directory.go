package display

import "fmt"

// EnumerationError reports a failed identifier fetch. Count is what the count
// query reported before the failure, zero when the count query itself failed.
type EnumerationError struct {
	Count uint32
	Err   error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate displays (count %d): %v", e.Count, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// Directory is the fixed, ordered set of displays enumerated at startup.
// Ordinals never change once the directory is built.
type Directory struct {
	kind    ListKind
	main    ID
	devices []Device
}

// CountDisplays returns the number of displays of the given kind. Zero
// displays is a valid answer.
func CountDisplays(sub Subsystem, kind ListKind) (uint32, error) {
	n, err := sub.DisplayList(kind, nil)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return uint32(n), nil
}

// EnumerateDisplays sizes storage with CountDisplays and then fetches the
// identifiers. If the system reports more displays on the second call than on
// the first, the extra displays are dropped rather than overflowing storage.
func EnumerateDisplays(sub Subsystem, kind ListKind) (*Directory, error) {
	count, err := CountDisplays(sub, kind)
	if err != nil {
		return nil, &EnumerationError{Err: err}
	}

	ids := make([]ID, count)
	n, err := sub.DisplayList(kind, ids)
	if err != nil {
		return nil, &EnumerationError{Count: count, Err: err}
	}
	if n > len(ids) {
		n = len(ids)
	}
	if n < 0 {
		n = 0
	}

	devices := make([]Device, n)
	for i := 0; i < n; i++ {
		devices[i] = Device{ID: ids[i], Ordinal: i}
	}

	return &Directory{
		kind:    kind,
		main:    sub.MainDisplay(),
		devices: devices,
	}, nil
}

// Kind reports which displays were enumerated.
func (d *Directory) Kind() ListKind {
	return d.kind
}

// Len returns the number of enumerated displays.
func (d *Directory) Len() int {
	return len(d.devices)
}

// Devices returns the displays in ordinal order.
func (d *Directory) Devices() []Device {
	out := make([]Device, len(d.devices))
	copy(out, d.devices)
	return out
}

// At returns the display at ordinal i.
func (d *Directory) At(i int) (Device, bool) {
	if i < 0 || i >= len(d.devices) {
		return Device{}, false
	}
	return d.devices[i], true
}

// Main returns the primary display. Its ordinal is -1 when the primary display
// is not part of this directory.
func (d *Directory) Main() Device {
	for _, dev := range d.devices {
		if dev.ID == d.main {
			return dev
		}
	}
	return Device{ID: d.main, Ordinal: -1}
}

// Select returns the display at ordinal n for 0 < n < Len(). Any other value,
// including 0, selects the primary display.
func (d *Directory) Select(n int) Device {
	if n > 0 && n < len(d.devices) {
		return d.devices[n]
	}
	return d.Main()
}
