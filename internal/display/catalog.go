package display

// ModeList is the ordered result of a catalog query. The caller owns it and
// must call Release once done; reading it afterwards panics.
type ModeList struct {
	device   Device
	arr      ModeArray
	released bool
}

// GetModes queries the modes supported by dev. Without includeLowRes the
// subsystem's defaults apply and duplicate low-resolution entries stay hidden.
// An empty list is not an error.
func GetModes(sub Subsystem, dev Device, includeLowRes bool) (*ModeList, error) {
	arr, err := sub.CopyAllModes(dev.ID, ModeOptions{IncludeLowResDuplicates: includeLowRes})
	if err != nil {
		return nil, err
	}
	return &ModeList{device: dev, arr: arr}, nil
}

// WithModes runs fn with the display's modes and releases them afterwards.
func WithModes(sub Subsystem, dev Device, includeLowRes bool, fn func(*ModeList) error) error {
	modes, err := GetModes(sub, dev, includeLowRes)
	if err != nil {
		return err
	}
	defer modes.Release()
	return fn(modes)
}

// Device returns the display the list was queried for.
func (l *ModeList) Device() Device {
	return l.device
}

// Len returns the number of modes.
func (l *ModeList) Len() int {
	l.mustBeLive()
	if l.arr == nil {
		return 0
	}
	return l.arr.Count()
}

// At returns a copy of the mode at position i.
func (l *ModeList) At(i int) Mode {
	l.mustBeLive()
	m := l.arr.Mode(i)
	m.Index = i
	return m
}

// All copies every mode out of the list.
func (l *ModeList) All() []Mode {
	n := l.Len()
	out := make([]Mode, n)
	for i := 0; i < n; i++ {
		out[i] = l.At(i)
	}
	return out
}

// Release returns the underlying collection to the subsystem. Calling it more
// than once is harmless.
func (l *ModeList) Release() {
	if l == nil || l.released {
		return
	}
	l.released = true
	if l.arr != nil {
		l.arr.Release()
	}
}

func (l *ModeList) mustBeLive() {
	if l.released {
		panic("display: mode list used after release")
	}
}
