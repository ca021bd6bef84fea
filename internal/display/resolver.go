package display

import "fmt"

// ResolveModeAtIndex fetches a fresh catalog for dev and returns the mode at
// index. An index outside the catalog yields an error matching
// ErrModeNotFound; subsystem failures come back as their Code.
func ResolveModeAtIndex(sub Subsystem, dev Device, includeLowRes bool, index int) (Mode, error) {
	modes, err := GetModes(sub, dev, includeLowRes)
	if err != nil {
		return Mode{}, err
	}
	defer modes.Release()

	count := modes.Len()
	if index < 0 || index >= count {
		return Mode{}, fmt.Errorf("%w: %d (display %d has %d modes)", ErrModeNotFound, index, dev.ID, count)
	}
	return modes.At(index), nil
}
