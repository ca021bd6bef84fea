//go:build darwin && cgo

package platform

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <stdbool.h>
#include <CoreGraphics/CoreGraphics.h>

static CFArrayRef displixCopyModes(CGDirectDisplayID id, bool lowRes) {
	if (!lowRes) {
		return CGDisplayCopyAllDisplayModes(id, NULL);
	}
	const void *keys[] = { kCGDisplayShowDuplicateLowResolutionModes };
	const void *values[] = { kCFBooleanTrue };
	CFDictionaryRef opts = CFDictionaryCreate(NULL, keys, values, 1,
		&kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
	CFArrayRef modes = CGDisplayCopyAllDisplayModes(id, opts);
	CFRelease(opts);
	return modes;
}

static CGDisplayModeRef displixModeAt(CFArrayRef modes, CFIndex i) {
	return (CGDisplayModeRef)CFArrayGetValueAtIndex(modes, i);
}
*/
import "C"

import (
	"log/slog"

	"github.com/1broseidon/displix/internal/display"
)

// QuartzBackend talks to the CoreGraphics display services.
type QuartzBackend struct {
	logger *slog.Logger
}

var _ Backend = (*QuartzBackend)(nil)

func open(opts Options) (Backend, error) {
	return &QuartzBackend{logger: opts.Logger}, nil
}

// Close is a no-op; CoreGraphics holds no per-process connection.
func (b *QuartzBackend) Close() error {
	return nil
}

func (b *QuartzBackend) DisplayList(kind display.ListKind, ids []display.ID) (int, error) {
	var (
		raw   []C.CGDirectDisplayID
		buf   *C.CGDirectDisplayID
		count C.uint32_t
	)
	if len(ids) > 0 {
		raw = make([]C.CGDirectDisplayID, len(ids))
		buf = &raw[0]
	}

	var cerr C.CGError
	if kind == display.OnlineDisplays {
		cerr = C.CGGetOnlineDisplayList(C.uint32_t(len(ids)), buf, &count)
	} else {
		cerr = C.CGGetActiveDisplayList(C.uint32_t(len(ids)), buf, &count)
	}
	if cerr != 0 {
		return 0, display.Code(cerr)
	}
	for i := 0; i < int(count) && i < len(ids); i++ {
		ids[i] = display.ID(raw[i])
	}
	return int(count), nil
}

func (b *QuartzBackend) MainDisplay() display.ID {
	return display.ID(C.CGMainDisplayID())
}

func (b *QuartzBackend) CopyAllModes(id display.ID, opts display.ModeOptions) (display.ModeArray, error) {
	arr := C.displixCopyModes(C.CGDirectDisplayID(id), C.bool(opts.IncludeLowResDuplicates))
	if arr == 0 {
		return nil, display.IllegalArgument
	}
	return &quartzModes{arr: arr}, nil
}

func (b *QuartzBackend) CurrentMode(id display.ID) (display.Mode, error) {
	cur := C.CGDisplayCopyDisplayMode(C.CGDirectDisplayID(id))
	if cur == 0 {
		return display.Mode{}, display.IllegalArgument
	}
	defer C.CGDisplayModeRelease(cur)
	return quartzMode(-1, cur), nil
}

func (b *QuartzBackend) BeginConfiguration() (display.ConfigRef, error) {
	var ref C.CGDisplayConfigRef
	if cerr := C.CGBeginDisplayConfiguration(&ref); cerr != 0 {
		return nil, display.Code(cerr)
	}
	return &quartzConfig{ref: ref, logger: b.logger}, nil
}

type quartzConfig struct {
	ref    C.CGDisplayConfigRef
	done   bool
	logger *slog.Logger
}

// ConfigureWithMode finds mode again by its attributes and stages it. The
// list without low resolution duplicates is searched first so a duplicate
// sharing the same identifier is only picked when nothing else matches.
func (c *quartzConfig) ConfigureWithMode(id display.ID, mode display.Mode) error {
	for _, lowRes := range []bool{false, true} {
		arr := C.displixCopyModes(C.CGDirectDisplayID(id), C.bool(lowRes))
		if arr == 0 {
			return display.IllegalArgument
		}
		n := int(C.CFArrayGetCount(arr))
		for i := 0; i < n; i++ {
			ref := C.displixModeAt(arr, C.CFIndex(i))
			if !mode.Matches(quartzMode(mode.Index, ref)) {
				continue
			}
			cerr := C.CGConfigureDisplayWithDisplayMode(c.ref, C.CGDirectDisplayID(id), ref, 0)
			C.CFRelease(C.CFTypeRef(arr))
			return display.FromCode(display.Code(cerr))
		}
		C.CFRelease(C.CFTypeRef(arr))
	}
	c.logger.Debug("mode not found for configuration", "display", id, "mode", mode.ID)
	return display.IllegalArgument
}

func (c *quartzConfig) Complete() error {
	c.done = true
	return display.FromCode(display.Code(C.CGCompleteDisplayConfiguration(c.ref, C.kCGConfigureForSession)))
}

func (c *quartzConfig) Cancel() error {
	if c.done {
		return nil
	}
	c.done = true
	return display.FromCode(display.Code(C.CGCancelDisplayConfiguration(c.ref)))
}

type quartzModes struct {
	arr C.CFArrayRef
}

func (m *quartzModes) Count() int {
	if m.arr == 0 {
		return 0
	}
	return int(C.CFArrayGetCount(m.arr))
}

func (m *quartzModes) Mode(i int) display.Mode {
	if m.arr == 0 {
		panic("platform: mode array used after release")
	}
	return quartzMode(i, C.displixModeAt(m.arr, C.CFIndex(i)))
}

func (m *quartzModes) Release() {
	if m.arr != 0 {
		C.CFRelease(C.CFTypeRef(m.arr))
		m.arr = 0
	}
}

func quartzMode(index int, mode C.CGDisplayModeRef) display.Mode {
	return display.Mode{
		Index:       index,
		ID:          uint32(C.CGDisplayModeGetIODisplayModeID(mode)),
		Width:       int(C.CGDisplayModeGetWidth(mode)),
		Height:      int(C.CGDisplayModeGetHeight(mode)),
		PixelWidth:  int(C.CGDisplayModeGetPixelWidth(mode)),
		PixelHeight: int(C.CGDisplayModeGetPixelHeight(mode)),
		RefreshRate: float64(C.CGDisplayModeGetRefreshRate(mode)),
	}
}
