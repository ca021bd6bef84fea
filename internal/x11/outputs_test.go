package x11

import (
	"math"
	"testing"

	"github.com/BurntSushi/xgb/randr"
)

func testResources() *Resources {
	modes := []randr.ModeInfo{
		{Id: 0x45, Width: 1920, Height: 1080, DotClock: 148500000, Htotal: 2200, Vtotal: 1125},
		{Id: 0x46, Width: 1920, Height: 1080, DotClock: 74250000, Htotal: 2200, Vtotal: 1125},
		{Id: 0x47, Width: 1920, Height: 1080, DotClock: 74250000, Htotal: 2200, Vtotal: 1125, ModeFlags: randr.ModeFlagInterlace},
		{Id: 0x48, Width: 1280, Height: 720, DotClock: 74250000, Htotal: 1650, Vtotal: 750},
		{Id: 0x49, Width: 320, Height: 200, DotClock: 12587500, Htotal: 400, Vtotal: 262, ModeFlags: randr.ModeFlagDoubleScan},
	}
	res := &Resources{Modes: map[randr.Mode]ModeInfo{}}
	for _, mi := range modes {
		info := modeInfoFromRandr(mi)
		res.Modes[info.ID] = info
	}
	res.Outputs = []Output{
		{ID: 0x42, Name: "eDP-1", Connected: true, Crtc: 0x3f, Modes: []randr.Mode{0x45, 0x46, 0x47, 0x48, 0x49}, NumPreferred: 1},
		{ID: 0x43, Name: "HDMI-1", Connected: true, Modes: []randr.Mode{0x48}},
		{ID: 0x44, Name: "DP-1"},
	}
	return res
}

func TestRefreshRate(t *testing.T) {
	tests := []struct {
		name string
		mi   randr.ModeInfo
		want float64
	}{
		{name: "1080p60", mi: randr.ModeInfo{DotClock: 148500000, Htotal: 2200, Vtotal: 1125}, want: 60},
		{name: "interlaced doubles field rate", mi: randr.ModeInfo{DotClock: 74250000, Htotal: 2200, Vtotal: 1125, ModeFlags: randr.ModeFlagInterlace}, want: 60},
		{name: "doublescan halves", mi: randr.ModeInfo{DotClock: 25175000, Htotal: 800, Vtotal: 525, ModeFlags: randr.ModeFlagDoubleScan}, want: 29.97},
		{name: "zero totals", mi: randr.ModeInfo{DotClock: 1}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := refreshRate(tt.mi)
			if math.Abs(got-tt.want) > 0.01 {
				t.Fatalf("refreshRate = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestOutputModes_HidesDuplicatesByDefault(t *testing.T) {
	res := testResources()
	out, _ := res.Output(0x42)

	got := res.OutputModes(out, false)
	want := []randr.Mode{0x45, 0x48}
	if len(got) != len(want) {
		t.Fatalf("OutputModes len = %d, want %d (%+v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("mode %d = %#x, want %#x", i, got[i].ID, want[i])
		}
	}
}

func TestOutputModes_IncludeDuplicatesKeepsServerOrder(t *testing.T) {
	res := testResources()
	out, _ := res.Output(0x42)

	all := res.OutputModes(out, true)
	if len(all) != len(out.Modes) {
		t.Fatalf("OutputModes len = %d, want %d", len(all), len(out.Modes))
	}
	for i, id := range out.Modes {
		if all[i].ID != id {
			t.Fatalf("mode %d = %#x, want %#x", i, all[i].ID, id)
		}
	}
	if len(all) < len(res.OutputModes(out, false)) {
		t.Fatal("including duplicates shrank the catalog")
	}
}

func TestOutputModes_SkipsUnknownModes(t *testing.T) {
	res := testResources()
	out := Output{ID: 1, Modes: []randr.Mode{0x999, 0x48}}
	got := res.OutputModes(out, true)
	if len(got) != 1 || got[0].ID != 0x48 {
		t.Fatalf("OutputModes = %+v, want only 0x48", got)
	}
}

func TestActiveOutputs(t *testing.T) {
	res := testResources()

	active := res.ActiveOutputs(false)
	if len(active) != 1 || active[0].Name != "eDP-1" {
		t.Fatalf("ActiveOutputs(false) = %+v", active)
	}
	online := res.ActiveOutputs(true)
	if len(online) != 2 || online[1].Name != "HDMI-1" {
		t.Fatalf("ActiveOutputs(true) = %+v", online)
	}
}

func TestPrimaryOrFirstActive(t *testing.T) {
	tests := []struct {
		name    string
		primary randr.Output
		want    randr.Output
	}{
		{name: "active primary", primary: 0x42, want: 0x42},
		{name: "unset", primary: 0, want: 0x42},
		{name: "connected without crtc", primary: 0x43, want: 0x42},
		{name: "disconnected primary", primary: 0x44, want: 0x42},
		{name: "unknown output", primary: 0x99, want: 0x42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testResources().primaryOrFirstActive(tt.primary); got != tt.want {
				t.Fatalf("primaryOrFirstActive(%#x) = %#x, want %#x", tt.primary, got, tt.want)
			}
		})
	}
}

func TestPrimaryOrFirstActive_NoActiveOutputs(t *testing.T) {
	res := testResources()
	res.Outputs[0].Crtc = 0

	if got := res.primaryOrFirstActive(0x42); got != 0 {
		t.Fatalf("primaryOrFirstActive = %#x, want 0", got)
	}
}
