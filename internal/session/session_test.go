package session

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/1broseidon/displix/internal/display"
	"github.com/1broseidon/displix/internal/display/displaytest"
	"github.com/1broseidon/displix/internal/report"
)

const header = "\t-----\t-----\t------\n\tIndex\tWidth\tHeight\n\t-----\t-----\t------\n"

func desk() *displaytest.Subsystem {
	return &displaytest.Subsystem{
		Displays: []displaytest.Display{
			{
				ID: 1,
				Modes: []displaytest.Mode{
					{ID: 10, Width: 1920, Height: 1080, RefreshRate: 60},
					{ID: 11, Width: 960, Height: 540, RefreshRate: 60, LowResDuplicate: true},
					{ID: 12, Width: 1280, Height: 720, RefreshRate: 60},
				},
				Current: 10,
			},
			{
				ID: 2,
				Modes: []displaytest.Mode{
					{ID: 20, Width: 2560, Height: 1440, RefreshRate: 144},
					{ID: 21, Width: 1920, Height: 1080, RefreshRate: 60},
				},
				Current: 21,
			},
		},
	}
}

func intPtr(v int) *int {
	return &v
}

func run(t *testing.T, sub display.Subsystem, opts Options) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(sub, opts, &stdout, &stderr, nil)
	return code, stdout.String(), stderr.String()
}

func listOnly() Options {
	return Options{DisplayOrdinal: -1, Format: report.FormatText}
}

func TestRun_ZeroDisplays(t *testing.T) {
	code, stdout, stderr := run(t, &displaytest.Subsystem{}, listOnly())
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if stdout != "Display count: 0\n" {
		t.Fatalf("stdout = %q", stdout)
	}
	if stderr != "" {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestRun_ListsEveryDisplay(t *testing.T) {
	sub := desk()
	code, stdout, _ := run(t, sub, listOnly())
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	want := "Display count: 2\n" +
		"--\t--\t--\nDISPLAY: 0\n\tID:\t1\n\tModes:\t2\n" + header +
		"\t[0] \t1920\t1080\n\t[1] \t1280\t720\n" +
		"--\t--\t--\nDISPLAY: 1\n\tID:\t2\n\tModes:\t2\n" + header +
		"\t[0] \t2560\t1440\n\t[1] \t1920\t1080\n"
	if stdout != want {
		t.Fatalf("stdout:\n%q\nwant:\n%q", stdout, want)
	}
	if sub.Outstanding != 0 {
		t.Fatalf("%d mode arrays were not released", sub.Outstanding)
	}
	for _, call := range sub.Calls {
		if call == "begin" {
			t.Fatal("listing must not open a configuration transaction")
		}
	}
}

func TestRun_IncludeLowResListsDuplicates(t *testing.T) {
	opts := listOnly()
	opts.IncludeLowRes = true
	_, stdout, _ := run(t, desk(), opts)

	if !strings.Contains(stdout, "\tModes:\t3\n") || !strings.Contains(stdout, "\t[1] \t960\t540\n") {
		t.Fatalf("expected duplicate modes in listing, got %q", stdout)
	}
}

func TestRun_AppliesSelectedMode(t *testing.T) {
	sub := desk()
	opts := listOnly()
	opts.ModeIndex = intPtr(1)

	code, stdout, stderr := run(t, sub, opts)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if stdout != "Display count: 2\n\t[1] \t1280\t720\n" {
		t.Fatalf("stdout = %q", stdout)
	}
	if stderr != "" {
		t.Fatalf("stderr = %q", stderr)
	}
	if got := sub.Display(1).Current; got != 12 {
		t.Fatalf("display 1 current mode = %d, want 12", got)
	}
	want := []string{"list", "list", "copy_modes", "begin", "configure", "complete"}
	if !reflect.DeepEqual(sub.Calls, want) {
		t.Fatalf("calls = %v, want %v", sub.Calls, want)
	}
}

func TestRun_InvalidModeIndexFallsBackToListing(t *testing.T) {
	for _, index := range []int{2, 5, -1} {
		sub := desk()
		opts := listOnly()
		opts.ModeIndex = intPtr(index)

		code, stdout, stderr := run(t, sub, opts)
		if code != 0 {
			t.Fatalf("index %d: exit code = %d, want 0", index, code)
		}
		wantErr := "'" + strconv.Itoa(index) + "' is not a valid display mode index.\n"
		if stderr != wantErr {
			t.Fatalf("index %d: stderr = %q, want %q", index, stderr, wantErr)
		}
		if !strings.HasPrefix(stdout, "Display count: 2\n--\t--\t--\n--\t--\t--\nDISPLAY: 0\n") {
			t.Fatalf("index %d: stdout = %q", index, stdout)
		}
		if !strings.Contains(stdout, "DISPLAY: 1\n") {
			t.Fatalf("index %d: expected every display listed, got %q", index, stdout)
		}
		for _, call := range sub.Calls {
			if call == "begin" {
				t.Fatalf("index %d: no transaction should be opened", index)
			}
		}
	}
}

func TestRun_DisplayOrdinalSelection(t *testing.T) {
	tests := []struct {
		name    string
		ordinal int
		main    display.ID
		want    display.ID
	}{
		{name: "zero falls back to primary", ordinal: 0, main: 2, want: 2},
		{name: "unset uses primary", ordinal: -1, main: 2, want: 2},
		{name: "valid ordinal", ordinal: 1, main: 1, want: 2},
		{name: "out of range falls back", ordinal: 9, main: 1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := desk()
			sub.Main = tt.main
			for i := range sub.Displays {
				sub.Displays[i].Current = 0
			}
			opts := listOnly()
			opts.DisplayOrdinal = tt.ordinal
			opts.ModeIndex = intPtr(0)

			if code, _, stderr := run(t, sub, opts); code != 0 || stderr != "" {
				t.Fatalf("exit code = %d, stderr = %q", code, stderr)
			}
			for _, d := range sub.Displays {
				want := uint32(0)
				if d.ID == tt.want {
					want = d.Modes[0].ID
				}
				if d.Current != want {
					t.Fatalf("display %d current = %d, want %d", d.ID, d.Current, want)
				}
			}
		})
	}
}

func TestRun_ConfigurationFailureStillExitsZero(t *testing.T) {
	sub := desk()
	sub.CompleteErr = display.CannotComplete
	opts := listOnly()
	opts.ModeIndex = intPtr(1)

	code, stdout, stderr := run(t, sub, opts)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if stdout != "Display count: 2\n\t[1] \t1280\t720\n" {
		t.Fatalf("stdout = %q", stdout)
	}
	if stderr != "Failed to set display mode: 1004\n" {
		t.Fatalf("stderr = %q", stderr)
	}
	if got := sub.Display(1).Current; got != 10 {
		t.Fatalf("display 1 current mode = %d, want unchanged 10", got)
	}
}

func TestRun_StagingFailureCancelsTransaction(t *testing.T) {
	sub := desk()
	sub.ConfigureErr = display.IllegalArgument
	opts := listOnly()
	opts.ModeIndex = intPtr(0)

	code, _, stderr := run(t, sub, opts)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if stderr != "Failed to set display mode: 1001\n" {
		t.Fatalf("stderr = %q", stderr)
	}
	if last := sub.Calls[len(sub.Calls)-1]; last != "cancel" {
		t.Fatalf("calls = %v, want trailing cancel", sub.Calls)
	}
}

func TestRun_EnumerationFailureExitsWithCode(t *testing.T) {
	sub := desk()
	sub.ListErr = display.InvalidConnection

	code, stdout, stderr := run(t, sub, listOnly())
	if code != int(display.InvalidConnection) {
		t.Fatalf("exit code = %d, want %d", code, display.InvalidConnection)
	}
	if stdout != "Display count: 0\n" {
		t.Fatalf("stdout = %q", stdout)
	}
	if stderr != "Failed to enumerate displays: 1002\n" {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestRun_FillFailurePrintsCountedDisplays(t *testing.T) {
	sub := desk()
	sub.FillErr = display.CannotComplete

	code, stdout, stderr := run(t, sub, listOnly())
	if code != int(display.CannotComplete) {
		t.Fatalf("exit code = %d, want %d", code, display.CannotComplete)
	}
	if stdout != "Display count: 2\n" {
		t.Fatalf("stdout = %q", stdout)
	}
	if stderr != "Failed to enumerate displays: "+strconv.Itoa(int(display.CannotComplete))+"\n" {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestRun_FailuresLogNothingAtWarningLevel(t *testing.T) {
	var logs, stdout, stderr bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	sub := desk()
	sub.ListErr = display.InvalidConnection
	Run(sub, listOnly(), &stdout, &stderr, logger)

	sub = desk()
	sub.CompleteErr = display.IllegalArgument
	sub.CancelErr = display.Failure
	opts := listOnly()
	opts.ModeIndex = intPtr(1)
	Run(sub, opts, &stdout, &stderr, logger)

	if logs.Len() != 0 {
		t.Fatalf("unexpected log output: %q", logs.String())
	}
}

func TestRun_CatalogFailureWhileListingContinues(t *testing.T) {
	sub := desk()
	sub.CopyModesErr = map[display.ID]error{1: display.RangeCheck}

	code, stdout, stderr := run(t, sub, listOnly())
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if stderr != "Failed to read display modes for display 0: 1007\n" {
		t.Fatalf("stderr = %q", stderr)
	}
	if !strings.Contains(stdout, "DISPLAY: 1\n\tID:\t2\n\tModes:\t2\n") {
		t.Fatalf("expected display 1 to be listed, got %q", stdout)
	}
}

func TestRun_CatalogFailureWhileConfiguring(t *testing.T) {
	sub := desk()
	sub.CopyModesErr = map[display.ID]error{1: display.RangeCheck}
	opts := listOnly()
	opts.ModeIndex = intPtr(0)

	code, stdout, stderr := run(t, sub, opts)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if stdout != "Display count: 2\n" {
		t.Fatalf("stdout = %q", stdout)
	}
	if stderr != "Failed to read display modes: 1007\n" {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestRun_JSONReport(t *testing.T) {
	sub := desk()
	opts := listOnly()
	opts.Format = report.FormatJSON

	code, stdout, _ := run(t, sub, opts)
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	var doc report.Document
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if doc.DisplayCount != 2 || len(doc.Displays) != 2 || doc.Selection != nil {
		t.Fatalf("unexpected document %+v", doc)
	}
	if !doc.Displays[0].Main || doc.Displays[1].Main {
		t.Fatalf("expected display 0 to be main, got %+v", doc.Displays)
	}
	cur := doc.Displays[1].Current
	if cur == nil || cur.Index != 1 || cur.Width != 1920 || cur.RefreshRate != 60 {
		t.Fatalf("display 1 current = %+v", cur)
	}
}

func TestRun_JSONSelection(t *testing.T) {
	sub := desk()
	opts := listOnly()
	opts.Format = report.FormatJSON
	opts.ModeIndex = intPtr(1)

	_, stdout, _ := run(t, sub, opts)

	var doc report.Document
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	sel := doc.Selection
	if sel == nil || !sel.Applied || sel.Mode == nil || sel.Mode.Width != 1280 || sel.DisplayID != 1 {
		t.Fatalf("unexpected selection %+v", sel)
	}
	if len(doc.Displays) != 0 {
		t.Fatalf("configure run should not list displays, got %+v", doc.Displays)
	}
}

func TestRun_OnlineListIncludesInactive(t *testing.T) {
	sub := desk()
	sub.Displays = append(sub.Displays, displaytest.Display{ID: 3, Inactive: true})

	_, active, _ := run(t, sub, listOnly())
	if !strings.HasPrefix(active, "Display count: 2\n") {
		t.Fatalf("active stdout = %q", active)
	}

	opts := listOnly()
	opts.List = display.OnlineDisplays
	_, online, _ := run(t, sub, opts)
	if !strings.HasPrefix(online, "Display count: 3\n") || !strings.Contains(online, "DISPLAY: 2\n\tID:\t3\n\tModes:\t0\n") {
		t.Fatalf("online stdout = %q", online)
	}
}
