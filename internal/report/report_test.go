package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func sampleDisplay() Display {
	return Display{
		Index:   0,
		ID:      69733382,
		Main:    true,
		Current: &Mode{Index: 0, Width: 1920, Height: 1080, RefreshRate: 60},
		Modes: []Mode{
			{Index: 0, Width: 1920, Height: 1080, RefreshRate: 60},
			{Index: 1, Width: 1280, Height: 720, RefreshRate: 60},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "yaml", "json"} {
		if f, err := ParseFormat(name); err != nil || string(f) != name {
			t.Fatalf("ParseFormat(%q) = %q, %v", name, f, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestPrinter_TextListing(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, FormatText)
	p.Count(1)
	p.Display(sampleDisplay())
	if err := p.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "Display count: 1\n" +
		"--\t--\t--\n" +
		"DISPLAY: 0\n" +
		"\tID:\t69733382\n" +
		"\tModes:\t2\n" +
		"\t-----\t-----\t------\n" +
		"\tIndex\tWidth\tHeight\n" +
		"\t-----\t-----\t------\n" +
		"\t[0] \t1920\t1080\n" +
		"\t[1] \t1280\t720\n"
	if out.String() != want {
		t.Fatalf("unexpected listing:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestPrinter_TextSelectionAndInvalid(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, FormatText)
	p.Selected(Selection{Display: 0, ModeIndex: 1, Mode: &Mode{Index: 1, Width: 1280, Height: 720}})
	p.Applied(nil)
	if out.String() != "\t[1] \t1280\t720\n" {
		t.Fatalf("unexpected selection line %q", out.String())
	}

	out.Reset()
	p = NewPrinter(&out, FormatText)
	p.InvalidSelection(Selection{ModeIndex: 5}, errors.New("no such display mode index"))
	if out.String() != "--\t--\t--\n" {
		t.Fatalf("unexpected invalid selection output %q", out.String())
	}
}

func TestPrinter_TextDisplayErrorSkipsTable(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, FormatText)
	p.Display(Display{Index: 2, ID: 5, Error: "display subsystem error 1001 (illegal argument)"})

	if strings.Contains(out.String(), "Modes:") {
		t.Fatalf("expected no mode table for a failed catalog, got %q", out.String())
	}
	if !strings.HasSuffix(out.String(), "\tID:\t5\n") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestPrinter_JSONDocument(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, FormatJSON)
	p.Count(1)
	p.Selected(Selection{Display: 0, DisplayID: 69733382, ModeIndex: 1, Mode: &Mode{Index: 1, Width: 1280, Height: 720}})
	p.Applied(errors.New("display subsystem error 1004 (cannot complete)"))
	p.Display(sampleDisplay())
	if err := p.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if doc.DisplayCount != 1 || len(doc.Displays) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Selection == nil || doc.Selection.Applied || !strings.Contains(doc.Selection.Error, "1004") {
		t.Fatalf("unexpected selection %+v", doc.Selection)
	}
	if doc.Displays[0].Current == nil || doc.Displays[0].Current.RefreshRate != 60 {
		t.Fatalf("expected current mode with refresh rate, got %+v", doc.Displays[0].Current)
	}
	if strings.Contains(out.String(), "Display count") {
		t.Fatal("structured output must not include text lines")
	}
}

func TestPrinter_YAMLEmptyDisplays(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, FormatYAML)
	p.Count(0)
	if err := p.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if doc["display_count"] != 0 {
		t.Fatalf("display_count = %#v", doc["display_count"])
	}
	if displays, ok := doc["displays"].([]any); !ok || len(displays) != 0 {
		t.Fatalf("expected empty displays list, got %#v", doc["displays"])
	}
	if _, ok := doc["selection"]; ok {
		t.Fatal("selection should be omitted in list mode")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestPrinter_KeepsFirstWriteError(t *testing.T) {
	p := NewPrinter(failingWriter{}, FormatText)
	p.Count(2)
	p.Display(sampleDisplay())
	if err := p.Flush(); err == nil || err.Error() != "broken pipe" {
		t.Fatalf("Flush = %v, want broken pipe", err)
	}
}

func TestDiagnostics_PlainWhenNotTerminal(t *testing.T) {
	var out bytes.Buffer
	d := NewDiagnostics(&out)
	d.Warnf("'%d' is not a valid display mode index.", 5)
	d.Errorf("Failed to set display mode: %d", 1004)

	want := "'5' is not a valid display mode index.\nFailed to set display mode: 1004\n"
	if out.String() != want {
		t.Fatalf("unexpected diagnostics %q", out.String())
	}
}
