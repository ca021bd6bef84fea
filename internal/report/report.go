// Package report renders displix results. Text output is written as events
// arrive; YAML and JSON output is collected into one Document and written by
// Flush.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format selects the stdout rendering.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, yaml or json)", s)
	}
}

type Mode struct {
	Index       int     `json:"index" yaml:"index"`
	Width       int     `json:"width" yaml:"width"`
	Height      int     `json:"height" yaml:"height"`
	RefreshRate float64 `json:"refresh_rate,omitempty" yaml:"refresh_rate,omitempty"`
}

type Display struct {
	Index   int    `json:"index" yaml:"index"`
	ID      uint32 `json:"id" yaml:"id"`
	Main    bool   `json:"main" yaml:"main"`
	Current *Mode  `json:"current,omitempty" yaml:"current,omitempty"`
	Modes   []Mode `json:"modes" yaml:"modes"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Selection records a -m request.
type Selection struct {
	Display   int    `json:"display" yaml:"display"`
	DisplayID uint32 `json:"display_id" yaml:"display_id"`
	ModeIndex int    `json:"mode_index" yaml:"mode_index"`
	Mode      *Mode  `json:"mode,omitempty" yaml:"mode,omitempty"`
	Applied   bool   `json:"applied" yaml:"applied"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Document is the structured report.
type Document struct {
	DisplayCount int        `json:"display_count" yaml:"display_count"`
	Selection    *Selection `json:"selection,omitempty" yaml:"selection,omitempty"`
	Displays     []Display  `json:"displays" yaml:"displays"`
}

// Printer writes a report to out. The first write error is kept and returned
// by Flush.
type Printer struct {
	out    io.Writer
	format Format
	doc    Document
	err    error
}

func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{out: out, format: format, doc: Document{Displays: []Display{}}}
}

// Count reports how many displays were enumerated.
func (p *Printer) Count(n int) {
	p.doc.DisplayCount = n
	p.textf("Display count: %d\n", n)
}

// Selected reports the mode about to be applied.
func (p *Printer) Selected(sel Selection) {
	p.doc.Selection = &sel
	if sel.Mode != nil {
		p.textf("\t[%d] \t%d\t%d\n", sel.ModeIndex, sel.Mode.Width, sel.Mode.Height)
	}
}

// Applied records the outcome of the selected mode's configuration.
func (p *Printer) Applied(err error) {
	if p.doc.Selection == nil {
		return
	}
	p.doc.Selection.Applied = err == nil
	if err != nil {
		p.doc.Selection.Error = err.Error()
	}
}

// InvalidSelection reports a mode index that could not be resolved. The
// listing of every display follows.
func (p *Printer) InvalidSelection(sel Selection, err error) {
	sel.Mode = nil
	if err != nil {
		sel.Error = err.Error()
	}
	p.doc.Selection = &sel
	p.textf("--\t--\t--\n")
}

// Display reports one display and its mode catalog.
func (p *Printer) Display(d Display) {
	if d.Modes == nil {
		d.Modes = []Mode{}
	}
	p.doc.Displays = append(p.doc.Displays, d)

	p.textf("--\t--\t--\n")
	p.textf("DISPLAY: %d\n", d.Index)
	p.textf("\tID:\t%d\n", d.ID)
	if d.Error != "" {
		return
	}
	p.textf("\tModes:\t%d\n", len(d.Modes))
	p.textf("\t-----\t-----\t------\n")
	p.textf("\tIndex\tWidth\tHeight\n")
	p.textf("\t-----\t-----\t------\n")
	for _, m := range d.Modes {
		p.textf("\t[%d] \t%d\t%d\n", m.Index, m.Width, m.Height)
	}
}

// Flush writes the structured document, if any, and returns the first error
// seen while writing.
func (p *Printer) Flush() error {
	if p.err != nil {
		return p.err
	}
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		p.err = enc.Encode(p.doc)
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(p.doc); err != nil {
			p.err = err
		} else {
			p.err = enc.Close()
		}
	}
	return p.err
}

// Document returns the collected report.
func (p *Printer) Document() Document {
	return p.doc
}

func (p *Printer) textf(format string, args ...any) {
	if p.format != FormatText || p.err != nil {
		return
	}
	if _, err := fmt.Fprintf(p.out, format, args...); err != nil {
		p.err = err
	}
}
