package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Diagnostics writes one-line messages to stderr. Color is used only when the
// destination is a terminal and NO_COLOR is unset.
type Diagnostics struct {
	out  io.Writer
	warn *color.Color
	fail *color.Color
}

func NewDiagnostics(out io.Writer) *Diagnostics {
	d := &Diagnostics{
		out:  out,
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
	}
	if isTerminal(out) && os.Getenv("NO_COLOR") == "" {
		d.warn.EnableColor()
		d.fail.EnableColor()
	} else {
		d.warn.DisableColor()
		d.fail.DisableColor()
	}
	return d
}

// Warnf reports a problem the run recovers from.
func (d *Diagnostics) Warnf(format string, args ...any) {
	d.warn.Fprintln(d.out, fmt.Sprintf(format, args...))
}

// Errorf reports a failed operation.
func (d *Diagnostics) Errorf(format string, args ...any) {
	d.fail.Fprintln(d.out, fmt.Sprintf(format, args...))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
