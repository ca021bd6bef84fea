// Package session drives one displix run: it enumerates displays, then either
// applies the requested mode or lists every display's modes.
package session

import (
	"errors"
	"io"
	"log/slog"

	"github.com/1broseidon/displix/internal/display"
	"github.com/1broseidon/displix/internal/report"
)

// Options selects what a run does.
type Options struct {
	// DisplayOrdinal picks a display by enumeration order. Values outside
	// 0 < n < count, including 0 and -1 (unset), select the primary display.
	DisplayOrdinal int
	// ModeIndex switches the run to configure mode. nil lists modes.
	ModeIndex     *int
	IncludeLowRes bool
	List          display.ListKind
	Format        report.Format
}

// Run executes a session and returns the process exit code. A failed
// configuration still exits 0; a failed enumeration exits with its code.
func Run(sub display.Subsystem, opts Options, stdout, stderr io.Writer, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Format == "" {
		opts.Format = report.FormatText
	}
	s := &session{
		sub:    sub,
		opts:   opts,
		out:    report.NewPrinter(stdout, opts.Format),
		diag:   report.NewDiagnostics(stderr),
		logger: logger,
	}
	return s.run()
}

type session struct {
	sub    display.Subsystem
	opts   Options
	out    *report.Printer
	diag   *report.Diagnostics
	logger *slog.Logger
}

func (s *session) run() int {
	dir, err := display.EnumerateDisplays(s.sub, s.opts.List)
	if err != nil {
		code := display.CodeOf(err)
		s.logger.Debug("display enumeration failed", "list", s.opts.List, "error", err)
		var enumErr *display.EnumerationError
		count := 0
		if errors.As(err, &enumErr) {
			count = int(enumErr.Count)
		}
		s.out.Count(count)
		if ferr := s.out.Flush(); ferr != nil {
			s.logger.Debug("failed to write report", "error", ferr)
		}
		s.diag.Errorf("Failed to enumerate displays: %d", int32(code))
		return int(code)
	}
	s.out.Count(dir.Len())
	s.logger.Debug("displays enumerated", "list", dir.Kind(), "count", dir.Len(), "main", dir.Main().ID)

	if s.opts.ModeIndex == nil || !s.configure(dir) {
		s.list(dir)
	}

	if err := s.out.Flush(); err != nil {
		s.logger.Error("failed to write report", "error", err)
		return 1
	}
	return 0
}

// configure resolves and applies the requested mode. It returns false when
// the index was invalid and the listing should be printed instead.
func (s *session) configure(dir *display.Directory) bool {
	index := *s.opts.ModeIndex
	dev := dir.Select(s.opts.DisplayOrdinal)
	sel := report.Selection{
		Display:   dev.Ordinal,
		DisplayID: uint32(dev.ID),
		ModeIndex: index,
	}

	mode, err := display.ResolveModeAtIndex(s.sub, dev, s.opts.IncludeLowRes, index)
	if errors.Is(err, display.ErrModeNotFound) {
		s.logger.Debug("mode index rejected", "display", dev.ID, "error", err)
		s.out.InvalidSelection(sel, err)
		s.diag.Warnf("'%d' is not a valid display mode index.", index)
		return false
	}
	if err != nil {
		sel.Error = err.Error()
		s.out.Selected(sel)
		s.diag.Errorf("Failed to read display modes: %d", int32(display.CodeOf(err)))
		return true
	}

	sel.Mode = &report.Mode{
		Index:       index,
		Width:       mode.Width,
		Height:      mode.Height,
		RefreshRate: mode.RefreshRate,
	}
	s.out.Selected(sel)

	err = display.ApplyMode(s.sub, dev, mode, s.logger)
	s.out.Applied(err)
	if err != nil {
		s.diag.Errorf("Failed to set display mode: %d", int32(display.CodeOf(err)))
		return true
	}
	s.verify(dev, mode)
	return true
}

// verify checks that the display now reports the applied mode. A mismatch is
// only logged.
func (s *session) verify(dev display.Device, want display.Mode) {
	got, err := s.sub.CurrentMode(dev.ID)
	if err != nil {
		s.logger.Debug("current mode unavailable after configuration", "display", dev.ID, "error", err)
		return
	}
	if got.Width != want.Width || got.Height != want.Height {
		s.logger.Warn("display reports a different mode after configuration",
			"display", dev.ID,
			"want_width", want.Width,
			"want_height", want.Height,
			"width", got.Width,
			"height", got.Height,
		)
		return
	}
	s.logger.Debug("mode applied", "display", dev.ID, "width", got.Width, "height", got.Height)
}

func (s *session) list(dir *display.Directory) {
	main := dir.Main()
	for _, dev := range dir.Devices() {
		d := report.Display{
			Index: dev.Ordinal,
			ID:    uint32(dev.ID),
			Main:  dev.ID == main.ID,
		}

		var modes []display.Mode
		err := display.WithModes(s.sub, dev, s.opts.IncludeLowRes, func(l *display.ModeList) error {
			modes = l.All()
			return nil
		})
		if err != nil {
			d.Error = err.Error()
			s.diag.Errorf("Failed to read display modes for display %d: %d", dev.Ordinal, int32(display.CodeOf(err)))
		}
		for _, m := range modes {
			d.Modes = append(d.Modes, report.Mode{
				Index:       m.Index,
				Width:       m.Width,
				Height:      m.Height,
				RefreshRate: m.RefreshRate,
			})
		}
		if s.opts.Format != report.FormatText {
			d.Current = s.current(dev, modes)
		}
		s.out.Display(d)
	}
}

// current returns the display's active mode, indexed into modes. The index
// is -1 when the catalog does not list it.
func (s *session) current(dev display.Device, modes []display.Mode) *report.Mode {
	cur, err := s.sub.CurrentMode(dev.ID)
	if err != nil {
		s.logger.Debug("current mode unavailable", "display", dev.ID, "error", err)
		return nil
	}
	index := -1
	for _, m := range modes {
		if m.ID == cur.ID {
			index = m.Index
			break
		}
	}
	return &report.Mode{
		Index:       index,
		Width:       cur.Width,
		Height:      cur.Height,
		RefreshRate: cur.RefreshRate,
	}
}
