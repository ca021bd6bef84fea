package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/1broseidon/displix/internal/config"
	"github.com/1broseidon/displix/internal/display"
	"github.com/1broseidon/displix/internal/platform"
	"github.com/1broseidon/displix/internal/report"
	"github.com/1broseidon/displix/internal/session"
)

var version = "dev"

var openBackendFn = platform.Open

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type cliFlags struct {
	display    int
	mode       int
	modeSet    bool
	all        bool
	online     bool
	output     string
	configPath string
	verbose    bool
	version    bool
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: displix [-d display] [-m mode] [-a] [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Without -m, lists every display and the modes it supports.")
	fmt.Fprintln(w, "With -m, switches the selected display to that mode for this session.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
}

func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("displix", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&f.display, "d", -1, "display `index` to configure (0 or out of range selects the primary display)")
	fs.IntVar(&f.mode, "m", 0, "mode `index` to apply to the selected display")
	fs.BoolVar(&f.all, "a", false, "include duplicate low-resolution modes")
	fs.BoolVar(&f.online, "online", false, "enumerate online displays, including inactive and mirrored ones")
	fs.StringVar(&f.output, "o", "", "output `format`: text, yaml or json")
	fs.StringVar(&f.configPath, "config", "", "config file `path` (default ~/.config/displix/config.yaml)")
	fs.BoolVar(&f.verbose, "v", false, "log debug details to stderr")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return f, errors.New("unexpected arguments")
	}
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "m" {
			f.modeSet = true
		}
	})
	return f, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// sessionOptions merges flags over the config file.
func sessionOptions(f cliFlags, cfg *config.Config) (session.Options, error) {
	opts := session.Options{
		DisplayOrdinal: f.display,
		IncludeLowRes:  f.all || cfg.ShowLowRes,
		List:           display.ActiveDisplays,
	}
	if f.online || cfg.List == config.ListOnline {
		opts.List = display.OnlineDisplays
	}
	if f.modeSet {
		mode := f.mode
		opts.ModeIndex = &mode
	}

	output := cfg.Output
	if f.output != "" {
		output = f.output
	}
	format, err := report.ParseFormat(output)
	if err != nil {
		return session.Options{}, err
	}
	opts.Format = format
	return opts, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if f.version {
		fmt.Fprintf(stdout, "displix %s\n", version)
		return 0
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	opts, err := sessionOptions(f, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := cfg.SlogLevel()
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(stderr, level)

	backend, err := openBackendFn(platform.Options{
		Logger:     logger,
		Display:    cfg.Display,
		XAuthority: cfg.XAuthority,
		Fade: platform.Fade{
			Enabled:  cfg.Fade.Enabled,
			Steps:    cfg.Fade.Steps,
			Duration: cfg.Fade.Duration,
		},
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return int(display.CodeOf(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("failed to close display subsystem", "error", err)
		}
	}()

	return session.Run(backend, opts, stdout, stderr, logger)
}
