// Package main is the entry point for wstrim.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/wstrim/internal/app"
	"github.com/dshills/wstrim/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// cliOptions holds the command line on top of app.Options.
type cliOptions struct {
	app      app.Options
	files    []string
	baseline string
	dryRun   bool
	noColor  bool
	watch    bool
	logLevel string
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, level := parseFlags()

	logger := logging.New(logging.Config{
		Level:  level,
		Output: os.Stderr,
		Prefix: "wstrim",
	})
	opts.app.Logger = logger

	var baseline *string
	if opts.baseline != "" {
		data, err := os.ReadFile(opts.baseline)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading baseline: %v\n", err)
			return 1
		}
		text := string(data)
		baseline = &text
	}

	application, err := app.New(opts.app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.watch {
		if err := application.Watch(ctx, opts.files...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	color := !opts.noColor && term.IsTerminal(int(os.Stdout.Fd()))
	status := 0
	for _, file := range opts.files {
		report, err := application.ProcessFile(ctx, file, app.ProcessOptions{
			Baseline: baseline,
			DryRun:   opts.dryRun,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = 1
			continue
		}
		if opts.dryRun {
			if err := app.WritePreview(os.Stdout, report.Patch, color); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				status = 1
			}
			continue
		}
		if report.Changed {
			logger.Info("trimmed %s", report.Path)
		}
	}

	snap := application.Metrics().Snapshot()
	logger.Debug("%d files, %d lines trimmed, %d owner matches",
		len(opts.files), snap.TrimmedLines, snap.OwnerMatches)
	return status
}

func parseFlags() (cliOptions, logging.Level) {
	var opts cliOptions
	var plugins stringList
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.app.ConfigPath, "config", "", "Path to settings file")
	flag.StringVar(&opts.app.ConfigPath, "c", "", "Path to settings file (shorthand)")
	flag.StringVar(&opts.app.WorkspacePath, "workspace", "", "Workspace directory holding .wstrim.toml or .wstrim.yaml")
	flag.StringVar(&opts.app.WorkspacePath, "w", "", "Workspace directory (shorthand)")
	flag.StringVar(&opts.baseline, "baseline", "", "File holding the text as it was opened")
	flag.StringVar(&opts.baseline, "b", "", "Baseline file (shorthand)")
	flag.BoolVar(&opts.dryRun, "n", false, "Print the patch instead of writing files")
	flag.BoolVar(&opts.noColor, "no-color", false, "Do not color the dry-run patch")
	flag.BoolVar(&opts.watch, "watch", false, "Trim files every time they are written")
	flag.Var(&plugins, "plugin", "Lua plugin script (repeatable)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "wstrim - trim trailing whitespace on modified lines\n\n")
		fmt.Fprintf(os.Stderr, "Usage: wstrim [options] files...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  wstrim -b orig.go main.go     Trim lines of main.go that differ from orig.go\n")
		fmt.Fprintf(os.Stderr, "  wstrim -n -b orig.go main.go  Show the patch without writing\n")
		fmt.Fprintf(os.Stderr, "  wstrim -watch *.go            Trim on every save\n")
		fmt.Fprintf(os.Stderr, "  wstrim -c settings.toml a.go  Apply owner patterns from settings.toml\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("wstrim %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	opts.files = flag.Args()
	opts.app.Plugins = plugins
	opts.app.WatchSettings = opts.watch

	switch {
	case len(opts.files) == 0:
		flag.Usage()
		os.Exit(2)
	case opts.baseline != "" && len(opts.files) != 1:
		fmt.Fprintln(os.Stderr, "Error: -baseline takes exactly one file")
		os.Exit(2)
	case opts.baseline != "" && opts.watch:
		fmt.Fprintln(os.Stderr, "Error: -baseline cannot be combined with -watch")
		os.Exit(2)
	case opts.dryRun && opts.watch:
		fmt.Fprintln(os.Stderr, "Error: -n cannot be combined with -watch")
		os.Exit(2)
	}

	return opts, level
}
