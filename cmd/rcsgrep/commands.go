package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/starford/rcsgrep/internal"
	"github.com/starford/rcsgrep/internal/apperr"
	"github.com/starford/rcsgrep/internal/grep"
	"github.com/starford/rcsgrep/internal/metrics"
	pkgconfig "github.com/starford/rcsgrep/pkg/config"
)

const description = `Every revision of each file is reconstructed and searched, trunk first and
oldest to newest, each revision's branches following it. A matching line is
attributed to the revision that introduced it.

Field codes for --format:
`

// newCommand builds the command tree. Files are read from fsys and results
// written to stdout; logs go to stderr.
func newCommand(fsys afero.Fs, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:                   "rcsgrep",
		Usage:                  "Search the full revision history of RCS files",
		UsageText:              "rcsgrep [options] pattern file...",
		Description:            description + grep.Legend(),
		Writer:                 stdout,
		ErrWriter:              stderr,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (optional)",
				Sources: cli.EnvVars("RCSGREP_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log at debug level",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output field codes (see below)",
				Value:   grep.DefaultFormat,
			},
			&cli.StringFlag{
				Name:    "sep",
				Aliases: []string{"s"},
				Usage:   "Join fields with `SEP` instead of printing JSON arrays",
			},
			&cli.BoolFlag{
				Name:    "linewraps",
				Aliases: []string{"w"},
				Usage:   "Join lines continued with a trailing backslash before matching",
			},
			&cli.BoolFlag{
				Name:    "fixed-strings",
				Aliases: []string{"F"},
				Usage:   "Treat the pattern as a literal string",
			},
			&cli.BoolFlag{
				Name:    "ignore-case",
				Aliases: []string{"i"},
				Usage:   "Match case-insensitively",
			},
			&cli.StringSliceFlag{
				Name:    "revision",
				Aliases: []string{"r"},
				Usage:   "Only search this revision, tag or branch (repeatable)",
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Highlight separated output: auto, always or never",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return cli.ShowAppHelp(cmd)
			}
			return runGrep(ctx, cmd, fsys, stdout, stderr)
		},
	}
}

// loadConfig starts from the defaults and reads the file named by --config
// or RCSGREP_CONFIG over them. Validation is left to the caller so flags can
// replace file values first.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if path := cmd.String("config"); path != "" {
		if err := pkgconfig.Decode(path, cfg); err != nil {
			return nil, &apperr.ConfigError{Field: "config", Msg: err.Error()}
		}
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *internal.Config, verbose bool) *slog.Logger {
	level := cfg.App.LogLevel
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// runGrep is the root action: rcsgrep [options] pattern file...
func runGrep(ctx context.Context, cmd *cli.Command, fsys afero.Fs, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg, cmd.Bool("verbose"))

	opts := cfg.Grep
	if cmd.IsSet("format") {
		opts.Format = cmd.String("format")
	}
	useSep := opts.Separator != ""
	if cmd.IsSet("sep") {
		opts.Separator, useSep = cmd.String("sep"), true
	}
	if cmd.IsSet("linewraps") {
		opts.LineWraps = cmd.Bool("linewraps")
	}
	if cmd.IsSet("fixed-strings") {
		opts.FixedStrings = cmd.Bool("fixed-strings")
	}
	if cmd.IsSet("ignore-case") {
		opts.IgnoreCase = cmd.Bool("ignore-case")
	}
	if cmd.IsSet("color") {
		opts.Color = cmd.String("color")
	}

	// Everything the user typed is checked before the first file is opened.
	format, err := grep.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	cfg.Grep = opts
	if err := pkgconfig.Validate(cfg); err != nil {
		return &apperr.ConfigError{Field: "config", Msg: err.Error()}
	}
	opts = cfg.Grep
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return &apperr.ConfigError{Msg: "usage: " + cmd.UsageText}
	}
	pattern, files := args[0], args[1:]
	m, err := grep.NewMatcher(pattern, grep.MatcherOptions{Fixed: opts.FixedStrings, IgnoreCase: opts.IgnoreCase})
	if err != nil {
		return err
	}

	p := &printer{
		w:      stdout,
		format: format,
		sep:    opts.Separator,
		useSep: useSep,
		m:      m,
		color:  useSep && colorEnabled(opts.Color, stdout),
	}
	scan := grep.ScanOptions{FollowWraps: opts.LineWraps, Revisions: cmd.StringSlice("revision")}

	n, err := grepFiles(ctx, fsys, files, m, scan, p, logger)
	metrics.MatchesEmitted.WithLabelValues("cli").Add(float64(n))
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoMatch
	}
	return nil
}

// grepFiles scans files in order and prints every match. The first file
// that cannot be read, parsed or reconstructed ends the run.
func grepFiles(ctx context.Context, fsys afero.Fs, files []string, m grep.Matcher, opts grep.ScanOptions, p *printer, logger *slog.Logger) (int, error) {
	n := 0
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		e, err := grep.Load(fsys, name)
		if err != nil {
			return n, err
		}
		it, err := e.Scan(m, opts)
		if err != nil {
			return n, err
		}
		for match, err := range it.All() {
			if err != nil {
				return n, err
			}
			if err := p.print(match); err != nil {
				return n, fmt.Errorf("write output: %w", err)
			}
			n++
		}
		st := e.Stats()
		logger.Debug("file searched",
			slog.String("file", name),
			slog.Int("revisions", e.Tree().Len()),
			slog.Int("computed", st.Computed),
			slog.Int("cache_hits", st.Hits))
	}
	return n, nil
}
