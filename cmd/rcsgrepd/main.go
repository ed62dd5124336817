// Command rcsgrepd indexes an RCS repository and serves its history over
// HTTP, or over MCP on stdio.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/rcsgrep/internal"
	pkgconfig "github.com/starford/rcsgrep/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if path == "" {
		if err := pkgconfig.Validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
		return cfg, nil
	}
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

func serve(stdout io.Writer) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := internal.Run(ctx,
			internal.WithConfig(cfg),
			internal.WithLogger(newLogger(stdout, cfg, cmd.Bool("verbose"))),
		); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "rcsgrepd",
		Usage:     "Index an RCS repository and serve its history over HTTP",
		Writer:    stdout,
		ErrWriter: stderr,
		Action:    serve(stdout),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("RCSGREP_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log at debug level",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "mcp",
				Usage: "Serve MCP tools on stdio",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMCP(ctx,
						internal.WithConfig(cfg),
						internal.WithLogger(newLogger(stderr, cfg, cmd.Bool("verbose"))),
					)
				},
			},
			{
				Name:  "index",
				Usage: "Bring the history index up to date and exit",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					res, err := internal.RunIndex(ctx,
						internal.WithConfig(cfg),
						internal.WithLogger(newLogger(stderr, cfg, cmd.Bool("verbose"))),
					)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(stdout, "indexed %d, unchanged %d, failed %d, removed %d\n",
						res.Indexed, res.Unchanged, res.Failed, res.Removed)
					return err
				},
			},
		},
	}
}

func main() {
	if err := newCommand(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
