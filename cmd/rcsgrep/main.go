// Command rcsgrep searches every revision of RCS files for a pattern.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"

	"github.com/starford/rcsgrep/internal/apperr"
)

// Exit statuses, as grep(1).
const (
	exitMatch   = 0
	exitNoMatch = 1
	exitError   = 2
)

// errNoMatch ends a successful search that found nothing.
var errNoMatch = errors.New("no matches")

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitMatch
	case errors.Is(err, errNoMatch):
		return exitNoMatch
	default:
		return exitError
	}
}

func reportError(w io.Writer, err error) {
	logger := slog.New(slog.NewTextHandler(w, nil))
	attrs := []any{slog.String("error", err.Error())}
	var ioErr *apperr.IOError
	if errors.As(err, &ioErr) {
		attrs = append(attrs, slog.String("path", ioErr.Path))
	}
	logger.Error("rcsgrep failed", attrs...)
}

func main() {
	cmd := newCommand(afero.NewOsFs(), os.Stdout, os.Stderr)
	err := cmd.Run(context.Background(), os.Args)
	if err != nil && !errors.Is(err, errNoMatch) {
		reportError(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}
