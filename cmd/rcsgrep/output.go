package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/starford/rcsgrep/internal"
	"github.com/starford/rcsgrep/internal/grep"
)

// colorEnabled resolves a --color mode for w. auto means w is a terminal.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case internal.ColorAlways:
		return true
	case internal.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	revColor   = color.New(color.FgGreen)
	matchColor = color.New(color.FgRed, color.Bold)
)

// printer writes one line per match: a JSON array of the formatted fields,
// or the fields joined by sep.
type printer struct {
	w      io.Writer
	format grep.Format
	sep    string
	useSep bool
	m      grep.Matcher
	color  bool
}

func (p *printer) print(m grep.Match) error {
	values := p.format.Apply(m)
	if !p.useSep {
		enc := json.NewEncoder(p.w)
		enc.SetEscapeHTML(false)
		return enc.Encode(values)
	}

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = p.render(p.format[i], v)
	}
	_, err := io.WriteString(p.w, strings.Join(parts, p.sep)+"\n")
	return err
}

func (p *printer) render(f grep.Field, v any) string {
	var s string
	switch v := v.(type) {
	case string:
		s = v
	case int:
		s = strconv.Itoa(v)
	case []string:
		s = strings.Join(v, ",")
	}
	if !p.color {
		return s
	}
	switch f {
	case grep.FieldRevision, grep.FieldOrigin:
		return colorize(revColor, s)
	case grep.FieldText:
		return p.highlight(s)
	}
	return s
}

// highlight colors every span of s the matcher hits.
func (p *printer) highlight(s string) string {
	spans := p.m.Spans(s)
	if len(spans) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, sp := range spans {
		if sp[1] == sp[0] {
			continue
		}
		b.WriteString(s[last:sp[0]])
		b.WriteString(colorize(matchColor, s[sp[0]:sp[1]]))
		last = sp[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// colorize ignores color.NoColor: the caller has already decided.
func colorize(c *color.Color, s string) string {
	c.EnableColor()
	return c.Sprint(s)
}
