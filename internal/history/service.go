// Package history serves reconstructed RCS history to the API and MCP
// front ends.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/starford/rcsgrep/internal/apperr"
	"github.com/starford/rcsgrep/internal/grep"
	"github.com/starford/rcsgrep/internal/index"
	"github.com/starford/rcsgrep/internal/models"
	"github.com/starford/rcsgrep/internal/rcs"
	"github.com/starford/rcsgrep/internal/storage"
)

// DefaultGrepLimit caps grep results when the caller gives no limit.
const DefaultGrepLimit = 500

// TextLine is one line of a reconstructed revision.
type TextLine struct {
	No     int    `json:"no"`
	Text   string `json:"text"`
	Origin string `json:"origin"`
}

// RevisionText is the full content of one revision.
type RevisionText struct {
	Path  string     `json:"path"`
	Rev   string     `json:"rev"`
	Lines []TextLine `json:"lines"`
}

// GrepOptions mirrors the command-line switches.
type GrepOptions struct {
	Format      string
	Fixed       bool
	IgnoreCase  bool
	FollowWraps bool
	Revisions   []string
	Limit       int
}

// GrepHit is one match with its formatted tuple.
type GrepHit struct {
	Path     string   `json:"path"`
	Revision string   `json:"revision"`
	Origin   string   `json:"origin"`
	Line     int      `json:"line"`
	Text     string   `json:"text"`
	Author   string   `json:"author"`
	Date     string   `json:"date"`
	Tags     []string `json:"tags"`
	Fields   []any    `json:"fields"`
}

// GrepResult carries the hits and whether the limit cut them short.
type GrepResult struct {
	Hits      []GrepHit `json:"hits"`
	Truncated bool      `json:"truncated"`
}

// Service coordinates storage, index and engine operations.
type Service struct {
	store storage.Provider
	db    index.HistoryIndex
}

// NewService creates a new history service.
func NewService(store storage.Provider, db index.HistoryIndex) *Service {
	return &Service{store: store, db: db}
}

// load parses path into a fresh engine.
func (s *Service) load(path string) (*grep.Engine, error) {
	data, err := s.store.Read(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, apperr.ErrNotFound
		case errors.Is(err, storage.ErrOutsideRoot):
			return nil, &apperr.ConfigError{Field: "path", Msg: err.Error()}
		}
		return nil, &apperr.IOError{Path: path, Err: err}
	}
	f, err := rcs.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return grep.NewEngine(f, path)
}

// Files lists indexed files.
func (s *Service) Files(_ context.Context) ([]models.FileMeta, error) {
	rows, err := s.db.ListFiles()
	if err != nil {
		return nil, err
	}
	out := make([]models.FileMeta, len(rows))
	for i, r := range rows {
		out[i] = models.FileMeta{
			Path:      r.Path,
			Checksum:  r.Checksum,
			Head:      r.Head,
			Revisions: r.Revisions,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return out, nil
}

// Revisions returns the revisions of path in walk order, from the index
// when it has them and from the file otherwise.
func (s *Service) Revisions(_ context.Context, path string) ([]models.RevisionInfo, error) {
	revs, err := s.db.Revisions(path)
	if err != nil {
		return nil, err
	}
	if len(revs) > 0 {
		return revs, nil
	}
	e, err := s.load(path)
	if err != nil {
		return nil, err
	}
	tree := e.Tree()
	out := make([]models.RevisionInfo, 0, tree.Len())
	for _, n := range tree.Walk() {
		r, _ := tree.Rev(n)
		out = append(out, index.RevisionInfo(r))
	}
	return out, nil
}

// ReadRevision reconstructs one revision, named by number, tag or branch.
// An empty rev means head.
func (s *Service) ReadRevision(_ context.Context, path, rev string) (*RevisionText, error) {
	e, err := s.load(path)
	if err != nil {
		return nil, err
	}
	if rev == "" {
		rev = e.Tree().Head().String()
	}
	n, lines, err := e.Text(rev)
	if err != nil {
		return nil, err
	}
	out := &RevisionText{Path: path, Rev: n.String(), Lines: make([]TextLine, len(lines))}
	for i, l := range lines {
		out.Lines[i] = TextLine{No: i + 1, Text: l.Text, Origin: l.Origin.String()}
	}
	return out, nil
}

// Grep scans path, or every indexed file when path is empty. Pattern and
// format problems are *apperr.ConfigError.
func (s *Service) Grep(ctx context.Context, path, pattern string, opts GrepOptions) (*GrepResult, error) {
	spec := opts.Format
	if spec == "" {
		spec = grep.DefaultFormat
	}
	format, err := grep.ParseFormat(spec)
	if err != nil {
		return nil, err
	}
	m, err := grep.NewMatcher(pattern, grep.MatcherOptions{Fixed: opts.Fixed, IgnoreCase: opts.IgnoreCase})
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultGrepLimit
	}

	paths := []string{path}
	if path == "" {
		files, err := s.db.ListFiles()
		if err != nil {
			return nil, err
		}
		paths = paths[:0]
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	res := &GrepResult{Hits: []GrepHit{}}
	for _, p := range paths {
		e, err := s.load(p)
		if err != nil {
			return nil, err
		}
		it, err := e.Scan(m, grep.ScanOptions{FollowWraps: opts.FollowWraps, Revisions: opts.Revisions})
		if err != nil {
			return nil, err
		}
		for match, err := range it.All() {
			if err != nil {
				return nil, err
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if len(res.Hits) == limit {
				res.Truncated = true
				return res, nil
			}
			res.Hits = append(res.Hits, hitFrom(match, format))
		}
	}
	return res, nil
}

func hitFrom(m grep.Match, f grep.Format) GrepHit {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return GrepHit{
		Path:     m.Filename,
		Revision: m.Revision.String(),
		Origin:   m.Origin.String(),
		Line:     m.Line,
		Text:     m.Text,
		Author:   m.Author,
		Date:     m.Date.ISO(),
		Tags:     tags,
		Fields:   f.Apply(m),
	}
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]models.LineHit, error) {
	hits, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []models.LineHit{}
	}
	return hits, nil
}
