// Package grep searches every revision of an RCS file for a pattern.
package grep

import (
	"fmt"
	"iter"
	"time"

	"github.com/spf13/afero"

	"github.com/starford/rcsgrep/internal/apperr"
	"github.com/starford/rcsgrep/internal/metrics"
	"github.com/starford/rcsgrep/internal/rcs"
)

// Match is one matching line of one revision. Author, Date, Tags and Log
// describe Origin, the revision that introduced the line.
type Match struct {
	Revision rcs.Num
	Origin   rcs.Num
	Line     int
	Text     string
	Author   string
	Date     rcs.Date
	Tags     []string
	Log      string
	Filename string
}

// ScanOptions tunes a scan.
type ScanOptions struct {
	// FollowWraps joins backslash-continued lines before matching.
	FollowWraps bool
	// Revisions restricts the scan to these revision numbers, tags or
	// branches. Empty means every revision.
	Revisions []string
}

// Engine owns the revision tree and text cache of one file. It is not safe
// for concurrent use.
type Engine struct {
	tree     *rcs.Tree
	rec      *rcs.Reconstructor
	filename string
}

// NewEngine builds the revision tree of f.
func NewEngine(f *rcs.File, filename string) (*Engine, error) {
	tree, err := rcs.BuildTree(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &Engine{
		tree:     tree,
		rec:      rcs.NewReconstructor(tree),
		filename: filename,
	}, nil
}

// Load reads and parses name from fsys. Read failures are *apperr.IOError.
func Load(fsys afero.Fs, name string) (*Engine, error) {
	data, err := afero.ReadFile(fsys, name)
	if err != nil {
		return nil, &apperr.IOError{Path: name, Err: err}
	}
	f, err := rcs.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return NewEngine(f, name)
}

// Filename returns the name matches are reported under.
func (e *Engine) Filename() string { return e.filename }

// Tree returns the revision tree.
func (e *Engine) Tree() *rcs.Tree { return e.tree }

// Text reconstructs the revision named by rev (number, tag or branch).
func (e *Engine) Text(rev string) (rcs.Num, []rcs.Line, error) {
	n, err := e.tree.Resolve(rev)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", e.filename, err)
	}
	lines, err := e.text(n)
	if err != nil {
		return "", nil, err
	}
	return n, lines, nil
}

func (e *Engine) text(n rcs.Num) ([]rcs.Line, error) {
	before := e.rec.Stats()
	lines, err := e.rec.Text(n)
	after := e.rec.Stats()
	metrics.RevisionsReconstructed.Add(float64(after.Computed - before.Computed))
	metrics.CacheHits.Add(float64(after.Hits - before.Hits))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.filename, err)
	}
	return lines, nil
}

// Stats reports reconstruction work done by this engine.
func (e *Engine) Stats() rcs.Stats { return e.rec.Stats() }

// Scan returns an iterator over every line matching m, revision by
// revision in tree walk order. Revision names in opts are resolved up front.
func (e *Engine) Scan(m Matcher, opts ScanOptions) (*Matches, error) {
	revs := e.tree.Walk()
	if len(opts.Revisions) > 0 {
		want := make(map[rcs.Num]bool, len(opts.Revisions))
		for _, name := range opts.Revisions {
			n, err := e.tree.Resolve(name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.filename, err)
			}
			want[n] = true
		}
		filtered := revs[:0]
		for _, n := range revs {
			if want[n] {
				filtered = append(filtered, n)
			}
		}
		revs = filtered
	}
	return &Matches{e: e, m: m, follow: opts.FollowWraps, revs: revs, started: time.Now()}, nil
}

// Matches is a single-pass iterator over scan results. Revisions are
// reconstructed only as Next reaches them; abandoning the iterator stops
// the work.
type Matches struct {
	e      *Engine
	m      Matcher
	follow bool

	revs  []rcs.Num
	next  int
	cur   rcs.Num
	lines []rcs.LogicalLine
	pos   int

	match   Match
	err     error
	done    bool
	started time.Time
}

// Next advances to the next match. It returns false at the end of the scan
// or on error; check Err afterwards.
func (it *Matches) Next() bool {
	if it.done {
		return false
	}
	for {
		for it.pos < len(it.lines) {
			l := it.lines[it.pos]
			it.pos++
			if it.m.Match(l.Text) {
				it.match = it.e.record(it.cur, l)
				return true
			}
		}
		if it.next >= len(it.revs) {
			it.finish(nil)
			return false
		}
		rev := it.revs[it.next]
		it.next++
		text, err := it.e.text(rev)
		if err != nil {
			it.finish(err)
			return false
		}
		it.cur, it.pos = rev, 0
		if it.follow {
			it.lines = rcs.JoinWrapped(text, it.e.tree.Depth)
		} else {
			it.lines = rcs.Physical(text)
		}
	}
}

func (it *Matches) finish(err error) {
	it.done = true
	it.err = err
	it.lines = nil
	if err == nil {
		metrics.ScanDuration.Observe(time.Since(it.started).Seconds())
	}
}

// Match returns the current match.
func (it *Matches) Match() Match { return it.match }

// Err returns the error that ended the scan, if any.
func (it *Matches) Err() error { return it.err }

// All adapts the iterator for range-over-func. A scan error is yielded once,
// last, with a zero Match.
func (it *Matches) All() iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		for it.Next() {
			if !yield(it.Match(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(Match{}, err)
		}
	}
}

func (e *Engine) record(rev rcs.Num, l rcs.LogicalLine) Match {
	m := Match{
		Revision: rev,
		Origin:   l.Origin,
		Line:     l.LineNo,
		Text:     l.Text,
		Filename: e.filename,
	}
	if o, ok := e.tree.Rev(l.Origin); ok {
		m.Author = o.Author
		m.Date = o.Date
		m.Tags = o.Tags
		m.Log = o.Log
	}
	return m
}
