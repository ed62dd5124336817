package grep

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/rcsgrep/internal/apperr"
	"github.com/starford/rcsgrep/internal/rcs"
	"github.com/starford/rcsgrep/internal/testutil/fixture"
)

func engineFor(t *testing.T, src, name string) *Engine {
	t.Helper()
	f, err := rcs.Parse([]byte(src))
	require.NoError(t, err)
	e, err := NewEngine(f, name)
	require.NoError(t, err)
	return e
}

func collect(t *testing.T, e *Engine, pattern string, opts ScanOptions) []Match {
	t.Helper()
	m, err := NewMatcher(pattern, MatcherOptions{})
	require.NoError(t, err)
	it, err := e.Scan(m, opts)
	require.NoError(t, err)
	var out []Match
	for it.Next() {
		out = append(out, it.Match())
	}
	require.NoError(t, it.Err())
	return out
}

type hit struct {
	Rev  rcs.Num
	Line int
	Text string
}

func hits(ms []Match) []hit {
	out := make([]hit, len(ms))
	for i, m := range ms {
		out[i] = hit{m.Revision, m.Line, m.Text}
	}
	return out
}

func TestScanTwoRevisions(t *testing.T) {
	e := engineFor(t, fixture.TwoRevisions, "greet.txt,v")

	got := collect(t, e, "hello", ScanOptions{})
	require.Len(t, got, 1)
	assert.Equal(t, hit{"1.1", 1, "hello"}, hits(got)[0])
	assert.Equal(t, "alice", got[0].Author)
	assert.Equal(t, "1999-12-31T23:59:59Z", got[0].Date.ISO())
	assert.Equal(t, []string{"REL_1"}, got[0].Tags)
	assert.Equal(t, "greet.txt,v", got[0].Filename)

	got = collect(t, e, "HELLO", ScanOptions{})
	require.Len(t, got, 1)
	assert.Equal(t, hit{"1.2", 1, "HELLO"}, hits(got)[0])
	assert.Equal(t, "bob", got[0].Author)
	assert.Equal(t, "shout, mail bob@example.com\n", got[0].Log)
}

func TestScanAttributesOrigin(t *testing.T) {
	e := engineFor(t, fixture.TwoRevisions, "greet.txt,v")

	got := collect(t, e, "world", ScanOptions{})
	require.Len(t, got, 2)
	for _, m := range got {
		assert.Equal(t, rcs.Num("1.1"), m.Origin)
		assert.Equal(t, "alice", m.Author)
	}
	assert.Equal(t, rcs.Num("1.2"), got[1].Revision)
}

func TestScanVisitOrder(t *testing.T) {
	e := engineFor(t, fixture.Branching, "b,v")

	got := collect(t, e, "^delta$", ScanOptions{})
	assert.Equal(t, []hit{
		{"1.2", 4, "delta"},
		{"1.2.1.1", 4, "delta"},
		{"1.2.1.2", 4, "delta"},
		{"1.2.2.1", 4, "delta"},
		{"1.3", 3, "delta"},
	}, hits(got))
	for _, m := range got {
		assert.Equal(t, rcs.Num("1.2"), m.Origin)
	}

	got = collect(t, e, "fix", ScanOptions{})
	assert.Equal(t, []hit{
		{"1.2.1.1", 5, "fix one"},
		{"1.2.1.2", 5, "fix two"},
	}, hits(got))
	assert.Equal(t, "dave", got[1].Author)
}

func TestScanRevisionFilter(t *testing.T) {
	e := engineFor(t, fixture.Branching, "b,v")

	got := collect(t, e, "a", ScanOptions{Revisions: []string{"FEATURE", "REL_1_0"}})
	revs := map[rcs.Num]bool{}
	for _, m := range got {
		revs[m.Revision] = true
	}
	assert.Equal(t, map[rcs.Num]bool{"1.1": true, "1.2.2.1": true}, revs)
	assert.Equal(t, rcs.Num("1.1"), got[0].Revision)

	m, err := NewMatcher("a", MatcherOptions{})
	require.NoError(t, err)
	_, err = e.Scan(m, ScanOptions{Revisions: []string{"nope"}})
	assert.ErrorIs(t, err, apperr.ErrUnresolvedTag)
	assert.Contains(t, err.Error(), "b,v")
}

func TestScanLineWraps(t *testing.T) {
	e := engineFor(t, fixture.Wrapped, "w,v")

	got := collect(t, e, "foo", ScanOptions{FollowWraps: true})
	assert.Equal(t, []hit{{"1.1", 1, "x = foo"}, {"1.2", 1, "x = foobar"}}, hits(got))
	assert.Equal(t, rcs.Num("1.1"), got[0].Origin)
	assert.Equal(t, rcs.Num("1.2"), got[1].Origin)
	assert.Equal(t, "bob", got[1].Author)

	assert.Empty(t, collect(t, e, "foo", ScanOptions{}))

	got = collect(t, e, "^end$", ScanOptions{FollowWraps: true})
	assert.Equal(t, []hit{{"1.1", 3, "end"}, {"1.2", 3, "end"}}, hits(got))
}

func TestScanWrapOnBranch(t *testing.T) {
	e := engineFor(t, fixture.Branching, "b,v")

	got := collect(t, e, "feature foo bar", ScanOptions{FollowWraps: true})
	require.Len(t, got, 1)
	assert.Equal(t, hit{"1.2.2.1", 5, "feature foo bar"}, hits(got)[0])
	assert.Equal(t, "erin", got[0].Author)
}

func TestScanStopsEarly(t *testing.T) {
	e := engineFor(t, fixture.Branching, "b,v")
	m, err := NewMatcher(".", MatcherOptions{})
	require.NoError(t, err)
	it, err := e.Scan(m, ScanOptions{})
	require.NoError(t, err)

	for m, err := range it.All() {
		require.NoError(t, err)
		assert.Equal(t, rcs.Num("1.1"), m.Revision)
		break
	}
	// Only the trunk replay has happened; no branch text was built.
	assert.Equal(t, 3, e.Stats().Computed)
}

func TestScanNoMatches(t *testing.T) {
	e := engineFor(t, fixture.Branching, "b,v")
	assert.Empty(t, collect(t, e, "zzz", ScanOptions{}))
}

const brokenDelta = `head 1.2;
access;
symbols;
locks;
1.2 date 2024.01.02.00.00.00; author bob; state Exp; branches; next 1.1;
1.1 date 2024.01.01.00.00.00; author alice; state Exp; branches; next ;
desc @@
1.2 log @@ text @one
@
1.1 log @@ text @a9 1
late
@
`

func TestScanReconstructionError(t *testing.T) {
	e := engineFor(t, brokenDelta, "broken,v")
	m, err := NewMatcher("one", MatcherOptions{})
	require.NoError(t, err)
	it, err := e.Scan(m, ScanOptions{})
	require.NoError(t, err)

	var gotErr error
	for _, err := range it.All() {
		gotErr = err
	}
	require.Error(t, gotErr)
	assert.ErrorIs(t, gotErr, apperr.ErrReconstruction)
	assert.Contains(t, gotErr.Error(), "broken,v")
	assert.Contains(t, gotErr.Error(), "1.1")
	assert.False(t, it.Next())
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/greet.txt,v", []byte(fixture.TwoRevisions), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/repo/junk,v", []byte("not rcs"), 0o644))

	e, err := Load(fs, "/repo/greet.txt,v")
	require.NoError(t, err)
	assert.Equal(t, "/repo/greet.txt,v", e.Filename())

	rev, lines, err := e.Text("REL_1")
	require.NoError(t, err)
	assert.Equal(t, rcs.Num("1.1"), rev)
	assert.Len(t, lines, 2)

	_, err = Load(fs, "/repo/missing,v")
	var ioErr *apperr.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "/repo/missing,v", ioErr.Path)
	assert.ErrorIs(t, err, apperr.ErrIO)

	_, err = Load(fs, "/repo/junk,v")
	assert.ErrorIs(t, err, apperr.ErrFormat)
	assert.Contains(t, err.Error(), "junk,v")
}
