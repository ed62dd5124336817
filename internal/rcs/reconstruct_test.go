package rcs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/rcsgrep/internal/apperr"
)

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func origins(lines []Line) []Num {
	out := make([]Num, len(lines))
	for i, l := range lines {
		out[i] = l.Origin
	}
	return out
}

func TestTextTwoRevisions(t *testing.T) {
	r := NewReconstructor(mustTree(t, twoRevs))

	old, err := r.Text("1.1")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, texts(old))
	assert.Equal(t, []Num{"1.1", "1.1"}, origins(old))

	head, err := r.Text("1.2")
	require.NoError(t, err)
	assert.Equal(t, []string{"HELLO", "world"}, texts(head))
	assert.Equal(t, []Num{"1.2", "1.1"}, origins(head))
}

func TestTextTrunkProvenance(t *testing.T) {
	r := NewReconstructor(mustTree(t, branching))

	tests := []struct {
		rev     Num
		lines   []string
		origins []Num
	}{
		{"1.1", []string{"alpha", "beta", "gamma"}, []Num{"1.1", "1.1", "1.1"}},
		{"1.2", []string{"alpha", "BETA", "gamma", "delta"}, []Num{"1.1", "1.2", "1.1", "1.2"}},
		{"1.3", []string{"BETA", "gamma", "delta", "epsilon"}, []Num{"1.2", "1.1", "1.2", "1.3"}},
	}
	for _, tt := range tests {
		t.Run(tt.rev.String(), func(t *testing.T) {
			got, err := r.Text(tt.rev)
			require.NoError(t, err)
			assert.Equal(t, tt.lines, texts(got))
			assert.Equal(t, tt.origins, origins(got))
		})
	}
}

func TestTextBranches(t *testing.T) {
	r := NewReconstructor(mustTree(t, branching))

	got, err := r.Text("1.2.1.2")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "BETA", "gamma", "delta", "fix two"}, texts(got))
	assert.Equal(t, []Num{"1.1", "1.2", "1.1", "1.2", "1.2.1.2"}, origins(got))

	// 1.2.1.1 was built on the way and is now cached.
	before := r.Stats()
	got, err = r.Text("1.2.1.1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "BETA", "gamma", "delta", "fix one"}, texts(got))
	assert.Equal(t, before.Computed, r.Stats().Computed)
	assert.Equal(t, before.Hits+1, r.Stats().Hits)

	got, err = r.Text("1.2.2.1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "BETA", "gamma", "delta", `feature fo\`, "o bar"}, texts(got))
}

func TestTextComputedOnce(t *testing.T) {
	tree := mustTree(t, branching)
	r := NewReconstructor(tree)
	for _, n := range tree.Walk() {
		_, err := r.Text(n)
		require.NoError(t, err)
	}
	assert.Equal(t, tree.Len(), r.Stats().Computed)
}

func TestTextErrors(t *testing.T) {
	r := NewReconstructor(mustTree(t, badProgram))
	_, err := r.Text("1.2")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrReconstruction)
	assert.Contains(t, err.Error(), "d5 1")

	r = NewReconstructor(mustTree(t, twoRevs))
	_, err = r.Text("4.4")
	assert.ErrorIs(t, err, apperr.ErrUnresolvedTag)

	src := []*lineObj{{text: "one"}, {text: "two"}}
	for _, e := range []Edit{
		{Op: OpDelete, Line: 2, Count: math.MaxInt},
		{Op: OpDelete, Line: 3, Count: 1},
		{Op: OpInsert, Line: math.MaxInt, Count: 1, Lines: []string{"x"}},
	} {
		assert.NotPanics(t, func() {
			_, err = apply("1.1", src, []Edit{e})
		}, e.String())
		assert.ErrorIs(t, err, apperr.ErrReconstruction, e.String())
	}
}

func TestApplyInsertAtDeletedBlock(t *testing.T) {
	src := []*lineObj{{text: "a"}, {text: "b"}, {text: "c"}, {text: "d"}}
	prog, err := ParseDiff("d2 2\na2 1\nX\n")
	require.NoError(t, err)

	out, err := apply("1.1", src, prog)
	require.NoError(t, err)
	got := make([]string, len(out))
	for i, o := range out {
		got[i] = o.text
	}
	assert.Equal(t, []string{"a", "X", "d"}, got)

	prog, err = ParseDiff("d3 1\nd1 1\n")
	require.NoError(t, err)
	_, err = apply("1.1", src, prog)
	assert.ErrorIs(t, err, apperr.ErrReconstruction)
}

func TestJoinWrapped(t *testing.T) {
	tree := mustTree(t, wrapped)
	r := NewReconstructor(tree)

	head, err := r.Text("1.2")
	require.NoError(t, err)
	got := JoinWrapped(head, tree.Depth)
	assert.Equal(t, []LogicalLine{
		{Text: "x = foobar", LineNo: 1, Origin: "1.2"},
		{Text: "end", LineNo: 3, Origin: "1.1"},
	}, got)

	old, err := r.Text("1.1")
	require.NoError(t, err)
	got = JoinWrapped(old, tree.Depth)
	assert.Equal(t, "x = foo", got[0].Text)
	assert.Equal(t, Num("1.1"), got[0].Origin)

	phys := Physical(head)
	require.Len(t, phys, 3)
	assert.Equal(t, LogicalLine{Text: "obar", LineNo: 2, Origin: "1.2"}, phys[1])
}

func TestJoinWrappedTrailingBackslash(t *testing.T) {
	lines := []Line{{Text: "a\\", Origin: "1.1"}, {Text: "b\\", Origin: "1.1"}}
	got := JoinWrapped(lines, func(Num) int { return 0 })
	assert.Equal(t, []LogicalLine{{Text: "ab\\", LineNo: 1, Origin: "1.1"}}, got)

	assert.Empty(t, JoinWrapped(nil, func(Num) int { return 0 }))
}

func TestTextProperties(t *testing.T) {
	for name, src := range map[string]string{"two": twoRevs, "branching": branching, "wrapped": wrapped} {
		t.Run(name, func(t *testing.T) {
			tree := mustTree(t, src)
			first, second := NewReconstructor(tree), NewReconstructor(mustTree(t, src))

			for _, n := range tree.Walk() {
				a, err := first.Text(n)
				require.NoError(t, err)
				b, err := second.Text(n)
				require.NoError(t, err)
				assert.Equal(t, a, b, "fresh reconstructors disagree on %s", n)

				for i, l := range a {
					assert.True(t, tree.IsAncestor(l.Origin, n), "%s line %d: origin %s is not an ancestor", n, i+1, l.Origin)
				}
			}

			head, _ := tree.Rev(tree.Head())
			lines, err := first.Text(tree.Head())
			require.NoError(t, err)
			assert.Equal(t, head.Program[0].Lines, texts(lines))
		})
	}
}
