package rcs

import (
	"fmt"
)

// Line is one line of a reconstructed revision together with the revision
// that introduced it.
type Line struct {
	Text   string
	Origin Num
}

// lineObj is shared between every revision text that carries the line
// unchanged, so an origin assigned once is seen by all of them.
type lineObj struct {
	text   string
	origin Num
}

// Stats counts reconstruction work.
type Stats struct {
	// Computed is the number of revision texts built by applying a program.
	Computed int
	// Hits is the number of requests answered from the cache.
	Hits int
}

// Reconstructor rebuilds revision texts from a Tree. Trunk texts are built
// in one pass from head toward the root the first time any text is needed;
// branch texts are built on demand from their cached parent.
type Reconstructor struct {
	tree      *Tree
	texts     map[Num][]*lineObj
	trunkDone bool
	stats     Stats
}

// NewReconstructor returns a Reconstructor over t.
func NewReconstructor(t *Tree) *Reconstructor {
	return &Reconstructor{tree: t, texts: make(map[Num][]*lineObj)}
}

// Stats reports the work done so far.
func (r *Reconstructor) Stats() Stats { return r.stats }

// Text returns the full content of rev with per-line provenance.
func (r *Reconstructor) Text(rev Num) ([]Line, error) {
	objs, err := r.objects(rev)
	if err != nil {
		return nil, err
	}
	out := make([]Line, len(objs))
	for i, o := range objs {
		out[i] = Line{Text: o.text, Origin: o.origin}
	}
	return out, nil
}

func (r *Reconstructor) objects(rev Num) ([]*lineObj, error) {
	node, ok := r.tree.Rev(rev)
	if !ok {
		return nil, &UnresolvedTagError{Name: rev.String()}
	}
	if !r.trunkDone {
		if err := r.replayTrunk(); err != nil {
			return nil, err
		}
	}
	if objs, ok := r.texts[rev]; ok {
		r.stats.Hits++
		return objs, nil
	}

	// Collect the uncached ancestors, then build forward from the nearest
	// cached one.
	var chain []*Revision
	for n := node; ; {
		chain = append(chain, n)
		parent, ok := r.tree.Rev(n.Parent)
		if !ok {
			return nil, &DanglingReferenceError{From: n.Rev, To: n.Parent, Msg: "parent missing:"}
		}
		if _, cached := r.texts[parent.Rev]; cached {
			break
		}
		n = parent
	}
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		src := r.texts[c.Parent]
		objs, err := apply(c.Rev, src, c.Program)
		if err != nil {
			return nil, err
		}
		r.texts[c.Rev] = objs
		r.stats.Computed++
	}
	return r.texts[rev], nil
}

// replayTrunk builds every trunk text. After each older revision is built
// all of its lines are stamped with that revision, which leaves each line
// attributed to the oldest revision of its unbroken run.
func (r *Reconstructor) replayTrunk() error {
	trunk := r.tree.Trunk()
	var cur []*lineObj
	for i, n := range trunk {
		d, _ := r.tree.Rev(n)
		next, err := apply(n, cur, d.Program)
		if err != nil {
			return err
		}
		if i > 0 {
			for _, o := range next {
				o.origin = n
			}
		}
		r.texts[n] = next
		r.stats.Computed++
		cur = next
	}
	r.trunkDone = true
	return nil
}

// apply runs prog against src. Directive line numbers refer to src and must
// come in ascending order; an insert may also land at the start of the block
// the preceding delete removed.
func apply(rev Num, src []*lineObj, prog []Edit) ([]*lineObj, error) {
	out := make([]*lineObj, 0, len(src))
	pos := 0
	delFrom := -1

	fail := func(e Edit, format string, args ...any) error {
		return &ReconstructionError{Rev: rev, Directive: e.String(), Msg: fmt.Sprintf(format, args...)}
	}

	for _, e := range prog {
		switch e.Op {
		case OpDelete:
			start := e.Line - 1
			if start < pos {
				return nil, fail(e, "out of order, cursor at line %d", pos)
			}
			if e.Count > len(src)-start {
				return nil, fail(e, "deletes past end of %d lines", len(src))
			}
			out = append(out, src[pos:start]...)
			pos = start + e.Count
			delFrom = start
		case OpInsert:
			if e.Line > len(src) {
				return nil, fail(e, "inserts after line %d of %d", e.Line, len(src))
			}
			if e.Line < pos {
				if delFrom < 0 || e.Line < delFrom {
					return nil, fail(e, "out of order, cursor at line %d", pos)
				}
			} else {
				out = append(out, src[pos:e.Line]...)
				pos = e.Line
			}
			for _, text := range e.Lines {
				out = append(out, &lineObj{text: text, origin: rev})
			}
			delFrom = -1
		}
	}
	return append(out, src[pos:]...), nil
}
