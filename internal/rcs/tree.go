package rcs

import (
	"sort"
)

// Revision is a node of the revision tree. Relations are kept as revision
// numbers into the owning Tree rather than pointers.
type Revision struct {
	*Delta

	Parent   Num
	Children []Num
	Tags     []string
	OnTrunk  bool
	// Depth is the distance from the root revision.
	Depth int
}

// Tree is the revision graph of one file: the trunk from head down to the
// root plus every branch hanging off it.
type Tree struct {
	head    Num
	root    Num
	revs    map[Num]*Revision
	trunk   []Num // head first
	order   []Num
	symbols map[string]Num
}

// BuildTree links the deltas of f into a tree and binds symbolic tags.
func BuildTree(f *File) (*Tree, error) {
	t := &Tree{
		revs:    make(map[Num]*Revision, len(f.Deltas)),
		symbols: make(map[string]Num, len(f.Symbols)),
	}
	for _, d := range f.Deltas {
		t.revs[d.Rev] = &Revision{Delta: d}
	}
	for _, s := range f.Symbols {
		if _, dup := t.symbols[s.Name]; !dup {
			t.symbols[s.Name] = s.Rev
		}
	}

	t.head = f.HeadRev()
	if t.head == "" {
		if len(t.revs) > 0 {
			return nil, &DanglingReferenceError{Msg: "no head revision"}
		}
		return t, nil
	}
	if _, ok := t.revs[t.head]; !ok {
		return nil, &DanglingReferenceError{Msg: "head names missing revision", To: t.head}
	}

	seen := make(map[Num]bool, len(t.revs))

	// Trunk: head follows next toward older revisions.
	for n, prev := t.head, Num(""); n != ""; {
		r, ok := t.revs[n]
		if !ok {
			return nil, &DanglingReferenceError{From: prev, To: n, Msg: "next names missing revision"}
		}
		if seen[n] {
			return nil, &DanglingReferenceError{From: prev, To: n, Msg: "revision chain loops back to"}
		}
		seen[n] = true
		r.OnTrunk = true
		t.trunk = append(t.trunk, n)
		prev, n = n, r.Next
	}
	t.root = t.trunk[len(t.trunk)-1]
	for i := len(t.trunk) - 1; i >= 0; i-- {
		r := t.revs[t.trunk[i]]
		if i < len(t.trunk)-1 {
			older := t.revs[t.trunk[i+1]]
			r.Parent = older.Rev
			r.Depth = older.Depth + 1
			older.Children = append(older.Children, r.Rev)
		}
	}

	// Branches, oldest trunk revision first so depths are set top-down.
	for i := len(t.trunk) - 1; i >= 0; i-- {
		if err := t.linkBranches(t.revs[t.trunk[i]], seen); err != nil {
			return nil, err
		}
	}

	if len(seen) != len(t.revs) {
		var orphans []Num
		for n := range t.revs {
			if !seen[n] {
				orphans = append(orphans, n)
			}
		}
		sortNums(orphans)
		return nil, &DanglingReferenceError{To: orphans[0], Msg: "unreachable from head:"}
	}

	for _, s := range f.Symbols {
		if r, ok := t.revs[s.Rev]; ok && t.symbols[s.Name] == s.Rev {
			r.Tags = append(r.Tags, s.Name)
		}
	}
	for _, r := range t.revs {
		sort.Strings(r.Tags)
	}

	t.order = make([]Num, 0, len(t.revs))
	for i := len(t.trunk) - 1; i >= 0; i-- {
		t.visit(t.revs[t.trunk[i]])
	}
	return t, nil
}

// linkBranches attaches every branch sprouting from r, recursively.
func (t *Tree) linkBranches(r *Revision, seen map[Num]bool) error {
	for _, b := range r.Branches {
		prev := r
		for n := b; n != ""; {
			cur, ok := t.revs[n]
			if !ok {
				return &DanglingReferenceError{From: prev.Rev, To: n, Msg: "branch names missing revision"}
			}
			if seen[n] {
				return &DanglingReferenceError{From: prev.Rev, To: n, Msg: "revision chain loops back to"}
			}
			seen[n] = true
			cur.Parent = prev.Rev
			cur.Depth = prev.Depth + 1
			prev.Children = append(prev.Children, n)
			if err := t.linkBranches(cur, seen); err != nil {
				return err
			}
			prev, n = cur, cur.Next
		}
	}
	return nil
}

// visit appends r and then, depth-first, each of its branches.
func (t *Tree) visit(r *Revision) {
	t.order = append(t.order, r.Rev)
	for _, b := range r.Branches {
		for n := b; n != ""; n = t.revs[n].Next {
			t.visit(t.revs[n])
		}
	}
}

// Head returns the head revision number.
func (t *Tree) Head() Num { return t.head }

// Root returns the oldest trunk revision.
func (t *Tree) Root() Num { return t.root }

// Len returns the number of revisions.
func (t *Tree) Len() int { return len(t.revs) }

// Rev looks up a revision.
func (t *Tree) Rev(n Num) (*Revision, bool) {
	r, ok := t.revs[n]
	return r, ok
}

// Trunk returns trunk revisions from head down to the root.
func (t *Tree) Trunk() []Num {
	return append([]Num(nil), t.trunk...)
}

// Walk returns every revision in visitation order: trunk oldest first, each
// branch visited depth-first right after its branch point.
func (t *Tree) Walk() []Num {
	return append([]Num(nil), t.order...)
}

// Depth returns the distance of n from the root, or -1 if n is unknown.
func (t *Tree) Depth(n Num) int {
	if r, ok := t.revs[n]; ok {
		return r.Depth
	}
	return -1
}

// IsAncestor reports whether a is n or one of its ancestors.
func (t *Tree) IsAncestor(a, n Num) bool {
	for n != "" {
		if n == a {
			return true
		}
		r, ok := t.revs[n]
		if !ok {
			return false
		}
		n = r.Parent
	}
	return false
}

// Tags returns the symbolic names bound to n.
func (t *Tree) Tags(n Num) []string {
	if r, ok := t.revs[n]; ok {
		return r.Tags
	}
	return nil
}

// Resolve maps a revision number, symbolic tag, branch number or CVS magic
// branch number to a revision of the tree. Branches resolve to their tip.
func (t *Tree) Resolve(name string) (Num, error) {
	if n, ok := t.symbols[name]; ok {
		if rev, ok := t.resolveNum(n); ok {
			return rev, nil
		}
		return "", &UnresolvedTagError{Name: name}
	}
	if isNumToken(name) {
		if n, err := ParseNum(name); err == nil {
			if rev, ok := t.resolveNum(n); ok {
				return rev, nil
			}
		}
	}
	return "", &UnresolvedTagError{Name: name}
}

func (t *Tree) resolveNum(n Num) (Num, bool) {
	if _, ok := t.revs[n]; ok {
		return n, true
	}
	if b, ok := n.magicBranch(); ok {
		n = b
	}
	if !n.IsBranch() {
		return "", false
	}
	var tip Num
	for rev := range t.revs {
		if rev.Branch() == n && (tip == "" || rev.Compare(tip) > 0) {
			tip = rev
		}
	}
	if tip != "" {
		return tip, true
	}
	// A branch without revisions yet stands for its branch point.
	if bp := n.BranchPoint(); bp != "" {
		if _, ok := t.revs[bp]; ok {
			return bp, true
		}
	}
	return "", false
}

func sortNums(ns []Num) {
	sort.Slice(ns, func(i, j int) bool { return ns[i].Compare(ns[j]) < 0 })
}
