// Package rcs parses RCS ",v" files and replays their delta chains.
package rcs

/*
rcstext   -> admin {delta}* desc {deltatext}*

admin     -> head {num}; { branch {num}; } access {id}*; symbols {sym : num}*;
             locks {id : num}*; { strict ; } { integrity {intstring}; }
             { comment {string}; } { expand {string}; } { newphrase }*

delta     -> num date num; author id; state {id}; branches {num}*; next {num};
             { commitid sym; } { newphrase }*

desc      -> desc string

deltatext -> num log string { newphrase }* text string

newphrase -> id word* ;
string    -> @ ... @   (@@ stands for a literal @)
*/

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// File is the parsed content of one RCS file.
type File struct {
	Head    Num
	Branch  Num
	Access  []string
	Symbols []Symbol
	Locks   []Lock
	Strict  bool
	Comment string
	Expand  string
	Desc    string
	// Deltas in declaration order.
	Deltas []*Delta
}

// Symbol binds a symbolic name to a revision or (magic) branch number.
type Symbol struct {
	Name string
	Rev  Num
}

// Lock records a user holding a revision lock.
type Lock struct {
	User string
	Rev  Num
}

// Delta is one revision's metadata together with its parsed edit program.
type Delta struct {
	Rev      Num
	Date     Date
	Author   string
	State    string
	Branches []Num
	Next     Num
	CommitID string
	Log      string
	Program  []Edit

	offset     int
	textOffset int
	hasText    bool
	text       string
}

// HeadRev returns the head revision, falling back to the highest trunk
// revision when the head phrase is empty.
func (f *File) HeadRev() Num {
	if f.Head != "" {
		return f.Head
	}
	var best Num
	for _, d := range f.Deltas {
		if d.Rev.IsTrunk() && (best == "" || d.Rev.Compare(best) > 0) {
			best = d.Rev
		}
	}
	return best
}

// Delta looks up a delta by revision number.
func (f *File) Delta(rev Num) (*Delta, bool) {
	for _, d := range f.Deltas {
		if d.Rev == rev {
			return d, true
		}
	}
	return nil, false
}

type parser struct {
	lex *lexer
}

// Parse parses raw RCS file bytes. The head revision's text becomes a
// single insert program; every other revision's text is parsed as a diff.
func Parse(data []byte) (*File, error) {
	p := &parser{lex: newLexer(data)}
	f := &File{}

	if err := p.admin(f); err != nil {
		return nil, err
	}
	byRev := make(map[Num]*Delta)
	if err := p.deltas(f, byRev); err != nil {
		return nil, err
	}
	if err := p.desc(f); err != nil {
		return nil, err
	}
	if err := p.deltatexts(byRev); err != nil {
		return nil, err
	}

	head := f.HeadRev()
	for _, d := range f.Deltas {
		if !d.hasText {
			return nil, &FormatError{Offset: d.offset, Rev: d.Rev, Msg: "no deltatext"}
		}
		if d.Rev == head {
			lines := splitLines(d.text)
			d.Program = []Edit{{Op: OpInsert, Line: 0, Count: len(lines), Lines: lines}}
		} else {
			prog, err := ParseDiff(d.text)
			if err != nil {
				off := d.textOffset
				var de *DiffError
				if errors.As(err, &de) {
					off = lineOffset(data, d.textOffset+1, de.Line)
				}
				return nil, &FormatError{Offset: off, Rev: d.Rev, Msg: err.Error()}
			}
			d.Program = prog
		}
		d.text = ""
	}
	return f, nil
}

// lineOffset returns the byte offset of the given 1-based line of the string
// body starting at from. Newlines are never escaped, so counting them in the
// raw bytes is exact.
func lineOffset(data []byte, from, line int) int {
	off := from
	for ; line > 1; line-- {
		i := bytes.IndexByte(data[off:], '\n')
		if i < 0 {
			break
		}
		off += i + 1
	}
	return off
}

func (p *parser) fail(t token, format string, args ...any) error {
	return &FormatError{Offset: t.off, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) word() (token, error) {
	t, err := p.lex.next()
	if err != nil {
		return t, err
	}
	if t.kind != tokWord {
		return t, p.fail(t, "expected word, found %s", t.kind)
	}
	return t, nil
}

func (p *parser) keyword(kw string) (token, error) {
	t, err := p.lex.next()
	if err != nil {
		return t, err
	}
	if t.kind != tokWord || t.text != kw {
		return t, p.fail(t, "expected %q, found %s %q", kw, t.kind, t.text)
	}
	return t, nil
}

func (p *parser) str() (token, error) {
	t, err := p.lex.next()
	if err != nil {
		return t, err
	}
	if t.kind != tokString {
		return t, p.fail(t, "expected string, found %s", t.kind)
	}
	return t, nil
}

func (p *parser) num(t token) (Num, error) {
	n, err := ParseNum(t.text)
	if err != nil {
		return "", p.fail(t, "%v", err)
	}
	return n, nil
}

// phrase collects the values of a phrase up to its terminating semicolon.
func (p *parser) phrase(kw token) ([]token, error) {
	var vals []token
	for {
		t, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch t.kind {
		case tokSemi:
			return vals, nil
		case tokEOF:
			return nil, p.fail(kw, "unterminated %q phrase", kw.text)
		}
		vals = append(vals, t)
	}
}

// optionalNum accepts zero or one revision number.
func (p *parser) optionalNum(kw token, vals []token) (Num, error) {
	switch len(vals) {
	case 0:
		return "", nil
	case 1:
		if vals[0].kind != tokWord {
			return "", p.fail(vals[0], "%s: expected revision number", kw.text)
		}
		return p.num(vals[0])
	}
	return "", p.fail(vals[1], "%s: too many values", kw.text)
}

func (p *parser) optionalString(kw token, vals []token) (string, error) {
	switch {
	case len(vals) == 0:
		return "", nil
	case len(vals) == 1 && vals[0].kind == tokString:
		return vals[0].text, nil
	}
	return "", p.fail(vals[0], "%s: expected string", kw.text)
}

// pairs parses "a : b" sequences as used by symbols and locks.
func (p *parser) pairs(kw token, vals []token) ([][2]token, error) {
	if len(vals)%3 != 0 {
		return nil, p.fail(kw, "%s: malformed list", kw.text)
	}
	out := make([][2]token, 0, len(vals)/3)
	for i := 0; i < len(vals); i += 3 {
		a, colon, b := vals[i], vals[i+1], vals[i+2]
		if a.kind != tokWord || colon.kind != tokColon || b.kind != tokWord {
			return nil, p.fail(a, "%s: expected name:number", kw.text)
		}
		out = append(out, [2]token{a, b})
	}
	return out, nil
}

// endOfSection reports whether t starts a delta (a number) or the desc keyword.
func endOfSection(t token) bool {
	return t.kind == tokWord && (isNumToken(t.text) || t.text == "desc")
}

func (p *parser) admin(f *File) error {
	first := true
	for {
		t, err := p.lex.peek()
		if err != nil {
			return err
		}
		if !first && endOfSection(t) {
			return nil
		}
		if t.kind == tokEOF {
			return p.fail(t, "unexpected end of file in admin section")
		}

		var kw token
		if first {
			if kw, err = p.keyword("head"); err != nil {
				return err
			}
			first = false
		} else if kw, err = p.word(); err != nil {
			return err
		}
		vals, err := p.phrase(kw)
		if err != nil {
			return err
		}

		switch kw.text {
		case "head":
			if f.Head, err = p.optionalNum(kw, vals); err != nil {
				return err
			}
		case "branch":
			if f.Branch, err = p.optionalNum(kw, vals); err != nil {
				return err
			}
		case "access":
			for _, v := range vals {
				if v.kind != tokWord {
					return p.fail(v, "access: expected login name")
				}
				f.Access = append(f.Access, v.text)
			}
		case "symbols":
			pairs, err := p.pairs(kw, vals)
			if err != nil {
				return err
			}
			for _, pr := range pairs {
				rev, err := p.num(pr[1])
				if err != nil {
					return err
				}
				f.Symbols = append(f.Symbols, Symbol{Name: pr[0].text, Rev: rev})
			}
		case "locks":
			pairs, err := p.pairs(kw, vals)
			if err != nil {
				return err
			}
			for _, pr := range pairs {
				rev, err := p.num(pr[1])
				if err != nil {
					return err
				}
				f.Locks = append(f.Locks, Lock{User: pr[0].text, Rev: rev})
			}
		case "strict":
			f.Strict = true
		case "comment":
			if f.Comment, err = p.optionalString(kw, vals); err != nil {
				return err
			}
		case "expand":
			if f.Expand, err = p.optionalString(kw, vals); err != nil {
				return err
			}
		}
	}
}

func (p *parser) deltas(f *File, byRev map[Num]*Delta) error {
	for {
		t, err := p.lex.peek()
		if err != nil {
			return err
		}
		if t.kind != tokWord || !isNumToken(t.text) {
			return nil
		}
		p.lex.next() //nolint:errcheck // already peeked
		rev, err := p.num(t)
		if err != nil {
			return err
		}
		if _, dup := byRev[rev]; dup {
			return p.fail(t, "duplicate delta %s", rev)
		}
		d := &Delta{Rev: rev, offset: t.off}
		if err := p.deltaPhrases(d); err != nil {
			return err
		}
		byRev[rev] = d
		f.Deltas = append(f.Deltas, d)
	}
}

func (p *parser) deltaPhrases(d *Delta) error {
	var sawDate, sawAuthor bool
	for {
		t, err := p.lex.peek()
		if err != nil {
			return err
		}
		if endOfSection(t) {
			break
		}
		if t.kind == tokEOF {
			return p.fail(t, "unexpected end of file in delta %s", d.Rev)
		}
		kw, err := p.word()
		if err != nil {
			return err
		}
		vals, err := p.phrase(kw)
		if err != nil {
			return err
		}

		switch kw.text {
		case "date":
			if len(vals) != 1 || vals[0].kind != tokWord {
				return p.fail(kw, "delta %s: malformed date", d.Rev)
			}
			if d.Date, err = ParseDate(vals[0].text); err != nil {
				return p.fail(vals[0], "delta %s: %v", d.Rev, err)
			}
			sawDate = true
		case "author":
			if len(vals) != 1 || vals[0].kind != tokWord {
				return p.fail(kw, "delta %s: malformed author", d.Rev)
			}
			d.Author = vals[0].text
			sawAuthor = true
		case "state":
			if len(vals) > 1 || (len(vals) == 1 && vals[0].kind != tokWord) {
				return p.fail(kw, "delta %s: malformed state", d.Rev)
			}
			if len(vals) == 1 {
				d.State = vals[0].text
			}
		case "branches":
			for _, v := range vals {
				if v.kind != tokWord {
					return p.fail(v, "delta %s: malformed branches", d.Rev)
				}
				b, err := p.num(v)
				if err != nil {
					return err
				}
				d.Branches = append(d.Branches, b)
			}
			sort.Slice(d.Branches, func(i, j int) bool { return d.Branches[i].Compare(d.Branches[j]) < 0 })
		case "next":
			if d.Next, err = p.optionalNum(kw, vals); err != nil {
				return err
			}
		case "commitid":
			if len(vals) == 1 && vals[0].kind == tokWord {
				d.CommitID = vals[0].text
			}
		}
	}
	if !sawDate {
		return &FormatError{Offset: d.offset, Rev: d.Rev, Msg: "missing date"}
	}
	if !sawAuthor {
		return &FormatError{Offset: d.offset, Rev: d.Rev, Msg: "missing author"}
	}
	return nil
}

func (p *parser) desc(f *File) error {
	if _, err := p.keyword("desc"); err != nil {
		return err
	}
	t, err := p.str()
	if err != nil {
		return err
	}
	f.Desc = t.text
	return nil
}

func (p *parser) deltatexts(byRev map[Num]*Delta) error {
	for {
		t, err := p.lex.next()
		if err != nil {
			return err
		}
		if t.kind == tokEOF {
			return nil
		}
		if t.kind != tokWord || !isNumToken(t.text) {
			return p.fail(t, "expected deltatext revision, found %s %q", t.kind, t.text)
		}
		rev, err := p.num(t)
		if err != nil {
			return err
		}
		d, ok := byRev[rev]
		if !ok {
			return p.fail(t, "deltatext for undeclared revision %s", rev)
		}
		if d.hasText {
			return p.fail(t, "duplicate deltatext for revision %s", rev)
		}
		if err := p.deltatextPhrases(d); err != nil {
			return err
		}
	}
}

func (p *parser) deltatextPhrases(d *Delta) error {
	for {
		kw, err := p.lex.next()
		if err != nil {
			return err
		}
		if kw.kind != tokWord {
			return p.fail(kw, "deltatext %s: expected keyword, found %s", d.Rev, kw.kind)
		}
		switch kw.text {
		case "log":
			s, err := p.str()
			if err != nil {
				return err
			}
			d.Log = s.text
		case "text":
			s, err := p.str()
			if err != nil {
				return err
			}
			d.text = s.text
			d.textOffset = s.off
			d.hasText = true
			return nil
		default:
			if _, err := p.phrase(kw); err != nil {
				return err
			}
		}
	}
}
