package rcs

import (
	"bytes"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokColon
	tokSemi
)

var tokenNames = map[tokenKind]string{
	tokEOF:    "end of file",
	tokWord:   "word",
	tokString: "string",
	tokColon:  "':'",
	tokSemi:   "';'",
}

func (k tokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "unknown"
}

type token struct {
	kind tokenKind
	text string
	off  int
}

// lexer splits an RCS file into words (ids, nums, syms), @-strings, colons
// and semicolons. Whitespace is the rcsfile(5) set: SP BS HT LF VT FF CR.
type lexer struct {
	data   []byte
	pos    int
	peeked *token
}

func newLexer(data []byte) *lexer {
	return &lexer{data: data}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\b', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func (l *lexer) peek() (token, error) {
	if l.peeked == nil {
		t, err := l.scan()
		if err != nil {
			return token{}, err
		}
		l.peeked = &t
	}
	return *l.peeked, nil
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t, nil
	}
	return l.scan()
}

func (l *lexer) scan() (token, error) {
	for l.pos < len(l.data) && isSpace(l.data[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.data) {
		return token{kind: tokEOF, off: start}, nil
	}

	switch l.data[l.pos] {
	case ';':
		l.pos++
		return token{kind: tokSemi, text: ";", off: start}, nil
	case ':':
		l.pos++
		return token{kind: tokColon, text: ":", off: start}, nil
	case '@':
		return l.scanString()
	}

	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isSpace(c) || c == ';' || c == ':' || c == '@' {
			break
		}
		l.pos++
	}
	return token{kind: tokWord, text: string(l.data[start:l.pos]), off: start}, nil
}

// scanString reads an @-delimited string; @@ inside stands for a single @.
func (l *lexer) scanString() (token, error) {
	start := l.pos
	l.pos++ // opening @

	var b strings.Builder
	escaped := false
	from := l.pos
	for {
		i := bytes.IndexByte(l.data[l.pos:], '@')
		if i < 0 {
			return token{}, &FormatError{Offset: start, Msg: "unterminated string"}
		}
		at := l.pos + i
		if at+1 < len(l.data) && l.data[at+1] == '@' {
			escaped = true
			b.Write(l.data[from : at+1])
			l.pos = at + 2
			from = l.pos
			continue
		}
		l.pos = at + 1
		if !escaped {
			return token{kind: tokString, text: string(l.data[from:at]), off: start}, nil
		}
		b.Write(l.data[from:at])
		return token{kind: tokString, text: b.String(), off: start}, nil
	}
}
