package rcs

import (
	"fmt"
	"strconv"
	"strings"
)

// Num is a dotted revision or branch number such as 1.3 or 1.3.2.1.
// The zero value means "no revision".
type Num string

// ParseNum validates s and returns it in canonical form (no leading zeros).
func ParseNum(s string) (Num, error) {
	if s == "" {
		return "", fmt.Errorf("empty revision number")
	}
	parts := strings.Split(s, ".")
	canon := make([]string, len(parts))
	for i, p := range parts {
		if p == "" {
			return "", fmt.Errorf("malformed revision number %q", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return "", fmt.Errorf("malformed revision number %q", s)
		}
		canon[i] = strconv.Itoa(n)
	}
	return Num(strings.Join(canon, ".")), nil
}

// isNumToken reports whether a lexer word has the shape of a revision number.
func isNumToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '.' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func (n Num) String() string { return string(n) }

// Parts returns the numeric components of n.
func (n Num) Parts() []int {
	if n == "" {
		return nil
	}
	fields := strings.Split(string(n), ".")
	out := make([]int, len(fields))
	for i, f := range fields {
		out[i], _ = strconv.Atoi(f)
	}
	return out
}

// Len is the number of components.
func (n Num) Len() int {
	if n == "" {
		return 0
	}
	return strings.Count(string(n), ".") + 1
}

// IsTrunk reports whether n is a trunk revision (two components).
func (n Num) IsTrunk() bool { return n.Len() == 2 }

// IsBranch reports whether n is a branch number (odd component count).
func (n Num) IsBranch() bool { return n.Len()%2 == 1 }

// Branch returns the branch a revision lives on: 1.2.4.3 -> 1.2.4, 1.5 -> 1.
func (n Num) Branch() Num {
	i := strings.LastIndexByte(string(n), '.')
	if i < 0 {
		return ""
	}
	return n[:i]
}

// BranchPoint returns the revision a branch number sprouts from: 1.2.4 -> 1.2.
// Trunk branch numbers have no branch point.
func (n Num) BranchPoint() Num {
	if !n.IsBranch() || n.Len() < 3 {
		return ""
	}
	return n.Branch()
}

// Compare orders numbers component-wise; a proper prefix sorts first.
func (n Num) Compare(o Num) int {
	a, b := n.Parts(), o.Parts()
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// magicBranch converts a CVS magic branch number (1.2.0.4) into the real
// branch number (1.2.4). ok is false for anything else.
func (n Num) magicBranch() (Num, bool) {
	p := n.Parts()
	if len(p) < 4 || len(p)%2 != 0 || p[len(p)-2] != 0 {
		return "", false
	}
	fields := make([]string, 0, len(p)-1)
	for i, v := range p {
		if i == len(p)-2 {
			continue
		}
		fields = append(fields, strconv.Itoa(v))
	}
	return Num(strings.Join(fields, ".")), true
}
