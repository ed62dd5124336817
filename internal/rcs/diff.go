package rcs

import (
	"fmt"
	"strconv"
	"strings"
)

// EditOp distinguishes the two RCS edit directives.
type EditOp int

const (
	// OpInsert adds Lines after source line Line ("aL N").
	OpInsert EditOp = iota
	// OpDelete removes Count source lines starting at Line ("dL N").
	OpDelete
)

func (op EditOp) String() string {
	if op == OpInsert {
		return "a"
	}
	return "d"
}

// Edit is one directive of a delta program. Line numbers refer to the text
// the program is applied to.
type Edit struct {
	Op    EditOp
	Line  int
	Count int
	Lines []string
}

func (e Edit) String() string {
	return fmt.Sprintf("%s%d %d", e.Op, e.Line, e.Count)
}

// splitLines breaks stored text into lines. A final newline does not start
// an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// maxDiffLine bounds directive arguments so line arithmetic cannot overflow.
const maxDiffLine = 1 << 30

// DiffError reports a malformed directive by its 1-based line in the delta text.
type DiffError struct {
	Line int
	Msg  string
}

func (e *DiffError) Error() string {
	return fmt.Sprintf("diff line %d: %s", e.Line, e.Msg)
}

// ParseDiff parses a delta program made of "aL N" and "dL N" directives,
// each insert followed by its N text lines.
func ParseDiff(text string) ([]Edit, error) {
	lines := splitLines(text)
	var prog []Edit
	for i := 0; i < len(lines); {
		cmd := lines[i]
		lineNo := i + 1
		i++

		if len(cmd) < 2 || (cmd[0] != 'a' && cmd[0] != 'd') {
			return nil, &DiffError{Line: lineNo, Msg: fmt.Sprintf("bad directive %q", cmd)}
		}
		args := strings.Fields(cmd[1:])
		if len(args) != 2 {
			return nil, &DiffError{Line: lineNo, Msg: fmt.Sprintf("bad directive %q", cmd)}
		}
		at, err1 := strconv.Atoi(args[0])
		count, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil || at < 0 || count < 1 || at > maxDiffLine || count > maxDiffLine {
			return nil, &DiffError{Line: lineNo, Msg: fmt.Sprintf("bad directive arguments %q", cmd)}
		}

		switch cmd[0] {
		case 'd':
			if at < 1 {
				return nil, &DiffError{Line: lineNo, Msg: "delete starts at line 0"}
			}
			prog = append(prog, Edit{Op: OpDelete, Line: at, Count: count})
		case 'a':
			if count > len(lines)-i {
				return nil, &DiffError{Line: lineNo, Msg: fmt.Sprintf("%q wants %d lines, %d follow", cmd, count, len(lines)-i)}
			}
			added := make([]string, count)
			copy(added, lines[i:i+count])
			i += count
			prog = append(prog, Edit{Op: OpInsert, Line: at, Count: count, Lines: added})
		}
	}
	return prog, nil
}
