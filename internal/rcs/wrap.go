package rcs

import "strings"

// LogicalLine is a line as searched: either one physical line or several
// joined by trailing backslashes.
type LogicalLine struct {
	Text string
	// LineNo is the 1-based number of the first physical line.
	LineNo int
	Origin Num
}

// Physical maps each line to a logical line of its own.
func Physical(lines []Line) []LogicalLine {
	out := make([]LogicalLine, len(lines))
	for i, l := range lines {
		out[i] = LogicalLine{Text: l.Text, LineNo: i + 1, Origin: l.Origin}
	}
	return out
}

// JoinWrapped joins every line ending in a backslash with the line after it,
// dropping the backslash. The joined line takes the origin of the fragment
// deepest in the tree according to depth, i.e. the most recent change. A
// backslash on the very last line is left in place.
func JoinWrapped(lines []Line, depth func(Num) int) []LogicalLine {
	out := make([]LogicalLine, 0, len(lines))
	for i := 0; i < len(lines); {
		start := i
		origin := lines[i].Origin
		var b strings.Builder
		for strings.HasSuffix(lines[i].Text, `\`) && i+1 < len(lines) {
			b.WriteString(strings.TrimSuffix(lines[i].Text, `\`))
			i++
			if depth(lines[i].Origin) > depth(origin) {
				origin = lines[i].Origin
			}
		}
		b.WriteString(lines[i].Text)
		out = append(out, LogicalLine{Text: b.String(), LineNo: start + 1, Origin: origin})
		i++
	}
	return out
}
