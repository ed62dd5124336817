package grep

import (
	"regexp"
	"strings"

	"github.com/starford/rcsgrep/internal/apperr"
)

// Matcher decides whether a line matches and where.
type Matcher interface {
	Match(line string) bool
	// Spans returns the [start, end) byte offsets of every match in line.
	Spans(line string) [][]int
}

// MatcherOptions selects the matching primitive.
type MatcherOptions struct {
	// Fixed treats the pattern as a literal substring.
	Fixed      bool
	IgnoreCase bool
}

// NewMatcher compiles pattern. Regular expressions use RE2 syntax and match
// anywhere in the line.
func NewMatcher(pattern string, opts MatcherOptions) (Matcher, error) {
	if opts.Fixed && !opts.IgnoreCase {
		return substring(pattern), nil
	}
	expr := pattern
	if opts.Fixed {
		expr = regexp.QuoteMeta(pattern)
	}
	if opts.IgnoreCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &apperr.ConfigError{Field: "pattern", Msg: err.Error()}
	}
	return regexpMatcher{re}, nil
}

type regexpMatcher struct {
	re *regexp.Regexp
}

func (m regexpMatcher) Match(line string) bool { return m.re.MatchString(line) }

func (m regexpMatcher) Spans(line string) [][]int { return m.re.FindAllStringIndex(line, -1) }

type substring string

func (s substring) Match(line string) bool { return strings.Contains(line, string(s)) }

func (s substring) Spans(line string) [][]int {
	if s == "" {
		return nil
	}
	var spans [][]int
	for off := 0; off < len(line); {
		i := strings.Index(line[off:], string(s))
		if i < 0 {
			break
		}
		start := off + i
		spans = append(spans, []int{start, start + len(s)})
		off = start + len(s)
	}
	return spans
}
