package grep

import (
	"fmt"
	"strings"

	"github.com/starford/rcsgrep/internal/apperr"
)

// DefaultFormat prints revision, line number and line.
const DefaultFormat = "rlL"

// Field is one letter of a format spec.
type Field byte

// Field codes.
const (
	FieldRevision Field = 'r'
	FieldLine     Field = 'l'
	FieldText     Field = 'L'
	FieldAuthor   Field = 'a'
	FieldDate     Field = 'd'
	FieldDateISO  Field = 'D'
	FieldTags     Field = 't'
	FieldFilename Field = 'f'
	FieldLog      Field = 'm'
	FieldOrigin   Field = 'o'
)

var fieldNames = []struct {
	f    Field
	desc string
}{
	{FieldRevision, "revision"},
	{FieldLine, "line number"},
	{FieldText, "line"},
	{FieldAuthor, "author"},
	{FieldDate, "date"},
	{FieldDateISO, "date (ISO-8601)"},
	{FieldTags, "tags"},
	{FieldFilename, "filename"},
	{FieldLog, "log message"},
	{FieldOrigin, "revision that introduced the line"},
}

func (f Field) known() bool {
	for _, n := range fieldNames {
		if n.f == f {
			return true
		}
	}
	return false
}

// Legend documents the field codes, one per line.
func Legend() string {
	var b strings.Builder
	for _, n := range fieldNames {
		fmt.Fprintf(&b, "  %c  %s\n", n.f, n.desc)
	}
	return b.String()
}

// Format is a validated sequence of field codes.
type Format []Field

// ParseFormat validates spec. Letters may repeat; an empty spec is invalid.
func ParseFormat(spec string) (Format, error) {
	if spec == "" {
		return nil, &apperr.ConfigError{Field: "format", Msg: "empty format"}
	}
	out := make(Format, 0, len(spec))
	for i := 0; i < len(spec); i++ {
		f := Field(spec[i])
		if !f.known() {
			return nil, &apperr.ConfigError{Field: "format", Msg: fmt.Sprintf("unknown field code %q", spec[i])}
		}
		out = append(out, f)
	}
	return out, nil
}

// String returns the spec the format was parsed from.
func (f Format) String() string {
	b := make([]byte, len(f))
	for i, c := range f {
		b[i] = byte(c)
	}
	return string(b)
}

// Apply returns the requested fields of m in spec order. Line numbers are
// ints, tags a []string and everything else a string.
func (f Format) Apply(m Match) []any {
	out := make([]any, len(f))
	for i, c := range f {
		out[i] = m.field(c)
	}
	return out
}

func (m Match) field(f Field) any {
	switch f {
	case FieldRevision:
		return m.Revision.String()
	case FieldLine:
		return m.Line
	case FieldText:
		return m.Text
	case FieldAuthor:
		return m.Author
	case FieldDate:
		return m.Date.String()
	case FieldDateISO:
		return m.Date.ISO()
	case FieldTags:
		tags := m.Tags
		if tags == nil {
			tags = []string{}
		}
		return tags
	case FieldFilename:
		return m.Filename
	case FieldLog:
		return m.Log
	case FieldOrigin:
		return m.Origin.String()
	}
	return nil
}
