package rcs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a delta timestamp. Raw keeps the text as stored in the file.
type Date struct {
	Raw  string
	Time time.Time
}

// ParseDate accepts Y.mm.dd.hh.mm.ss with a two-digit (19YY) or four-digit year.
func ParseDate(raw string) (Date, error) {
	fields := strings.Split(raw, ".")
	if len(fields) != 6 {
		return Date{}, fmt.Errorf("malformed date %q", raw)
	}
	var v [6]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return Date{}, fmt.Errorf("malformed date %q", raw)
		}
		v[i] = n
	}
	if len(fields[0]) == 2 {
		v[0] += 1900
	}
	if v[1] < 1 || v[1] > 12 || v[2] < 1 || v[2] > 31 || v[3] > 23 || v[4] > 59 || v[5] > 60 {
		return Date{}, fmt.Errorf("date out of range %q", raw)
	}
	t := time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], 0, time.UTC)
	return Date{Raw: raw, Time: t}, nil
}

// String is the native RCS rendering.
func (d Date) String() string { return d.Raw }

// ISO renders the date as YYYY-MM-DDThh:mm:ssZ.
func (d Date) ISO() string { return d.Time.UTC().Format("2006-01-02T15:04:05Z") }
