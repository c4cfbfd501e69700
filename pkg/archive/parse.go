package archive

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var (
	yearOnlyRe  = regexp.MustCompile(`^(\d{4})$`)
	yearMonthRe = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})$`)
)

// isoLayouts are unambiguous regardless of locale.
var isoLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"20060102",
	"2006-1-2 15:4",
	"2006-1-2 15:4:5",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon, 2 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.ANSIC,
}

// Month-first and day-first layouts for numeric dates with slashes, dots and
// dashes in front of the year.
var (
	monthFirstLayouts = []string{"1/2/2006", "1-2-2006", "1/2/2006 15:4", "1/2/2006 15:4:5"}
	dayFirstLayouts   = []string{"2/1/2006", "2-1-2006", "2.1.2006", "2/1/2006 15:4", "2/1/2006 15:4:5"}
)

// Parser turns date strings into DateSpecs. The zero value parses in UTC with
// month-first numeric dates (7/4/2007 is July 4th).
type Parser struct {
	// Location is used for strings without a zone. Nil means UTC.
	Location *time.Location
	// DayFirst reads numeric dates as d/m/yyyy instead of m/d/yyyy.
	DayFirst bool
}

// Parse accepts year-only (2007) and year-month (2007-07) partials, plus any
// full date in the supported layouts. Time of day is discarded.
func (p *Parser) Parse(s string) (DateSpec, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return DateSpec{}, &DateParseError{Input: s}
	}

	if m := yearOnlyRe.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		return DateSpec{Year: year}, nil
	}
	if m := yearMonthRe.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		spec := DateSpec{Year: year, Month: month}
		if err := spec.Validate(); err != nil {
			return DateSpec{}, &DateParseError{Input: s, Err: err}
		}
		return spec, nil
	}

	cfg := &now.Config{
		TimeLocation: p.location(),
		TimeFormats:  p.layouts(),
	}
	t, err := cfg.Parse(input)
	if err != nil {
		return DateSpec{}, &DateParseError{Input: s, Err: err}
	}
	return SpecFromTime(t), nil
}

func (p *Parser) location() *time.Location {
	if p == nil || p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func (p *Parser) layouts() []string {
	local := monthFirstLayouts
	if p != nil && p.DayFirst {
		local = dayFirstLayouts
	}
	layouts := make([]string, 0, len(isoLayouts)+len(local))
	layouts = append(layouts, isoLayouts...)
	return append(layouts, local...)
}
