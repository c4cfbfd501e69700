package archive

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// DateSpec is a possibly partial calendar date. Zero Month or Day means the
// component is absent, so {2007, 0, 0} matches the whole year 2007.
type DateSpec struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

// YearOf returns a year-only spec.
func YearOf(year int) DateSpec { return DateSpec{Year: year} }

// MonthOf returns a year+month spec.
func MonthOf(year, month int) DateSpec { return DateSpec{Year: year, Month: month} }

// DayOf returns a full date spec.
func DayOf(year, month, day int) DateSpec { return DateSpec{Year: year, Month: month, Day: day} }

// SpecFromTime returns the full date of t in t's own location.
func SpecFromTime(t time.Time) DateSpec {
	return DateSpec{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// HasMonth reports whether the month component is present.
func (d DateSpec) HasMonth() bool { return d.Month != 0 }

// HasDay reports whether the day component is present.
func (d DateSpec) HasDay() bool { return d.Day != 0 }

// Validate checks that d can be translated into a filter.
func (d DateSpec) Validate() error {
	if d.Year == 0 {
		return invalidSpec(d, "year is required")
	}
	if d.Year < 1 || d.Year > 9999 {
		return invalidSpec(d, "year %d out of range", d.Year)
	}
	if d.HasMonth() && (d.Month < 1 || d.Month > 12) {
		return invalidSpec(d, "month %d out of range", d.Month)
	}
	switch {
	case d.HasDay() && !d.HasMonth():
		if d.Day < 1 || d.Day > 31 {
			return invalidSpec(d, "day %d out of range", d.Day)
		}
	case d.HasDay():
		last := daysIn(d.Year, time.Month(d.Month))
		if d.Day < 1 || d.Day > last {
			return invalidSpec(d, "day %d out of range for %04d-%02d", d.Day, d.Year, d.Month)
		}
	}
	return nil
}

// First returns midnight of the first day covered by d.
func (d DateSpec) First(loc *time.Location) time.Time {
	month, day := d.Month, d.Day
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(d.Year, time.Month(month), day, 0, 0, 0, 0, loc)
}

// Last returns midnight of the last day covered by d.
func (d DateSpec) Last(loc *time.Location) time.Time {
	first := now.With(d.First(loc))
	switch {
	case d.HasDay():
		return first.Time
	case d.HasMonth():
		return now.With(first.EndOfMonth()).BeginningOfDay()
	default:
		return now.With(first.EndOfYear()).BeginningOfDay()
	}
}

// String formats d as 2007, 2007-07 or 2007-07-04. A day without a month
// prints as 2007-*-04.
func (d DateSpec) String() string {
	switch {
	case d.HasDay() && !d.HasMonth():
		return fmt.Sprintf("%04d-*-%02d", d.Year, d.Day)
	case d.HasDay():
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case d.HasMonth():
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d", d.Year)
	}
}

// debugString shows every component, including absent ones, for error text.
func (d DateSpec) debugString() string {
	return fmt.Sprintf("{year:%d month:%d day:%d}", d.Year, d.Month, d.Day)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Normalize converts a date input into a validated DateSpec. Accepted inputs
// are DateSpec, *DateSpec, string, time.Time and *time.Time.
func Normalize(input any, p *Parser) (DateSpec, error) {
	var spec DateSpec
	switch v := input.(type) {
	case DateSpec:
		spec = v
	case *DateSpec:
		if v == nil {
			return DateSpec{}, invalidSpec(DateSpec{}, "nil date spec")
		}
		spec = *v
	case string:
		parsed, err := p.Parse(v)
		if err != nil {
			return DateSpec{}, err
		}
		spec = parsed
	case time.Time:
		spec = SpecFromTime(now.With(v).BeginningOfDay())
	case *time.Time:
		if v == nil {
			return DateSpec{}, invalidSpec(DateSpec{}, "nil time")
		}
		spec = SpecFromTime(now.With(*v).BeginningOfDay())
	default:
		return DateSpec{}, invalidSpec(DateSpec{}, "unsupported date input type %T", input)
	}
	if err := spec.Validate(); err != nil {
		return DateSpec{}, err
	}
	return spec, nil
}

// NormalizeRange converts two date inputs into an inclusive DateRange in the
// parser's location. A partial start expands to the first day of its span and
// a partial end to the last day of its span.
func NormalizeRange(start, end any, p *Parser) (DateRange, error) {
	from, err := Normalize(start, p)
	if err != nil {
		return DateRange{}, err
	}
	to, err := Normalize(end, p)
	if err != nil {
		return DateRange{}, err
	}
	for _, d := range []DateSpec{from, to} {
		if d.HasDay() && !d.HasMonth() {
			return DateRange{}, invalidSpec(d, "day given without month has no range")
		}
	}
	loc := p.location()
	r := DateRange{Start: from.First(loc), End: to.Last(loc)}
	if r.End.Before(r.Start) {
		return DateRange{}, invalidSpec(to, "range end %s before start %s", to, from)
	}
	return r, nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
