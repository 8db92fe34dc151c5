package timeseries

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period identifies a calendar month as an integer YYYYMM (e.g. 202301).
type Period int

// NewPeriod builds a Period from a year and a month (1-12).
func NewPeriod(year, month int) Period {
	return Period(year*100 + month)
}

// ParsePeriod parses a YYYYMM string such as "202301".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse period %q: %w", s, err)
	}
	p := Period(v)
	if !p.Valid() {
		return 0, fmt.Errorf("parse period %q: not a YYYYMM month", s)
	}
	return p, nil
}

// Year returns the calendar year.
func (p Period) Year() int { return int(p) / 100 }

// Month returns the calendar month, 1-12.
func (p Period) Month() int { return int(p) % 100 }

// Valid reports whether p is a plausible YYYYMM value.
func (p Period) Valid() bool {
	m := p.Month()
	return p.Year() > 0 && m >= 1 && m <= 12
}

// Add returns the period n months after p (n may be negative).
func (p Period) Add(n int) Period {
	idx := p.Year()*12 + p.Month() - 1 + n
	return NewPeriod(idx/12, idx%12+1)
}

// Next returns the following month.
func (p Period) Next() Period { return p.Add(1) }

// MonthsUntil returns the number of months from p to q.
func (p Period) MonthsUntil(q Period) int {
	return (q.Year()*12 + q.Month()) - (p.Year()*12 + p.Month())
}

// Time returns the first instant of the month in UTC.
func (p Period) Time() time.Time {
	return time.Date(p.Year(), time.Month(p.Month()), 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d%02d", p.Year(), p.Month())
}
