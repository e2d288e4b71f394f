package report

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Accepted year range for explicit periods
const (
	MinYear = 2000
	MaxYear = 2100
)

// Period is a calendar month
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// ValidPeriod reports whether year and month are inside the accepted ranges
func ValidPeriod(year, month int) bool {
	return year >= MinYear && year <= MaxYear && month >= 1 && month <= 12
}

// ResolvePeriod returns the requested month when both parts are present and valid.
// Otherwise it falls back to the month before now, rolling January back to the previous December.
func ResolvePeriod(year, month *int, now time.Time) Period {
	if year != nil && month != nil && ValidPeriod(*year, *month) {
		return Period{Year: *year, Month: time.Month(*month)}
	}
	return PreviousMonth(now)
}

// PreviousMonth returns the calendar month before the one containing now
func PreviousMonth(now time.Time) Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prev := first.AddDate(0, -1, 0)
	return Period{Year: prev.Year(), Month: prev.Month()}
}

// Window returns the half-open interval [first day 00:00, first day of next month 00:00) in loc
func (p Period) Window(loc *time.Location) (from, to time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	from = time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
	to = from.AddDate(0, 1, 0)
	return from, to
}

// LastDay returns the final day of the month, honouring leap years
func (p Period) LastDay() int {
	_, to := p.Window(time.UTC)
	return to.AddDate(0, 0, -1).Day()
}

// String formats the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

var integerPattern = regexp.MustCompile(`\d+`)

// ParseYearMonth takes the first two integers in text as year and month.
// It returns nils when fewer than two integers are present or they are out of range.
func ParseYearMonth(text string) (year, month *int) {
	matches := integerPattern.FindAllString(text, 2)
	if len(matches) < 2 {
		return nil, nil
	}
	y, err := strconv.Atoi(matches[0])
	if err != nil {
		return nil, nil
	}
	m, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, nil
	}
	if !ValidPeriod(y, m) {
		return nil, nil
	}
	return &y, &m
}
