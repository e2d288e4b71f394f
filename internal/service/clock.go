package service

import "time"

// Clock supplies the current time and the business timezone used for calendar dates
type Clock struct {
	now func() time.Time
	loc *time.Location
}

// NewClock returns a clock on the system time in loc
func NewClock(loc *time.Location) Clock {
	return FixedClock(time.Time{}, loc)
}

// FixedClock returns a clock frozen at t. A zero t uses the system time.
func FixedClock(t time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if !t.IsZero() {
		now = func() time.Time { return t }
	}
	return Clock{now: now, loc: loc}
}

// Now returns the current instant in the business timezone
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now().In(c.Location())
	}
	return c.now().In(c.Location())
}

// Today returns the current business date as midnight UTC, the form date columns are stored in
func (c Clock) Today() time.Time {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Location returns the business timezone
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}
