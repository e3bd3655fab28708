package clock

import "time"

// Clock supplies the current time in the reference timezone.
// Anything that depends on "today" takes a Clock so tests can pin it.
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

// Real returns a Clock backed by time.Now, reporting times in loc.
func Real(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return realClock{loc: loc}
}

func (c realClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// FixedClock always reports the same instant.
type FixedClock struct {
	t time.Time
}

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	return c.t
}

// Set moves the fixed clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.t = t
}

// Today returns midnight of the current civil date in the clock's timezone,
// expressed in UTC so it compares cleanly with parsed ISO dates.
func Today(c Clock) time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
