package engine

import "time"

// Clock supplies "today" for date-range clamping. Injected so tests pin the
// calendar instead of racing midnight.
type Clock interface {
	Today() string
}

// SystemClock reads the wall clock in a fixed location. The zero value uses
// the local time zone.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Today() string {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format("2006-01-02")
}

// FixedClock always reports the same date.
type FixedClock string

func (c FixedClock) Today() string { return string(c) }
