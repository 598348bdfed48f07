package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant. Useful in tests.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
