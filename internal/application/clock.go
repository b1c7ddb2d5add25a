package application

import "time"

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a plain function, e.g. a stepping fake in tests.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
