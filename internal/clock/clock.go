// Package clock lets services take the current time as a dependency.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fixed always returns T.
type Fixed struct {
	T time.Time
}

func (c Fixed) Now() time.Time { return c.T }

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }
