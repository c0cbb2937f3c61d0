// Package clock abstracts time.Now so queue timestamps and token expiry checks
// can be pinned in tests.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Real wraps time.Now.
type Real struct{}

// Now returns the wall-clock time.
func (Real) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant.
type Fixed time.Time

// Now returns the pinned instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
