package session

import "time"

// Timer is the part of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

// Clock abstracts time.AfterFunc to allow deterministic debounce tests.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// AfterFunc calls f on its own goroutine once d has elapsed.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
