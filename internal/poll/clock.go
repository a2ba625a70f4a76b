package poll

import "time"

// Clock abstracts wall-clock time and sleeping so the bounded polling loop is
// testable without real delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the real-time Clock.
func SystemClock() Clock {
	return systemClock{}
}
