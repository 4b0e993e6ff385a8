package scheduler

import "time"

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System is the default wall clock.
var System Clock = systemClock{}
