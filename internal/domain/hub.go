package domain

import (
	"time"
)

// Scheduler runs fn after d; hosts supply it so the engine never sleeps itself.
type Scheduler interface {
	After(d time.Duration, fn func())
}

type SchedulerFunc func(d time.Duration, fn func())

func (f SchedulerFunc) After(d time.Duration, fn func()) {
	f(d, fn)
}
