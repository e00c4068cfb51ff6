package feed

import "time"

// Timer is a pending callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Spawner runs f asynchronously
type Spawner func(f func())

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by time.AfterFunc
func RealClock() Clock {
	return realClock{}
}

// GoSpawn runs f on a new goroutine
func GoSpawn(f func()) {
	go f()
}
