package upload

import (
	"sync"
	"time"
)

// Clock schedules the progress ticker and the delayed close.
type Clock interface {
	// Every calls fn each interval until stop is called.
	Every(interval time.Duration, fn func()) (stop func())
	// After calls fn once after d unless stop is called first.
	After(d time.Duration, fn func()) (stop func())
}

// RealClock schedules on wall time.
type RealClock struct{}

// Every implements Clock.
func (RealClock) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// After implements Clock.
func (RealClock) After(d time.Duration, fn func()) func() {
	timer := time.AfterFunc(d, fn)
	return func() { timer.Stop() }
}
