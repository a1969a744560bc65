// Package ctime is a coarse clock: a background ticker refreshes the cached time, so
// hot paths read an atomic instead of calling time.Now.
package ctime

import (
	"sync"
	"sync/atomic"
	"time"
)

var (
	nowUnix atomic.Int64
	running atomic.Bool

	mu    sync.Mutex
	users int
	done  chan struct{}
)

// Start refreshes the cached time every resolution until the returned stop is called.
// Nested starts share the first ticker.
func Start(resolution time.Duration) (stop func()) {
	mu.Lock()
	defer mu.Unlock()

	if users++; users == 1 {
		nowUnix.Store(time.Now().UnixNano())
		done = make(chan struct{})
		go tick(resolution, done)
		running.Store(true)
	}

	var once sync.Once
	return func() { once.Do(release) }
}

func release() {
	mu.Lock()
	defer mu.Unlock()

	if users--; users == 0 {
		running.Store(false)
		close(done)
	}
}

func tick(resolution time.Duration, done <-chan struct{}) {
	t := time.NewTicker(resolution)
	defer t.Stop()
	for {
		select {
		case tt := <-t.C:
			nowUnix.Store(tt.UnixNano())
		case <-done:
			return
		}
	}
}

// Now returns the cached time, or time.Now when the clock is not started.
func Now() time.Time {
	if !running.Load() {
		return time.Now()
	}
	return time.Unix(0, nowUnix.Load())
}
