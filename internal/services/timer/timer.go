package timer

import (
	"sync"
	"time"
)

// RepeatedTimer calls function every interval on its own goroutine until
// Stop. A slow function delays the next tick instead of overlapping it.
type RepeatedTimer struct {
	mu        sync.Mutex
	interval  time.Duration
	function  func()
	stopChan  chan struct{}
	done      chan struct{}
	isRunning bool
}

func NewRepeatedTimer(interval time.Duration, function func()) *RepeatedTimer {
	rt := &RepeatedTimer{
		interval: interval,
		function: function,
	}
	rt.Start()
	return rt
}

func (rt *RepeatedTimer) Start() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.isRunning || rt.interval <= 0 {
		return
	}

	rt.isRunning = true
	rt.stopChan = make(chan struct{})
	rt.done = make(chan struct{})
	go rt.loop(rt.stopChan, rt.done)
}

func (rt *RepeatedTimer) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(rt.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rt.function()
		case <-stop:
			return
		}
	}
}

// Stop blocks until an in-flight call has returned. Calling it twice is fine.
func (rt *RepeatedTimer) Stop() {
	rt.mu.Lock()
	if !rt.isRunning {
		rt.mu.Unlock()
		return
	}
	rt.isRunning = false
	close(rt.stopChan)
	done := rt.done
	rt.mu.Unlock()
	<-done
}

func (rt *RepeatedTimer) Running() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.isRunning
}
