package platform

import (
	"context"
	"sync"
	"time"
)

// TaskHandle cancels a previously scheduled task. Cancelling an
// already-fired or already-cancelled handle is a no-op.
type TaskHandle interface {
	Cancel()
}

// Scheduler abstracts "run this function at this time" so the timer core's
// expiry firing and the presence core's stale sweep can be faked in tests
// instead of depending on real timers.
type Scheduler interface {
	// At schedules fn to run at t. Scheduling the same key again replaces
	// the prior task (idempotent rescheduling, per spec).
	At(key string, t time.Time, fn func(context.Context)) TaskHandle
	// Every runs fn on a fixed interval until the returned handle is cancelled.
	Every(key string, interval time.Duration, fn func(context.Context)) TaskHandle
	// Stop cancels every task the scheduler currently owns.
	Stop()
}

// realHandle wraps a timer or ticker-backed goroutine's stop channel.
type realHandle struct {
	stop chan struct{}
	once sync.Once
}

func (h *realHandle) Cancel() {
	h.once.Do(func() { close(h.stop) })
}

// RealScheduler is the production Scheduler backed by time.Timer/time.Ticker.
type RealScheduler struct {
	ctx context.Context

	mu    sync.Mutex
	tasks map[string]*realHandle
}

// NewRealScheduler returns a Scheduler whose tasks are cancelled when ctx
// is cancelled or when Stop is called.
func NewRealScheduler(ctx context.Context) *RealScheduler {
	return &RealScheduler{ctx: ctx, tasks: make(map[string]*realHandle)}
}

func (s *RealScheduler) replace(key string) *realHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.tasks[key]; ok {
		prev.Cancel()
	}
	h := &realHandle{stop: make(chan struct{})}
	s.tasks[key] = h
	return h
}

// At schedules fn to fire once at t, replacing any previously scheduled
// task registered under the same key.
func (s *RealScheduler) At(key string, t time.Time, fn func(context.Context)) TaskHandle {
	h := s.replace(key)
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	go func() {
		defer timer.Stop()
		select {
		case <-h.stop:
		case <-s.ctx.Done():
		case <-timer.C:
			fn(s.ctx)
		}
	}()
	return h
}

// Every runs fn on a fixed interval until cancelled.
func (s *RealScheduler) Every(key string, interval time.Duration, fn func(context.Context)) TaskHandle {
	h := s.replace(key)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				fn(s.ctx)
			}
		}
	}()
	return h
}

// Stop cancels every outstanding task.
func (s *RealScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.tasks {
		h.Cancel()
	}
	s.tasks = make(map[string]*realHandle)
}
