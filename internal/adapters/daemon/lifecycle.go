package daemon

import (
	"sync"
	"time"
)

// Lifecycle tracks daemon activity and triggers shutdown after an idle period.
// The idle clock does not run while requests are in flight.
type Lifecycle struct {
	mu           sync.Mutex
	timer        *time.Timer
	startTime    time.Time
	lastActivity time.Time
	timeout      time.Duration
	inFlight     int
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// NewLifecycle creates a lifecycle that shuts down after timeout without activity.
func NewLifecycle(timeout time.Duration) *Lifecycle {
	now := time.Now()
	l := &Lifecycle{
		startTime:    now,
		lastActivity: now,
		timeout:      timeout,
		shutdownChan: make(chan struct{}),
	}
	l.timer = time.AfterFunc(timeout, l.triggerShutdown)
	return l
}

// Touch records activity and restarts the idle clock.
func (l *Lifecycle) Touch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = time.Now()
	if l.inFlight == 0 {
		l.timer.Reset(l.timeout)
	}
}

// Begin marks the start of a request. The returned function ends it.
func (l *Lifecycle) Begin() (end func()) {
	l.mu.Lock()
	l.inFlight++
	l.lastActivity = time.Now()
	l.timer.Stop()
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.inFlight--
			l.lastActivity = time.Now()
			if l.inFlight == 0 {
				l.timer.Reset(l.timeout)
			}
		})
	}
}

// IdleRemaining returns the duration until auto-shutdown.
func (l *Lifecycle) IdleRemaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight > 0 {
		return l.timeout
	}
	return max(l.timeout-time.Since(l.lastActivity), 0)
}

// Uptime returns how long the daemon has been running.
func (l *Lifecycle) Uptime() time.Duration {
	return time.Since(l.startTime)
}

// LastActivity returns the timestamp of the last activity.
func (l *Lifecycle) LastActivity() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastActivity
}

// ShutdownChan returns a channel that closes when shutdown is triggered.
func (l *Lifecycle) ShutdownChan() <-chan struct{} {
	return l.shutdownChan
}

func (l *Lifecycle) triggerShutdown() {
	l.shutdownOnce.Do(func() {
		close(l.shutdownChan)
	})
}

// Shutdown stops the idle timer and triggers shutdown. It is idempotent.
func (l *Lifecycle) Shutdown() {
	l.mu.Lock()
	l.timer.Stop()
	l.mu.Unlock()
	l.triggerShutdown()
}
