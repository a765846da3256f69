// Package sessions watches a signed-in session for inactivity on the client
// side. After IdleTimeout without activity the user is warned; if they do not
// confirm within GracePeriod the session expires and cannot be resumed.
package sessions

import (
	"sync"
	"time"
)

const (
	IdleTimeout = 13 * time.Minute
	GracePeriod = 2 * time.Minute
)

type State int

const (
	Active State = iota
	Warning
	Expired
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Warning:
		return "warning"
	default:
		return "expired"
	}
}

// Options configures a Monitor. Zero durations use the package defaults.
type Options struct {
	Idle  time.Duration
	Grace time.Duration
	// OnWarning runs when the idle period elapses. deadline is when the
	// session expires unless confirmed.
	OnWarning func(deadline time.Time)
	// OnExpire runs once when the session expires. The embedding client clears
	// its session state here.
	OnExpire func()
}

// Monitor is the Active -> Warning -> Expired state machine. Callbacks run
// outside the monitor lock on the clock's goroutine.
type Monitor struct {
	clock Clock
	idle  time.Duration
	grace time.Duration

	onWarning func(time.Time)
	onExpire  func()

	mu      sync.Mutex
	state   State
	timer   Timer
	gen     uint64
	stopped bool
}

// NewMonitor starts watching immediately in the Active state.
func NewMonitor(clock Clock, opts Options) *Monitor {
	if clock == nil {
		clock = SystemClock{}
	}
	m := &Monitor{
		clock:     clock,
		idle:      opts.Idle,
		grace:     opts.Grace,
		onWarning: opts.OnWarning,
		onExpire:  opts.OnExpire,
	}
	if m.idle <= 0 {
		m.idle = IdleTimeout
	}
	if m.grace <= 0 {
		m.grace = GracePeriod
	}
	m.mu.Lock()
	m.arm(m.idle, m.warn)
	m.mu.Unlock()
	return m
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Activity records a user interaction. In Active or Warning it restarts the
// idle period; after expiry or Stop it does nothing.
func (m *Monitor) Activity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

// Confirm answers the warning prompt. It reports false when the session had
// already expired or was stopped.
func (m *Monitor) Confirm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset()
}

// Stop cancels the timers, for example on explicit logout.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.cancel()
}

func (m *Monitor) reset() bool {
	if m.stopped || m.state == Expired {
		return false
	}
	m.state = Active
	m.arm(m.idle, m.warn)
	return true
}

func (m *Monitor) cancel() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// arm replaces the pending timer. Callers hold mu. A callback from a replaced
// timer that already fired sees a stale generation and does nothing.
func (m *Monitor) arm(d time.Duration, next func(gen uint64)) {
	m.cancel()
	gen := m.gen
	m.timer = m.clock.AfterFunc(d, func() { next(gen) })
}

func (m *Monitor) warn(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.stopped || m.state != Active {
		m.mu.Unlock()
		return
	}
	m.state = Warning
	deadline := m.clock.Now().Add(m.grace)
	m.arm(m.grace, m.expire)
	cb := m.onWarning
	m.mu.Unlock()

	if cb != nil {
		cb(deadline)
	}
}

func (m *Monitor) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.stopped || m.state != Warning {
		m.mu.Unlock()
		return
	}
	m.state = Expired
	m.timer = nil
	cb := m.onExpire
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
}
