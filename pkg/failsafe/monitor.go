package failsafe

import (
	"sync"
	"time"
)

// Session health constants.
const (
	// DefaultGraceWindow is how long after process start a one-shot
	// re-init attempt remains allowed.
	DefaultGraceWindow = 30 * time.Second

	// DefaultFailureThreshold is the number of consecutive poll
	// failures tolerated before the session demotes to Unsupported.
	DefaultFailureThreshold = 10
)

// State represents the subsystem health state.
type State uint8

const (
	// StateUnsupported indicates brightness control is unavailable.
	StateUnsupported State = iota

	// StateSupported indicates brightness control is working.
	StateSupported
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnsupported:
		return "UNSUPPORTED"
	case StateSupported:
		return "SUPPORTED"
	default:
		return "UNKNOWN"
	}
}

// Config holds monitor configuration. Zero values select the defaults.
type Config struct {
	GraceWindow      time.Duration
	FailureThreshold int
}

// Monitor tracks session health for the brightness subsystem.
type Monitor struct {
	mu sync.RWMutex

	state     State
	startedAt time.Time

	graceWindow time.Duration
	threshold   int

	// Consecutive poll failures; reset on any success.
	failures int

	// One-shot re-init latch.
	reinitUsed bool

	// now is swapped out by tests.
	now func() time.Time

	onStateChange func(oldState, newState State)
	onDemote      func(failures int)
}

// NewMonitor creates a monitor in the given initial state. The grace
// window for lazy re-init starts now.
func NewMonitor(initial State, cfg Config) *Monitor {
	m := &Monitor{
		state:       initial,
		graceWindow: cfg.GraceWindow,
		threshold:   cfg.FailureThreshold,
		now:         time.Now,
	}
	if m.graceWindow == 0 {
		m.graceWindow = DefaultGraceWindow
	}
	if m.threshold == 0 {
		m.threshold = DefaultFailureThreshold
	}
	m.startedAt = time.Now()
	return m
}

// State returns the current health state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsSupported returns true while brightness control is available.
func (m *Monitor) IsSupported() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateSupported
}

// ConsecutiveFailures returns the current failure streak.
func (m *Monitor) ConsecutiveFailures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failures
}

// AllowReinit reports whether a lazy re-init attempt may run now, and
// spends the one-shot latch when it does. Only an Unsupported session
// within the grace window qualifies; a second call never succeeds.
func (m *Monitor) AllowReinit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUnsupported || m.reinitUsed {
		return false
	}
	if m.now().Sub(m.startedAt) > m.graceWindow {
		return false
	}
	m.reinitUsed = true
	return true
}

// Promote transitions Unsupported -> Supported after a successful
// re-init and clears the failure streak.
func (m *Monitor) Promote() {
	m.mu.Lock()
	if m.state == StateSupported {
		m.mu.Unlock()
		return
	}
	m.state = StateSupported
	m.failures = 0
	fn := m.onStateChange
	m.mu.Unlock()

	if fn != nil {
		fn(StateUnsupported, StateSupported)
	}
}

// RecordSuccess resets the failure streak after a good poll sample.
func (m *Monitor) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = 0
}

// RecordFailure counts one failed poll sample. When the streak exceeds
// the threshold the session demotes to Unsupported; returns true on the
// demoting call.
func (m *Monitor) RecordFailure() bool {
	m.mu.Lock()

	if m.state != StateSupported {
		m.mu.Unlock()
		return false
	}

	m.failures++
	if m.failures <= m.threshold {
		m.mu.Unlock()
		return false
	}

	m.state = StateUnsupported
	failures := m.failures
	stateFn := m.onStateChange
	demoteFn := m.onDemote
	m.mu.Unlock()

	if stateFn != nil {
		stateFn(StateSupported, StateUnsupported)
	}
	if demoteFn != nil {
		demoteFn(failures)
	}
	return true
}

// OnStateChange sets a callback for health state changes.
func (m *Monitor) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnDemote sets a callback invoked when the failure threshold demotes
// the session. The orchestrator uses it to stop the poll loop.
func (m *Monitor) OnDemote(fn func(failures int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDemote = fn
}
