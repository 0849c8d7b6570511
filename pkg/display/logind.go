package display

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	logindSleepMatchRule = "type='signal',interface='org.freedesktop.login1.Manager',member='PrepareForSleep'"
	logindSleepMember    = "org.freedesktop.login1.Manager.PrepareForSleep"
)

// WakeHandler is invoked after the machine resumed from sleep.
type WakeHandler func()

// WakeMonitor reports resume-from-sleep via the logind PrepareForSleep
// signal. Displays and DDC buses commonly change state while asleep, so
// callers use the wake callback to re-discover hardware.
type WakeMonitor struct {
	mu       sync.Mutex
	conn     *dbus.Conn
	signals  chan *dbus.Signal
	handlers []WakeHandler
	done     chan struct{}
	closed   bool
}

// NewWakeMonitor connects to the system bus and subscribes to
// PrepareForSleep.
func NewWakeMonitor() (*WakeMonitor, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	call := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, logindSleepMatchRule)
	if call.Err != nil {
		return nil, fmt.Errorf("subscribe PrepareForSleep: %w", call.Err)
	}

	m := &WakeMonitor{
		conn:    conn,
		signals: make(chan *dbus.Signal, 16),
		done:    make(chan struct{}),
	}
	conn.Signal(m.signals)
	go m.listen()
	return m, nil
}

// OnWake registers a handler invoked on resume from sleep.
func (m *WakeMonitor) OnWake(h WakeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// Close stops listening. The shared system bus connection stays open.
func (m *WakeMonitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.conn.RemoveSignal(m.signals)
	return nil
}

func (m *WakeMonitor) listen() {
	for {
		select {
		case <-m.done:
			return
		case sig, ok := <-m.signals:
			if !ok {
				return
			}
			if sig.Name != logindSleepMember || len(sig.Body) == 0 {
				continue
			}
			// PrepareForSleep(true) fires before suspend, (false) on resume.
			sleeping, ok := sig.Body[0].(bool)
			if !ok || sleeping {
				continue
			}
			m.fire()
		}
	}
}

func (m *WakeMonitor) fire() {
	m.mu.Lock()
	handlers := make([]WakeHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}
