package log

// Logger receives engine events: bus frames, brightness samples, state
// changes and errors. Everything that touches hardware takes one.
type Logger interface {
	// Log records one event. Implementations must be safe for
	// concurrent use and should return quickly; the transports call
	// Log between timed bus operations.
	Log(event Event)
}

// NoopLogger discards all events. It is the default wherever a nil
// logger is handed in, and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
