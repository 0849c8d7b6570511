package log

import "testing"

// recordingLogger captures events for assertions.
type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}

func TestNoopLogger(t *testing.T) {
	var logger NoopLogger

	// Must not panic, including on the zero event.
	logger.Log(Event{})
	logger.Log(sampleEvent(1, 0.5))
}
