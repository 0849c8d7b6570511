package transport

import (
	"testing"
	"time"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
)

func avTestTransport(bus *fakeBus) *AVServiceTransport {
	tr := NewAVServiceTransport(display.Info{ID: 9, Connector: "card0-HDMI-A-1"}, log.NoopLogger{})
	tr.resolve = func(display.Info) (AVService, error) {
		return bus, nil
	}
	return tr
}

func TestAVServiceTransportSupported(t *testing.T) {
	bus := newFakeBus(100, 30)
	tr := avTestTransport(bus)

	if !tr.IsSupported() {
		t.Fatal("IsSupported() = false with a healthy service")
	}
	tr.exchange.sleep = func(time.Duration) {}

	v, ok := tr.Read()
	if !ok || v != 0.3 {
		t.Errorf("Read() = (%v, %v), want (0.3, true)", v, ok)
	}
	if !tr.Write(0.6) {
		t.Fatal("Write() failed")
	}
	if bus.current != 60 {
		t.Errorf("display register = %d, want 60", bus.current)
	}
}

func TestAVServiceTransportNoResolver(t *testing.T) {
	tr := NewAVServiceTransport(display.Info{ID: 9, Connector: "card0-HDMI-A-1"}, nil)
	if tr.IsSupported() {
		t.Fatal("IsSupported() = true with no resolver registered")
	}
	if _, ok := tr.Read(); ok {
		t.Fatal("Read() produced a value while unsupported")
	}
	if tr.Write(0.5) {
		t.Fatal("Write() succeeded while unsupported")
	}
}

func TestAVServiceTransportProbeFailureClosesHandle(t *testing.T) {
	bus := newFakeBus(100, 30)
	bus.failReads = readAttempts
	tr := avTestTransport(bus)

	if tr.IsSupported() {
		t.Fatal("IsSupported() = true with a dead service")
	}
	if !bus.closed {
		t.Error("failed probe left the service handle open")
	}
}
