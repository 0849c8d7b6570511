package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestSlog(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestSlogAdapterSample(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	event := sampleEvent(7, 0.62)
	event.Sample.Raw = 62
	event.Sample.Max = 100
	adapter.Log(event)

	out := buf.String()
	for _, want := range []string{"direction=IN", "layer=CODEC", "category=SAMPLE", "display=7", "transport=i2c", "value=0.62", "max=100"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSlogAdapterError(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	adapter.Log(Event{
		Direction: DirectionIn,
		Layer:     LayerBus,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerBus,
			Message: "bus transaction failed",
			Context: "read attempt 2/4",
		},
	})

	out := buf.String()
	for _, want := range []string{"error_msg=\"bus transaction failed\"", "error_context=\"read attempt 2/4\""} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSlogAdapterFrame(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(newTestSlog(&buf))

	adapter.Log(Event{
		Direction: DirectionOut,
		Layer:     LayerBus,
		Category:  CategoryFrame,
		Frame:     NewFrameEvent([]byte{0x51, 0x82, 0x01, 0x10, 0xAC}),
	})

	out := buf.String()
	if !strings.Contains(out, "frame=51820110ac") {
		t.Errorf("output missing hex frame dump:\n%s", out)
	}
}
