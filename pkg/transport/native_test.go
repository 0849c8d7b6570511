package transport

import (
	"errors"
	"testing"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
)

// fakeParameterAPI is an in-memory ParameterAPI.
type fakeParameterAPI struct {
	values    map[string]float64
	readErr   error
	writeErr  error
	readCalls int
}

func newFakeParameterAPI() *fakeParameterAPI {
	return &fakeParameterAPI{values: map[string]float64{}}
}

func (f *fakeParameterAPI) Supported(connector string) bool {
	_, ok := f.values[connector]
	return ok
}

func (f *fakeParameterAPI) ReadParameter(connector string) (float64, error) {
	f.readCalls++
	if f.readErr != nil {
		return 0, f.readErr
	}
	v, ok := f.values[connector]
	if !ok {
		return 0, ErrNoParameter
	}
	return v, nil
}

func (f *fakeParameterAPI) WriteParameter(connector string, value float64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.values[connector] = value
	return nil
}

func nativeTestInfo() display.Info {
	return display.Info{ID: 7, Connector: "card0-DP-1"}
}

func TestNativeTransportSupported(t *testing.T) {
	api := newFakeParameterAPI()
	api.values["card0-DP-1"] = 0.4

	tr := NewNativeParameterTransport(nativeTestInfo(), api, log.NoopLogger{})
	if !tr.IsSupported() {
		t.Fatal("IsSupported() = false with a parameter present")
	}

	other := NewNativeParameterTransport(display.Info{ID: 8, Connector: "card0-HDMI-A-1"}, api, nil)
	if other.IsSupported() {
		t.Fatal("IsSupported() = true with no parameter")
	}
}

func TestNativeTransportReadWrite(t *testing.T) {
	api := newFakeParameterAPI()
	api.values["card0-DP-1"] = 0.4
	tr := NewNativeParameterTransport(nativeTestInfo(), api, nil)

	v, ok := tr.Read()
	if !ok || v != 0.4 {
		t.Fatalf("Read() = (%v, %v), want (0.4, true)", v, ok)
	}

	if !tr.Write(0.9) {
		t.Fatal("Write() failed")
	}
	if api.values["card0-DP-1"] != 0.9 {
		t.Errorf("parameter = %v, want 0.9", api.values["card0-DP-1"])
	}
}

func TestNativeTransportWriteClamps(t *testing.T) {
	api := newFakeParameterAPI()
	api.values["card0-DP-1"] = 0.4
	tr := NewNativeParameterTransport(nativeTestInfo(), api, nil)

	if !tr.Write(2.5) {
		t.Fatal("Write() failed")
	}
	if api.values["card0-DP-1"] != 1 {
		t.Errorf("parameter = %v, want clamped 1", api.values["card0-DP-1"])
	}
}

func TestNativeTransportCachedFallback(t *testing.T) {
	api := newFakeParameterAPI()
	api.values["card0-DP-1"] = 0.4
	tr := NewNativeParameterTransport(nativeTestInfo(), api, nil)

	if _, ok := tr.Read(); !ok {
		t.Fatal("initial Read() failed")
	}

	api.readErr = errors.New("driver detached")
	v, ok := tr.Read()
	if !ok || v != 0.4 {
		t.Errorf("Read() after failure = (%v, %v), want cached (0.4, true)", v, ok)
	}
}

func TestNativeTransportNoCacheNoValue(t *testing.T) {
	api := newFakeParameterAPI()
	api.readErr = errors.New("driver detached")
	tr := NewNativeParameterTransport(nativeTestInfo(), api, nil)

	if _, ok := tr.Read(); ok {
		t.Fatal("Read() produced a value with no cache and a failing API")
	}
}
