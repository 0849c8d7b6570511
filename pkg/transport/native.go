package transport

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
)

// ErrNoParameter indicates the kernel exposes no brightness parameter
// for the connector.
var ErrNoParameter = errors.New("no native brightness parameter")

// ParameterAPI is the kernel/vendor interface exposing a display's
// brightness as a named parameter. On Linux this is the ddcci-backlight
// driver publishing external monitors under the backlight class.
type ParameterAPI interface {
	// Supported reports whether a parameter exists for the connector.
	Supported(connector string) bool

	// ReadParameter returns the connector's normalized brightness.
	ReadParameter(connector string) (float64, error)

	// WriteParameter sets the connector's normalized brightness.
	WriteParameter(connector string, value float64) error
}

// SysfsParameterAPI finds ddcci-backlight devices under the backlight
// class and matches them to connectors through the DDC bus number.
type SysfsParameterAPI struct {
	backlightRoot string
	drmRoot       string
}

var _ ParameterAPI = (*SysfsParameterAPI)(nil)

// NewSysfsParameterAPI creates an API over the standard sysfs roots.
func NewSysfsParameterAPI() *SysfsParameterAPI {
	return &SysfsParameterAPI{
		backlightRoot: "/sys/class/backlight",
		drmRoot:       display.DefaultDRMPath,
	}
}

// NewSysfsParameterAPIAt creates an API with custom roots, for tests.
func NewSysfsParameterAPIAt(backlightRoot, drmRoot string) *SysfsParameterAPI {
	return &SysfsParameterAPI{backlightRoot: backlightRoot, drmRoot: drmRoot}
}

// Supported reports whether a ddcci backlight device exists for the
// connector.
func (a *SysfsParameterAPI) Supported(connector string) bool {
	_, err := a.deviceDir(connector)
	return err == nil
}

// ReadParameter reads brightness/max_brightness from the device.
func (a *SysfsParameterAPI) ReadParameter(connector string) (float64, error) {
	dir, err := a.deviceDir(connector)
	if err != nil {
		return 0, err
	}
	max, err := readSysfsInt(filepath.Join(dir, "max_brightness"))
	if err != nil || max <= 0 {
		return 0, fmt.Errorf("%w: bad maximum for %s", ErrNoParameter, connector)
	}
	raw, err := readSysfsInt(filepath.Join(dir, "brightness"))
	if err != nil {
		return 0, fmt.Errorf("read parameter %s: %w", connector, err)
	}
	v := float64(raw) / float64(max)
	return math.Min(math.Max(v, 0), 1), nil
}

// WriteParameter writes the scaled raw value to the device.
func (a *SysfsParameterAPI) WriteParameter(connector string, value float64) error {
	dir, err := a.deviceDir(connector)
	if err != nil {
		return err
	}
	max, err := readSysfsInt(filepath.Join(dir, "max_brightness"))
	if err != nil || max <= 0 {
		return fmt.Errorf("%w: bad maximum for %s", ErrNoParameter, connector)
	}
	if math.IsNaN(value) {
		value = 0
	}
	value = math.Min(math.Max(value, 0), 1)
	raw := int(math.Round(value * float64(max)))
	return os.WriteFile(filepath.Join(dir, "brightness"), []byte(strconv.Itoa(raw)), 0o644)
}

// deviceDir locates the ddcci backlight device for a connector. The
// driver names devices ddcci<N> after the I2C bus number, which the
// connector's ddc symlink also carries.
func (a *SysfsParameterAPI) deviceDir(connector string) (string, error) {
	target, err := os.Readlink(filepath.Join(a.drmRoot, connector, "ddc"))
	if err != nil {
		return "", fmt.Errorf("%w: %s has no ddc link", ErrNoParameter, connector)
	}
	busName := filepath.Base(target)
	busNum, ok := strings.CutPrefix(busName, "i2c-")
	if !ok {
		return "", fmt.Errorf("%w: %s ddc link points at %s", ErrNoParameter, connector, busName)
	}

	dir := filepath.Join(a.backlightRoot, "ddcci"+busNum)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoParameter, connector)
	}
	return dir, nil
}

func readSysfsInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// NativeParameterTransport controls brightness through a ParameterAPI.
// Cheapest path; no DDC/CI framing of its own.
type NativeParameterTransport struct {
	api       ParameterAPI
	info      display.Info
	logger    log.Logger
	lastValue float64
	haveLast  bool
}

var _ Transport = (*NativeParameterTransport)(nil)

// NewNativeParameterTransport creates a native transport for one display.
func NewNativeParameterTransport(info display.Info, api ParameterAPI, logger log.Logger) *NativeParameterTransport {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &NativeParameterTransport{api: api, info: info, logger: logger}
}

// Name returns "native".
func (t *NativeParameterTransport) Name() string { return "native" }

// IsSupported asks the API whether the connector exposes a parameter.
func (t *NativeParameterTransport) IsSupported() bool {
	return t.api.Supported(t.info.Connector)
}

// Read returns the normalized brightness, falling back to the last good
// value when the parameter read fails.
func (t *NativeParameterTransport) Read() (float64, bool) {
	v, err := t.api.ReadParameter(t.info.Connector)
	if err != nil {
		if t.haveLast {
			t.logSample(t.lastValue, true)
			return t.lastValue, true
		}
		return 0, false
	}
	t.lastValue = v
	t.haveLast = true
	t.logSample(v, false)
	return v, true
}

// Write sets the normalized brightness and caches it optimistically.
func (t *NativeParameterTransport) Write(value float64) bool {
	if math.IsNaN(value) {
		value = 0
	}
	value = math.Min(math.Max(value, 0), 1)
	if err := t.api.WriteParameter(t.info.Connector, value); err != nil {
		return false
	}
	t.lastValue = value
	t.haveLast = true
	return true
}

// Close is a no-op; the API holds no per-display resources.
func (t *NativeParameterTransport) Close() error { return nil }

func (t *NativeParameterTransport) logSample(value float64, cached bool) {
	t.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerBus,
		Category:  log.CategorySample,
		DisplayID: uint32(t.info.ID),
		Transport: t.Name(),
		Sample:    &log.SampleEvent{Value: value, Cached: cached},
	})
}
