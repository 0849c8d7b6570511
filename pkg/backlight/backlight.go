// Package backlight drives the built-in panel through the sysfs
// backlight class (/sys/class/backlight). External displays are out of
// scope here; they speak DDC/CI through pkg/transport.
package backlight

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSysfsPath is the sysfs directory holding backlight devices.
const DefaultSysfsPath = "/sys/class/backlight"

// Backlight errors.
var (
	// ErrNoDevice indicates no backlight device was found.
	ErrNoDevice = errors.New("no backlight device")

	// ErrZeroMaximum indicates the device reports max_brightness 0.
	ErrZeroMaximum = errors.New("backlight maximum is zero")
)

// Device is one sysfs backlight device. The maximum raw value is read
// once at open time; the kernel never changes it for a given device.
type Device struct {
	name string
	dir  string
	max  int
}

// Discover opens the first backlight device under DefaultSysfsPath.
func Discover() (*Device, error) {
	return DiscoverAt(DefaultSysfsPath)
}

// DiscoverAt opens the first backlight device under root. Firmware
// interfaces (intel_backlight, amdgpu_bl0, acpi_video0) all appear as
// plain directories here; the first entry wins.
func DiscoverAt(root string) (*Device, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrNoDevice, root, err)
	}
	for _, entry := range entries {
		dev, err := Open(filepath.Join(root, entry.Name()))
		if err == nil {
			return dev, nil
		}
	}
	return nil, ErrNoDevice
}

// Open opens the backlight device at dir and reads its maximum.
func Open(dir string) (*Device, error) {
	max, err := readIntFile(filepath.Join(dir, "max_brightness"))
	if err != nil {
		return nil, fmt.Errorf("open backlight %s: %w", dir, err)
	}
	if max <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrZeroMaximum, dir)
	}
	return &Device{name: filepath.Base(dir), dir: dir, max: max}, nil
}

// Name returns the device name (e.g. "intel_backlight").
func (d *Device) Name() string { return d.name }

// Max returns the raw maximum brightness.
func (d *Device) Max() int { return d.max }

// Read returns the current brightness normalized to [0, 1].
func (d *Device) Read() (float64, error) {
	raw, err := readIntFile(filepath.Join(d.dir, "brightness"))
	if err != nil {
		return 0, fmt.Errorf("read backlight %s: %w", d.name, err)
	}
	v := float64(raw) / float64(d.max)
	return math.Min(math.Max(v, 0), 1), nil
}

// Write sets the brightness from a normalized [0, 1] value.
func (d *Device) Write(value float64) error {
	if math.IsNaN(value) {
		value = 0
	}
	value = math.Min(math.Max(value, 0), 1)
	raw := int(math.Round(value * float64(d.max)))

	path := filepath.Join(d.dir, "brightness")
	if err := os.WriteFile(path, []byte(strconv.Itoa(raw)), 0o644); err != nil {
		return fmt.Errorf("write backlight %s: %w", d.name, err)
	}
	return nil
}

func readIntFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
