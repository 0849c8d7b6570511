package backlight

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// writeDevice lays out one fake backlight device under root.
func writeDevice(t *testing.T, root, name string, max, current int) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile := func(file string, v int) {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(strconv.Itoa(v)+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeFile("max_brightness", max)
	writeFile("brightness", current)
	return dir
}

func TestOpenAndRead(t *testing.T) {
	dir := writeDevice(t, t.TempDir(), "intel_backlight", 400, 100)

	dev, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if dev.Name() != "intel_backlight" {
		t.Errorf("Name() = %q, want intel_backlight", dev.Name())
	}
	if dev.Max() != 400 {
		t.Errorf("Max() = %d, want 400", dev.Max())
	}

	v, err := dev.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if v != 0.25 {
		t.Errorf("Read() = %v, want 0.25", v)
	}
}

func TestOpenZeroMaximum(t *testing.T) {
	dir := writeDevice(t, t.TempDir(), "broken", 0, 0)

	if _, err := Open(dir); !errors.Is(err, ErrZeroMaximum) {
		t.Errorf("Open() error = %v, want ErrZeroMaximum", err)
	}
}

func TestWriteRoundsAndClamps(t *testing.T) {
	dir := writeDevice(t, t.TempDir(), "intel_backlight", 400, 0)
	dev, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		value float64
		want  int
	}{
		{"mid", 0.5, 200},
		{"rounds up", 0.50125, 201},
		{"above one", 1.5, 400},
		{"negative", -0.5, 0},
		{"nan", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := dev.Write(tt.value); err != nil {
				t.Fatalf("Write(%v) error: %v", tt.value, err)
			}
			data, err := os.ReadFile(filepath.Join(dir, "brightness"))
			if err != nil {
				t.Fatal(err)
			}
			got, _ := strconv.Atoi(strings.TrimSpace(string(data)))
			if got != tt.want {
				t.Errorf("Write(%v) stored %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestDiscoverAt(t *testing.T) {
	root := t.TempDir()
	writeDevice(t, root, "amdgpu_bl0", 255, 128)

	dev, err := DiscoverAt(root)
	if err != nil {
		t.Fatalf("DiscoverAt() error: %v", err)
	}
	if dev.Name() != "amdgpu_bl0" {
		t.Errorf("Name() = %q, want amdgpu_bl0", dev.Name())
	}
}

func TestDiscoverAtEmpty(t *testing.T) {
	if _, err := DiscoverAt(t.TempDir()); !errors.Is(err, ErrNoDevice) {
		t.Errorf("DiscoverAt() error = %v, want ErrNoDevice", err)
	}
}

func TestDiscoverAtMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "absent")
	if _, err := DiscoverAt(root); !errors.Is(err, ErrNoDevice) {
		t.Errorf("DiscoverAt() error = %v, want ErrNoDevice", err)
	}
}
