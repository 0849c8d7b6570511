package display

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConnector lays out one fake DRM connector under root.
func writeConnector(t *testing.T, root, name, status, modes string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "status"), []byte(status+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if modes != "" {
		if err := os.WriteFile(filepath.Join(dir, "modes"), []byte(modes), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSysfsEnumeratorDisplays(t *testing.T) {
	root := t.TempDir()
	writeConnector(t, root, "card0-eDP-1", "connected", "1920x1080\n1280x720\n")
	writeConnector(t, root, "card0-DP-1", "connected", "2560x1440\n")
	writeConnector(t, root, "card0-HDMI-A-1", "disconnected", "")
	// Card and render nodes must be skipped.
	if err := os.MkdirAll(filepath.Join(root, "card0"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "renderD128"), 0o755); err != nil {
		t.Fatal(err)
	}

	infos, err := NewSysfsEnumeratorAt(root).Displays()
	if err != nil {
		t.Fatalf("Displays() error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Displays() returned %d displays, want 2", len(infos))
	}

	byConnector := map[string]Info{}
	for _, info := range infos {
		byConnector[info.Connector] = info
	}

	builtin, ok := byConnector["card0-eDP-1"]
	if !ok {
		t.Fatal("built-in panel missing from enumeration")
	}
	if !builtin.IsBuiltIn {
		t.Error("eDP connector not marked built-in")
	}
	if builtin.Frame.W != 1920 || builtin.Frame.H != 1080 {
		t.Errorf("built-in frame = %+v, want 1920x1080", builtin.Frame)
	}
	if builtin.ID == 0 {
		t.Error("built-in ID is zero")
	}

	external, ok := byConnector["card0-DP-1"]
	if !ok {
		t.Fatal("external display missing from enumeration")
	}
	if external.IsBuiltIn {
		t.Error("DP connector marked built-in")
	}
	if external.Frame.W != 2560 || external.Frame.H != 1440 {
		t.Errorf("external frame = %+v, want 2560x1440", external.Frame)
	}
}

func TestSysfsEnumeratorMissingRoot(t *testing.T) {
	_, err := NewSysfsEnumeratorAt(filepath.Join(t.TempDir(), "absent")).Displays()
	if err == nil {
		t.Fatal("Displays() on missing root did not fail")
	}
}

func TestSysfsEnumeratorMissingModes(t *testing.T) {
	root := t.TempDir()
	writeConnector(t, root, "card1-DVI-D-1", "connected", "")

	infos, err := NewSysfsEnumeratorAt(root).Displays()
	if err != nil {
		t.Fatalf("Displays() error: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("Displays() returned %d displays, want 1", len(infos))
	}
	if infos[0].Frame != (Rect{}) {
		t.Errorf("frame without modes file = %+v, want zero", infos[0].Frame)
	}
}

func TestIsBuiltinConnector(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"card0-eDP-1", true},
		{"card1-LVDS-1", true},
		{"card0-DSI-1", true},
		{"card0-DP-1", false},
		{"card0-HDMI-A-2", false},
		{"card0-VGA-1", false},
	}

	for _, tt := range tests {
		if got := IsBuiltinConnector(tt.name); got != tt.want {
			t.Errorf("IsBuiltinConnector(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMakeIDStableAndNonZero(t *testing.T) {
	a := MakeID("card0-eDP-1")
	b := MakeID("card0-eDP-1")
	if a != b {
		t.Errorf("MakeID not stable: %d != %d", a, b)
	}
	if a == 0 {
		t.Error("MakeID returned zero")
	}
	if MakeID("card0-DP-1") == a {
		t.Error("distinct connectors share an ID")
	}
}
