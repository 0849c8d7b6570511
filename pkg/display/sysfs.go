package display

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDRMPath is the sysfs directory holding DRM connector state.
const DefaultDRMPath = "/sys/class/drm"

// builtinConnectorPrefixes name connector types that are internal panels.
var builtinConnectorPrefixes = []string{"eDP", "LVDS", "DSI"}

// SysfsEnumerator enumerates displays from DRM connector state in sysfs.
type SysfsEnumerator struct {
	root string
}

// NewSysfsEnumerator creates an enumerator reading from DefaultDRMPath.
func NewSysfsEnumerator() *SysfsEnumerator {
	return &SysfsEnumerator{root: DefaultDRMPath}
}

// NewSysfsEnumeratorAt creates an enumerator reading from a custom root.
// Used by tests and sandboxed environments.
func NewSysfsEnumeratorAt(root string) *SysfsEnumerator {
	return &SysfsEnumerator{root: root}
}

// Displays returns all connectors whose status reads "connected".
func (e *SysfsEnumerator) Displays() ([]Info, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.root, err)
	}

	var infos []Info
	for _, entry := range entries {
		name := entry.Name()
		if !isConnectorName(name) {
			continue
		}

		status, err := os.ReadFile(filepath.Join(e.root, name, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}

		info := Info{
			ID:        MakeID(name),
			Connector: name,
			IsBuiltIn: IsBuiltinConnector(name),
		}
		if w, h, ok := e.preferredMode(name); ok {
			info.Frame = Rect{W: w, H: h}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// preferredMode parses the first entry of the connector's modes file.
func (e *SysfsEnumerator) preferredMode(connector string) (w, h int, ok bool) {
	data, err := os.ReadFile(filepath.Join(e.root, connector, "modes"))
	if err != nil {
		return 0, 0, false
	}
	line, _, _ := strings.Cut(string(data), "\n")
	if n, err := fmt.Sscanf(strings.TrimSpace(line), "%dx%d", &w, &h); err != nil || n != 2 {
		return 0, 0, false
	}
	return w, h, true
}

// isConnectorName reports whether a sysfs entry names a DRM connector
// (cardN-<type>-<index>) rather than a card or render node.
func isConnectorName(name string) bool {
	if !strings.HasPrefix(name, "card") {
		return false
	}
	return strings.Count(name, "-") >= 1
}

// IsBuiltinConnector reports whether a connector name designates an
// internal panel (eDP, LVDS or DSI link).
func IsBuiltinConnector(name string) bool {
	// Strip the "cardN-" prefix before matching the connector type.
	if i := strings.Index(name, "-"); i >= 0 {
		name = name[i+1:]
	}
	for _, prefix := range builtinConnectorPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
