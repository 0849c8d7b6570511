package display

import (
	"errors"
	"hash/fnv"
)

// Display errors.
var (
	// ErrNoDisplays indicates no connected displays were found.
	ErrNoDisplays = errors.New("no connected displays")

	// ErrNoBuiltin indicates no built-in panel is online.
	ErrNoBuiltin = errors.New("no built-in display online")
)

// ID is an opaque handle for one physical display.
// The zero value is never a valid display.
type ID uint32

// Target identifies the display one brightness command addresses.
// Targets are created per request and never persisted.
type Target struct {
	// ID is the display handle.
	ID ID

	// IsBuiltIn reports whether the target is the built-in panel.
	IsBuiltIn bool
}

// Rect is a display frame in global coordinates.
type Rect struct {
	X, Y, W, H int
}

// Info describes one connected display.
type Info struct {
	// ID is the display handle, derived from the connector name.
	ID ID

	// Connector is the DRM connector name (e.g. "card0-DP-1").
	Connector string

	// IsBuiltIn reports whether this is the built-in panel.
	IsBuiltIn bool

	// Frame is the display geometry, used to size overlay surfaces.
	// Sysfs enumeration fills only W and H.
	Frame Rect
}

// Target returns the command target for this display.
func (i Info) Target() Target {
	return Target{ID: i.ID, IsBuiltIn: i.IsBuiltIn}
}

// MakeID derives the stable display ID for a connector name.
func MakeID(connector string) ID {
	h := fnv.New32a()
	h.Write([]byte(connector))
	id := ID(h.Sum32())
	if id == 0 {
		id = 1
	}
	return id
}

// Enumerator lists the currently connected displays.
type Enumerator interface {
	// Displays returns all connected displays.
	Displays() ([]Info, error)
}

// PointerLocator reports the display under the pointer.
// Supplied by the surrounding UI layer; may be absent.
type PointerLocator interface {
	PointerDisplay() (Info, bool)
}

// FocusTracker reports the display owning input focus.
// Supplied by the surrounding UI layer; may be absent.
type FocusTracker interface {
	FocusedDisplay() (Info, bool)
}
