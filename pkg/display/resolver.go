package display

import "sync"

// Mode selects how brightness commands pick their target display.
type Mode uint8

const (
	// ModeBuiltin always targets the built-in panel.
	ModeBuiltin Mode = iota

	// ModeActive targets the display the user is working on: an explicit
	// hint, else the display under the pointer, else the focused display,
	// else the first enumerated one.
	ModeActive
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeBuiltin:
		return "BUILTIN"
	case ModeActive:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Mode is the initial target selection mode.
	Mode Mode

	// Pointer reports the display under the pointer (optional).
	Pointer PointerLocator

	// Focus reports the focused display (optional).
	Focus FocusTracker
}

// Resolver decides which physical display a brightness command targets.
// Its only side effect is refreshing the cached built-in display ID.
type Resolver struct {
	mu      sync.Mutex
	enum    Enumerator
	pointer PointerLocator
	focus   FocusTracker
	mode    Mode

	// builtinID caches the last known built-in display, re-validated on
	// every builtin-mode resolution.
	builtinID ID
}

// NewResolver creates a Resolver over the given enumerator.
func NewResolver(enum Enumerator, cfg ResolverConfig) *Resolver {
	return &Resolver{
		enum:    enum,
		pointer: cfg.Pointer,
		focus:   cfg.Focus,
		mode:    cfg.Mode,
	}
}

// Mode returns the current target selection mode.
func (r *Resolver) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetMode changes the target selection mode.
func (r *Resolver) SetMode(m Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = m
}

// Resolve picks the target display for a command. hint, when non-nil,
// names the display the caller wants (active mode only). Returns false
// when no suitable display is online.
func (r *Resolver) Resolve(hint *ID) (Target, bool) {
	r.mu.Lock()
	mode := r.mode
	r.mu.Unlock()

	switch mode {
	case ModeBuiltin:
		return r.resolveBuiltin()
	default:
		return r.resolveActive(hint)
	}
}

// resolveBuiltin re-validates the cached built-in ID against the current
// display set, re-discovering when it went stale.
func (r *Resolver) resolveBuiltin() (Target, bool) {
	displays, err := r.enum.Displays()
	if err != nil {
		return Target{}, false
	}

	r.mu.Lock()
	cached := r.builtinID
	r.mu.Unlock()

	var found *Info
	for i := range displays {
		if !displays[i].IsBuiltIn {
			continue
		}
		if displays[i].ID == cached {
			found = &displays[i]
			break
		}
		if found == nil {
			found = &displays[i]
		}
	}
	if found == nil {
		return Target{}, false
	}

	r.mu.Lock()
	r.builtinID = found.ID
	r.mu.Unlock()

	return Target{ID: found.ID, IsBuiltIn: true}, true
}

func (r *Resolver) resolveActive(hint *ID) (Target, bool) {
	displays, err := r.enum.Displays()
	if err != nil || len(displays) == 0 {
		return Target{}, false
	}

	if hint != nil {
		for _, info := range displays {
			if info.ID == *hint {
				return info.Target(), true
			}
		}
	}

	if r.pointer != nil {
		if info, ok := r.pointer.PointerDisplay(); ok {
			if online, ok := findByID(displays, info.ID); ok {
				return online.Target(), true
			}
		}
	}

	if r.focus != nil {
		if info, ok := r.focus.FocusedDisplay(); ok {
			if online, ok := findByID(displays, info.ID); ok {
				return online.Target(), true
			}
		}
	}

	return displays[0].Target(), true
}

func findByID(displays []Info, id ID) (Info, bool) {
	for _, info := range displays {
		if info.ID == id {
			return info, true
		}
	}
	return Info{}, false
}
