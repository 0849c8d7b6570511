// Package overlay simulates brightness for displays no hardware
// transport can control, by compositing a translucent black layer over
// the whole display.
//
// The dim strength follows a perceptual gamma curve so mid-range
// brightness changes feel linear to the eye. An overlay surface exists
// only while a non-1.0 brightness is requested for an uncontrollable
// display; at full brightness the surface is torn down entirely rather
// than left transparent.
package overlay

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
)

// Dimming curve parameters.
const (
	// MaxDimAlpha bounds the overlay opacity; full black would make the
	// display unusable and unrecoverable by eye.
	MaxDimAlpha = 0.88

	// alphaGamma is the perceptual exponent of the dimming curve.
	alphaGamma = 0.8

	// teardownAlpha is the opacity below which the surface is destroyed
	// instead of kept invisible.
	teardownAlpha = 0.001
)

// AlphaFor converts a normalized brightness into an overlay opacity.
// Monotonically non-increasing in v; exactly 0 at v = 1.
func AlphaFor(v float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	v = math.Min(math.Max(v, 0), 1)
	return math.Pow(1-v, alphaGamma) * MaxDimAlpha
}

// Surface is one borderless, click-through, always-on-top window
// covering a display.
type Surface interface {
	// SetAlpha updates the opacity of the black layer.
	SetAlpha(alpha float64)

	// SetFrame resizes/moves the surface to a display frame.
	SetFrame(frame display.Rect)

	// Close destroys the window.
	Close() error
}

// Compositor creates overlay surfaces. The production implementation
// lives in this package (gio.go); tests substitute a fake.
type Compositor interface {
	CreateSurface(info display.Info) (Surface, error)
}

// Manager owns the per-display brightness overrides and their surfaces.
// Safe for concurrent use; display-reconfiguration notifications race
// with writes from the polling loop.
type Manager struct {
	mu         sync.Mutex
	compositor Compositor
	logger     log.Logger
	overrides  map[display.ID]float64
	surfaces   map[display.ID]Surface
	known      map[display.ID]display.Info
}

// NewManager creates an overlay manager over the given compositor.
func NewManager(compositor Compositor, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Manager{
		compositor: compositor,
		logger:     logger,
		overrides:  make(map[display.ID]float64),
		surfaces:   make(map[display.ID]Surface),
		known:      make(map[display.ID]display.Info),
	}
}

// SetBrightness applies a simulated brightness to a display. At full
// brightness the override and its surface are dropped.
func (m *Manager) SetBrightness(value float64, info display.Info) error {
	if math.IsNaN(value) {
		value = 0
	}
	value = math.Min(math.Max(value, 0), 1)
	alpha := AlphaFor(value)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.known[info.ID] = info

	if alpha <= teardownAlpha {
		m.dropLocked(info.ID, "brightness restored")
		return nil
	}

	m.overrides[info.ID] = value

	surface, ok := m.surfaces[info.ID]
	if !ok {
		created, err := m.compositor.CreateSurface(info)
		if err != nil {
			delete(m.overrides, info.ID)
			return fmt.Errorf("create overlay surface: %w", err)
		}
		m.surfaces[info.ID] = created
		surface = created
		m.logState(uint32(info.ID), "", "dimming", "no hardware transport")
	}
	surface.SetAlpha(alpha)
	return nil
}

// ClearOverride removes the override and surface for a display.
func (m *Manager) ClearOverride(id display.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(id, "override cleared")
}

// Brightness returns the simulated brightness for a display, 1.0 when
// no override is set.
func (m *Manager) Brightness(id display.ID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.overrides[id]; ok {
		return v
	}
	return 1.0
}

// HandleDisplaysChanged prunes overrides and surfaces for disconnected
// displays and reapplies surviving overlays, covering resolution and
// position changes.
func (m *Manager) HandleDisplaysChanged(connected []display.Info) {
	online := make(map[display.ID]display.Info, len(connected))
	for _, info := range connected {
		online[info.ID] = info
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id := range m.overrides {
		info, ok := online[id]
		if !ok {
			m.dropLocked(id, "display disconnected")
			continue
		}
		m.known[id] = info
		if surface, ok := m.surfaces[id]; ok {
			surface.SetFrame(info.Frame)
			surface.SetAlpha(AlphaFor(m.overrides[id]))
		}
	}
	for id := range m.known {
		if _, ok := online[id]; !ok {
			delete(m.known, id)
		}
	}
}

// Close tears down every overlay surface.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.surfaces {
		m.dropLocked(id, "shutdown")
	}
	return nil
}

// dropLocked removes one display's override and surface. Caller holds
// the lock.
func (m *Manager) dropLocked(id display.ID, reason string) {
	delete(m.overrides, id)
	if surface, ok := m.surfaces[id]; ok {
		delete(m.surfaces, id)
		surface.Close()
		m.logState(uint32(id), "dimming", "clear", reason)
	}
}

func (m *Manager) logState(id uint32, oldState, newState, reason string) {
	m.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		DisplayID: id,
		Transport: "overlay",
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityOverlay,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
