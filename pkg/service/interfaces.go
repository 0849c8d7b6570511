package service

import (
	"github.com/lumen-hal/lumen-go/pkg/backlight"
	"github.com/lumen-hal/lumen-go/pkg/compat"
	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/overlay"
	"github.com/lumen-hal/lumen-go/pkg/registry"
	"github.com/lumen-hal/lumen-go/pkg/transport"
)

// TargetResolver picks the display a command addresses. It is satisfied
// by *display.Resolver.
type TargetResolver interface {
	Resolve(hint *display.ID) (display.Target, bool)
	SetMode(mode display.Mode)
}

// Compile-time check: *display.Resolver implements TargetResolver.
var _ TargetResolver = (*display.Resolver)(nil)

// TransportRegistry binds and caches transports per display. It is
// satisfied by *registry.Registry.
type TransportRegistry interface {
	Transport(info display.Info) (transport.Transport, bool)
	HandleDisplaysChanged(connected []display.Info)
	Close() error
}

// Compile-time check: *registry.Registry implements TransportRegistry.
var _ TransportRegistry = (*registry.Registry)(nil)

// Overlay is the software dimming fallback. It is satisfied by
// *overlay.Manager.
type Overlay interface {
	SetBrightness(value float64, info display.Info) error
	ClearOverride(id display.ID)
	Brightness(id display.ID) float64
	HandleDisplaysChanged(connected []display.Info)
	Close() error
}

// Compile-time check: *overlay.Manager implements Overlay.
var _ Overlay = (*overlay.Manager)(nil)

// BuiltinPanel is the always-available built-in brightness path. It is
// satisfied by *backlight.Device.
type BuiltinPanel interface {
	Read() (float64, error)
	Write(value float64) error
}

// Compile-time check: *backlight.Device implements BuiltinPanel.
var _ BuiltinPanel = (*backlight.Device)(nil)

// AppDetector reports a running third-party brightness application.
// It is satisfied by *compat.Detector.
type AppDetector interface {
	RunningApp() (string, bool)
}

// Compile-time check: *compat.Detector implements AppDetector.
var _ AppDetector = (*compat.Detector)(nil)
