// Package service provides the brightness orchestration façade.
//
// BrightnessService ties the lower-level components together:
//
//	command -> Resolver (pick display)
//	        -> Registry (pick/cache transport)  -> DDC transport
//	        -> backlight (built-in panel)
//	        -> Overlay (last-resort dimming)
//	        -> published State (consumed by the HUD layer)
//
// It owns the reconciliation loop: a ~2Hz poll samples hardware state
// and republishes it, bridging changes made by third-party brightness
// applications. All hardware I/O is serialized on one execution
// context; an overlapping poll tick is dropped, never queued.
//
// Session health follows pkg/failsafe: construction probes the built-in
// panel once, a single lazy re-init is allowed within a grace window
// after start, and a streak of failed polls demotes the subsystem to
// Unsupported for the rest of the session.
//
// Example usage:
//
//	svc := service.New(service.Config{}, service.Deps{
//		Resolver: resolver,
//		Registry: reg,
//		Overlay:  overlays,
//		Builtin:  panel,
//		Displays: enum,
//	})
//	svc.Start()
//	defer svc.Close()
//
//	svc.OnChange(func(st service.State) { hud.Show(st) })
//	svc.Increase(1, nil)
package service
