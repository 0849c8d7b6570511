// Package display models physical displays and decides which one a
// brightness command targets.
//
// A display is identified by an opaque ID derived from its DRM connector
// name; the ID is stable across reconnects of the same connector but is
// never persisted. Enumeration is abstracted behind the Enumerator
// interface; SysfsEnumerator implements it on Linux by scanning
// /sys/class/drm connector state.
//
// The Resolver picks the target display for a command:
//
//   - ModeBuiltin: the built-in panel, re-validated on every call.
//     Resolution fails when no built-in panel is online (clamshell or
//     external-only setups).
//   - ModeActive: an explicit hint from the caller, else the display under
//     the pointer, else the focused display, else the first enumerated one.
//
// Configuration changes (connect/disconnect, resolution changes) are
// delivered by Notifier, which listens for kernel drm uevents, and by
// WakeMonitor, which reports resume-from-sleep via logind so callers can
// re-discover hardware that changed while asleep.
package display
