// Package log provides structured event logging for the brightness engine.
//
// Every hardware interaction (DDC/CI bus frames, brightness samples,
// transport and service state changes, errors) is captured as an Event.
// Applications choose where events go by supplying a Logger:
//
//   - NoopLogger: discard everything (the default)
//   - FileLogger: append CBOR-encoded events to a trace file
//   - SlogAdapter: mirror events into a standard library slog.Logger
//   - MultiLogger: fan out to several loggers at once
//
// Trace files written by FileLogger can be read back with Reader, filtered
// by display, layer, direction or time range.
//
// Logging must never disrupt brightness control: implementations swallow
// their own errors and Log is expected to return quickly.
package log
