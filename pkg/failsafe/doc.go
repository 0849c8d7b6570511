// Package failsafe tracks the health of the brightness subsystem for
// one session.
//
// The engine starts Supported when the first built-in read succeeds and
// Unsupported otherwise. Two transitions exist after that:
//
//   - Unsupported -> Supported: one lazy re-init attempt is allowed
//     within a short grace window after process start, covering display
//     enumeration races around boot and wake. After the window closes
//     or the one attempt is spent, the session stays Unsupported.
//   - Supported -> Unsupported: the polling loop reports read outcomes;
//     once consecutive failures exceed a fixed threshold the subsystem
//     demotes itself for the rest of the session. Demotion is final and
//     never surfaces as an error to the user.
//
// The monitor only tracks state and counters; stopping the poll loop
// and tearing down transports is the orchestrator's job, driven by the
// demotion callback.
package failsafe
