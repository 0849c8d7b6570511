// Package transport implements the hardware paths for reading and
// writing one display's brightness register.
//
// Three mutually-exclusive transports exist, probed in priority order by
// pkg/registry:
//
//  1. NativeParameterTransport: the kernel exposes the display's
//     brightness as a named parameter (ddcci-backlight); cheapest path.
//  2. I2CTransport: classic DDC/CI over the connector's /dev/i2c-N bus.
//  3. AVServiceTransport: a vendor service handle carrying DDC/CI when
//     no raw I2C bus is exposed for the connector.
//
// The two bus-based transports share one DDC/CI exchange engine that
// owns the retry discipline:
//
//	write request -> settle ~10ms -> read 11-byte reply -> validate
//
// A read is attempted up to four times across two reply transaction
// types (combined I2C transfer first, plain read as fallback), with a
// short backoff between attempts. Writes run two redundant cycles and
// succeed optimistically; DDC/CI gives no write acknowledgment. Both
// engines cache the last good (max, current) pair so a failed read
// after a prior success still answers with last-known data.
//
// Exactly one transport is bound per display at a time, and at most one
// transaction is in flight per transport. Callers serialize access; the
// engine does not add its own locking around bus I/O.
package transport
