// Package vcp implements the DDC/CI packet codec for VCP feature access.
//
// DDC/CI (Display Data Channel - Command Interface) carries monitor control
// commands over the display cable's auxiliary I2C bus. Each monitor setting
// is addressed by a VCP (Virtual Control Panel) code; brightness is 0x10.
//
// # Packet Layout
//
//	┌──────────────────────────────────┐
//	│   VCP feature request / reply    │
//	├──────────────────────────────────┤
//	│   DDC/CI envelope + checksum     │
//	├──────────────────────────────────┤
//	│   I2C bus (or vendor service)    │
//	└──────────────────────────────────┘
//
// A Get VCP Feature request is 5 bytes:
//
//	[0x51, 0x82, 0x01, code, checksum]
//
// where 0x51 is the host source byte, 0x82 is the length byte (0x80 | 2
// payload bytes), 0x01 is the Get VCP opcode, and the checksum is the
// display write address XORed over the preceding bytes.
//
// A Set VCP Feature command is 7 bytes:
//
//	[0x51, 0x84, 0x03, code, hi, lo, checksum]
//
// The 11-byte reply carries the feature's maximum and current values as
// big-endian 16-bit words, protected by an XOR checksum seeded with 0x50.
//
// The codec is pure: it builds and validates packets but performs no I/O.
// Bus access lives in package transport.
package vcp
