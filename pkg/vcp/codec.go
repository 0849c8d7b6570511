package vcp

import (
	"errors"
	"fmt"
)

// DDC/CI bus addressing constants.
const (
	// BusAddress is the 7-bit I2C address of the DDC/CI slave.
	BusAddress = 0x37

	// WriteAddress is the 8-bit display write address (BusAddress << 1).
	// It seeds the checksum of host-to-display packets.
	WriteAddress = 0x6E

	// ReadAddress is the 8-bit display read address.
	ReadAddress = 0x6F

	// HostAddress is the host source byte prefixed to every request.
	// It doubles as the reply sub-address on combined bus transactions.
	HostAddress = 0x51

	// ReplySeed seeds the checksum of display-to-host replies (host
	// destination address 0x50).
	ReplySeed = 0x50
)

// Packet framing constants.
const (
	// OpGetVCP is the Get VCP Feature opcode.
	OpGetVCP = 0x01

	// OpGetVCPReply is the Get VCP Feature reply opcode.
	OpGetVCPReply = 0x02

	// OpSetVCP is the Set VCP Feature opcode.
	OpSetVCP = 0x03

	// LengthFlag is OR-ed into the length byte of every DDC/CI packet.
	LengthFlag = 0x80

	// GetVCPRequestLength is the size of a Get VCP Feature request.
	GetVCPRequestLength = 5

	// SetVCPCommandLength is the size of a Set VCP Feature command.
	SetVCPCommandLength = 7

	// GetVCPReplyLength is the size of a Get VCP Feature reply.
	GetVCPReplyLength = 11
)

// Codec errors.
var (
	// ErrReplyLength indicates a reply with an unexpected byte count.
	ErrReplyLength = errors.New("vcp reply has wrong length")

	// ErrReplyOpcode indicates the reply is not a Get VCP Feature reply.
	ErrReplyOpcode = errors.New("vcp reply opcode mismatch")

	// ErrFeatureUnsupported indicates the display rejected the VCP code.
	ErrFeatureUnsupported = errors.New("vcp feature unsupported by display")

	// ErrChecksumMismatch indicates the reply checksum does not match.
	// Indistinguishable from bus noise; callers retry rather than abort.
	ErrChecksumMismatch = errors.New("vcp reply checksum mismatch")

	// ErrCodeMismatch indicates the reply echoes a different VCP code.
	ErrCodeMismatch = errors.New("vcp reply echoes wrong feature code")

	// ErrZeroMaximum indicates the display reported a zero maximum value.
	ErrZeroMaximum = errors.New("vcp feature maximum is zero")
)

// Code identifies a VCP feature.
type Code byte

// Well-known VCP codes.
const (
	// CodeBrightness is the luminance feature.
	CodeBrightness Code = 0x10

	// CodeContrast is the contrast feature.
	CodeContrast Code = 0x12

	// CodePowerMode is the DPM power mode feature.
	CodePowerMode Code = 0xD6
)

// String returns the feature name.
func (c Code) String() string {
	switch c {
	case CodeBrightness:
		return "BRIGHTNESS"
	case CodeContrast:
		return "CONTRAST"
	case CodePowerMode:
		return "POWER_MODE"
	default:
		return fmt.Sprintf("VCP_0x%02X", byte(c))
	}
}

// Checksum computes the DDC/CI XOR checksum over data, seeded with the
// destination address byte.
func Checksum(seed byte, data []byte) byte {
	c := seed
	for _, b := range data {
		c ^= b
	}
	return c
}

// BuildGetVCPRequest builds a 5-byte Get VCP Feature request for code.
func BuildGetVCPRequest(code Code) []byte {
	pkt := []byte{
		HostAddress,
		LengthFlag | 0x02,
		OpGetVCP,
		byte(code),
		0,
	}
	pkt[4] = Checksum(WriteAddress, pkt[:4])
	return pkt
}

// BuildSetVCPCommand builds a 7-byte Set VCP Feature command setting code
// to the raw value.
func BuildSetVCPCommand(code Code, value uint16) []byte {
	pkt := []byte{
		HostAddress,
		LengthFlag | 0x04,
		OpSetVCP,
		byte(code),
		byte(value >> 8),
		byte(value),
		0,
	}
	pkt[6] = Checksum(WriteAddress, pkt[:6])
	return pkt
}

// ParseGetVCPReply validates an 11-byte Get VCP Feature reply for code and
// extracts the feature values.
//
// Validation order: length, checksum, opcode, result code, echoed feature
// code, non-zero maximum. A checksum failure is indistinguishable from bus
// noise and callers treat every error here as a retryable attempt failure.
func ParseGetVCPReply(code Code, reply []byte) (Feature, error) {
	if len(reply) != GetVCPReplyLength {
		return Feature{}, fmt.Errorf("%w: got %d bytes, want %d",
			ErrReplyLength, len(reply), GetVCPReplyLength)
	}
	if sum := Checksum(ReplySeed, reply[:10]); sum != reply[10] {
		return Feature{}, fmt.Errorf("%w: computed 0x%02X, reply carries 0x%02X",
			ErrChecksumMismatch, sum, reply[10])
	}
	if reply[2] != OpGetVCPReply {
		return Feature{}, fmt.Errorf("%w: got 0x%02X", ErrReplyOpcode, reply[2])
	}
	if reply[3] != 0x00 {
		return Feature{}, fmt.Errorf("%w: result code 0x%02X", ErrFeatureUnsupported, reply[3])
	}
	if Code(reply[4]) != code {
		return Feature{}, fmt.Errorf("%w: got 0x%02X, want 0x%02X",
			ErrCodeMismatch, reply[4], byte(code))
	}

	f := Feature{
		Code:    code,
		Max:     uint16(reply[6])<<8 | uint16(reply[7]),
		Current: uint16(reply[8])<<8 | uint16(reply[9]),
	}
	if f.Max == 0 {
		return Feature{}, ErrZeroMaximum
	}
	return f, nil
}
