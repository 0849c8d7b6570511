package vcp

import (
	"errors"
	"testing"
)

// validReply builds a well-formed Get VCP Feature reply.
func validReply(code Code, max, current uint16) []byte {
	reply := []byte{
		WriteAddress,
		LengthFlag | 0x08,
		OpGetVCPReply,
		0x00,
		byte(code),
		0x00,
		byte(max >> 8), byte(max),
		byte(current >> 8), byte(current),
		0,
	}
	reply[10] = Checksum(ReplySeed, reply[:10])
	return reply
}

func TestBuildGetVCPRequest(t *testing.T) {
	pkt := BuildGetVCPRequest(CodeBrightness)

	want := []byte{0x51, 0x82, 0x01, 0x10, 0xAC}
	if len(pkt) != GetVCPRequestLength {
		t.Fatalf("request length = %d, want %d", len(pkt), GetVCPRequestLength)
	}
	for i := range want {
		if pkt[i] != want[i] {
			t.Errorf("pkt[%d] = 0x%02X, want 0x%02X", i, pkt[i], want[i])
		}
	}
}

func TestBuildSetVCPCommand(t *testing.T) {
	pkt := BuildSetVCPCommand(CodeBrightness, 0x1234)

	if len(pkt) != SetVCPCommandLength {
		t.Fatalf("command length = %d, want %d", len(pkt), SetVCPCommandLength)
	}
	if pkt[4] != 0x12 || pkt[5] != 0x34 {
		t.Errorf("value bytes = 0x%02X 0x%02X, want 0x12 0x34", pkt[4], pkt[5])
	}
	if sum := Checksum(WriteAddress, pkt[:6]); sum != pkt[6] {
		t.Errorf("checksum = 0x%02X, want 0x%02X", pkt[6], sum)
	}
}

func TestParseGetVCPReply(t *testing.T) {
	f, err := ParseGetVCPReply(CodeBrightness, validReply(CodeBrightness, 100, 62))
	if err != nil {
		t.Fatalf("ParseGetVCPReply failed: %v", err)
	}
	if f.Max != 100 {
		t.Errorf("Max = %d, want 100", f.Max)
	}
	if f.Current != 62 {
		t.Errorf("Current = %d, want 62", f.Current)
	}
}

func TestParseGetVCPReplyErrors(t *testing.T) {
	short := validReply(CodeBrightness, 100, 50)[:10]

	badResult := validReply(CodeBrightness, 100, 50)
	badResult[3] = 0x01
	badResult[10] = Checksum(ReplySeed, badResult[:10])

	badOpcode := validReply(CodeBrightness, 100, 50)
	badOpcode[2] = 0x03
	badOpcode[10] = Checksum(ReplySeed, badOpcode[:10])

	wrongCode := validReply(CodeContrast, 100, 50)

	zeroMax := validReply(CodeBrightness, 0, 0)

	tests := []struct {
		name    string
		reply   []byte
		wantErr error
	}{
		{"too short", short, ErrReplyLength},
		{"error result code", badResult, ErrFeatureUnsupported},
		{"wrong opcode", badOpcode, ErrReplyOpcode},
		{"wrong feature code", wrongCode, ErrCodeMismatch},
		{"zero maximum", zeroMax, ErrZeroMaximum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGetVCPReply(CodeBrightness, tt.reply)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// Any single-bit corruption of a valid reply must fail validation.
func TestParseGetVCPReplySingleBitCorruption(t *testing.T) {
	for i := 0; i < GetVCPReplyLength; i++ {
		for bit := 0; bit < 8; bit++ {
			reply := validReply(CodeBrightness, 100, 50)
			reply[i] ^= 1 << bit

			if _, err := ParseGetVCPReply(CodeBrightness, reply); err == nil {
				t.Errorf("corrupting byte %d bit %d passed validation", i, bit)
			}
		}
	}
}

func TestChecksumSelfInverse(t *testing.T) {
	pkt := BuildGetVCPRequest(CodeBrightness)

	// XOR over the whole packet including the checksum byte cancels to the seed.
	if got := Checksum(WriteAddress, pkt); got != 0 {
		t.Errorf("Checksum over full packet = 0x%02X, want 0", got)
	}
}
