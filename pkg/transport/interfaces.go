package transport

import "errors"

// Transport errors.
var (
	// ErrUnsupported indicates the transport cannot control its display.
	ErrUnsupported = errors.New("transport not supported")

	// ErrBusClosed indicates I/O on a closed bus.
	ErrBusClosed = errors.New("bus closed")

	// ErrNoBus indicates no DDC-capable bus exists for the display.
	ErrNoBus = errors.New("no DDC bus for display")
)

// Transport reads and writes one display's brightness register through
// a specific hardware path. Implementations are not safe for concurrent
// use; the orchestrator serializes all hardware calls.
type Transport interface {
	// Name identifies the transport kind ("native", "i2c", "avservice").
	Name() string

	// IsSupported probes whether the transport can control its display.
	// Used once at bind time by the registry; may perform bus traffic.
	IsSupported() bool

	// Read returns the current normalized brightness. A fresh read that
	// fails may be answered from the last-known cache; false means no
	// value is available at all.
	Read() (float64, bool)

	// Write sets the normalized brightness. Success means the transport
	// call completed, not that the display applied the value.
	Write(value float64) bool

	// Close releases the underlying bus or handle.
	Close() error
}

// ReadMode selects the reply transaction type for a DDC/CI read.
type ReadMode uint8

const (
	// ReadModeCombined issues a combined write/read transfer addressing
	// the reply sub-address in one transaction. Preferred; some host
	// adapters reject it.
	ReadModeCombined ReadMode = iota

	// ReadModePlain issues a bare read. Fallback for adapters without
	// combined-transfer support.
	ReadModePlain
)

// String returns the read mode name.
func (m ReadMode) String() string {
	switch m {
	case ReadModeCombined:
		return "COMBINED"
	case ReadModePlain:
		return "PLAIN"
	default:
		return "UNKNOWN"
	}
}

// Bus is one DDC-capable channel to a display, used exclusively for the
// duration of one request/reply pair.
type Bus interface {
	// Write sends a DDC/CI frame to the display's write address.
	Write(data []byte) error

	// Read fills buf with a reply from the display's read address using
	// the given transaction type.
	Read(mode ReadMode, buf []byte) error

	// Close releases the bus.
	Close() error
}
