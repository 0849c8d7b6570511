package log

import (
	"time"
)

// Event represents a brightness engine log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// TransactionID groups the events of one hardware request (UUID).
	TransactionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates data flow relative to the host.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// DisplayID identifies the display the event concerns (0 if none).
	DisplayID uint32 `cbor:"6,keyasint,omitempty"`

	// Transport names the path used (e.g. "native", "i2c", "avservice",
	// "builtin", "overlay").
	Transport string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"8,keyasint,omitempty"`  // Raw bus frames
	Sample      *SampleEvent      `cbor:"9,keyasint,omitempty"`  // Brightness values
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"` // Lifecycle
	Error       *ErrorEventData   `cbor:"11,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the display.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to the display.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which engine layer captured the event.
type Layer uint8

const (
	// LayerBus is the raw bus layer (I2C transactions, service calls).
	LayerBus Layer = 0
	// LayerCodec is the DDC/CI packet layer (validated frames).
	LayerCodec Layer = 1
	// LayerService is the orchestration layer (polling, routing).
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerBus:
		return "BUS"
	case LayerCodec:
		return "CODEC"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a raw bus frame.
	CategoryFrame Category = 0
	// CategorySample indicates a brightness value read or written.
	CategorySample Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategorySample:
		return "SAMPLE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MaxLogFrameDataSize is the maximum frame data size to include in events.
// DDC/CI frames are tiny; anything larger is truncated defensively.
const MaxLogFrameDataSize = 64

// FrameEvent captures raw frame bytes at the bus layer.
type FrameEvent struct {
	// Size is the full frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent builds a FrameEvent from raw bytes, truncating large frames.
func NewFrameEvent(data []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(data), Data: data}
	if len(data) > MaxLogFrameDataSize {
		fe.Data = data[:MaxLogFrameDataSize]
		fe.Truncated = true
	}
	return fe
}

// SampleEvent captures a brightness value crossing the engine.
type SampleEvent struct {
	// Value is the normalized brightness in [0,1].
	Value float64 `cbor:"1,keyasint"`

	// Raw is the display's raw register value (if known).
	Raw uint16 `cbor:"2,keyasint,omitempty"`

	// Max is the display's raw maximum (if known).
	Max uint16 `cbor:"3,keyasint,omitempty"`

	// Cached indicates the value came from the last-known cache rather
	// than a fresh hardware read.
	Cached bool `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures transport, overlay and service lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityService indicates a service state change.
	StateEntityService StateEntity = 0
	// StateEntityTransport indicates a transport binding change.
	StateEntityTransport StateEntity = 1
	// StateEntityOverlay indicates an overlay surface change.
	StateEntityOverlay StateEntity = 2
	// StateEntityDisplay indicates a display connect/disconnect.
	StateEntityDisplay StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityService:
		return "SERVICE"
	case StateEntityTransport:
		return "TRANSPORT"
	case StateEntityOverlay:
		return "OVERLAY"
	case StateEntityDisplay:
		return "DISPLAY"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures error details at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context provides additional context (e.g. "read attempt 2/4").
	Context string `cbor:"3,keyasint,omitempty"`
}
