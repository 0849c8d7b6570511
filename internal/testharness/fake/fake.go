// Package fake provides simulated hardware for tests and for the
// lumen-ctl simulate mode: a scripted DDC/CI bus, a display enumerator,
// an overlay compositor, a parameter API and a built-in panel.
//
// The fakes model healthy hardware by default; fault injection knobs
// (FailReads, FailWrites, Corrupt) script the failure scenarios the
// engine must survive.
package fake

import (
	"errors"
	"sync"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/overlay"
	"github.com/lumen-hal/lumen-go/pkg/transport"
	"github.com/lumen-hal/lumen-go/pkg/vcp"
)

// ErrInjected is the error returned by scripted fault injection.
var ErrInjected = errors.New("injected fault")

// Bus is a scripted DDC/CI bus backed by an in-memory register file.
type Bus struct {
	mu sync.Mutex

	// Features holds the simulated VCP register file.
	Features map[vcp.Code]*vcp.Feature

	// FailReads fails the next N read attempts.
	FailReads int

	// FailWrites fails the next N writes.
	FailWrites int

	// Corrupt flips a bit in every reply while set.
	Corrupt bool

	// Reads and Writes count bus transactions.
	Reads  int
	Writes int

	lastCode vcp.Code
	closed   bool
}

// NewBus creates a bus whose brightness register is max/current.
func NewBus(max, current uint16) *Bus {
	return &Bus{
		Features: map[vcp.Code]*vcp.Feature{
			vcp.CodeBrightness: {Code: vcp.CodeBrightness, Max: max, Current: current},
		},
	}
}

// Write accepts a DDC/CI frame, applying Set VCP commands to the
// register file.
func (b *Bus) Write(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return transport.ErrBusClosed
	}
	if b.FailWrites > 0 {
		b.FailWrites--
		return ErrInjected
	}
	b.Writes++

	if len(data) >= 4 {
		b.lastCode = vcp.Code(data[3])
	}
	if len(data) == vcp.SetVCPCommandLength && data[2] == vcp.OpSetVCP {
		if f, ok := b.Features[vcp.Code(data[3])]; ok {
			f.Current = uint16(data[4])<<8 | uint16(data[5])
		}
	}
	return nil
}

// Read serves a Get VCP Feature reply for the last requested code.
func (b *Bus) Read(mode transport.ReadMode, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return transport.ErrBusClosed
	}
	b.Reads++
	if b.FailReads > 0 {
		b.FailReads--
		return ErrInjected
	}

	f, ok := b.Features[b.lastCode]
	if !ok {
		// Unknown feature: the display answers with an error result.
		f = &vcp.Feature{Code: b.lastCode}
	}

	reply := []byte{
		vcp.WriteAddress,
		vcp.LengthFlag | 0x08,
		vcp.OpGetVCPReply,
		0x00,
		byte(f.Code),
		0x00,
		byte(f.Max >> 8), byte(f.Max),
		byte(f.Current >> 8), byte(f.Current),
		0,
	}
	if !ok {
		reply[3] = 0x01
	}
	reply[10] = vcp.Checksum(vcp.ReplySeed, reply[:10])
	if b.Corrupt {
		reply[8] ^= 0x40
	}
	copy(buf, reply)
	return nil
}

// Close marks the bus closed; further I/O fails.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

var _ transport.Bus = (*Bus)(nil)

// Enumerator serves a mutable display list.
type Enumerator struct {
	mu    sync.Mutex
	infos []display.Info
	err   error
}

// NewEnumerator creates an enumerator with an initial display set.
func NewEnumerator(infos ...display.Info) *Enumerator {
	return &Enumerator{infos: infos}
}

// Displays returns the current display set.
func (e *Enumerator) Displays() ([]display.Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([]display.Info, len(e.infos))
	copy(out, e.infos)
	return out, nil
}

// Set replaces the display set, simulating a reconfiguration.
func (e *Enumerator) Set(infos ...display.Info) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.infos = infos
}

// Fail makes enumeration return err (nil restores normal operation).
func (e *Enumerator) Fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

var _ display.Enumerator = (*Enumerator)(nil)

// Surface records the state of one simulated overlay window.
type Surface struct {
	mu     sync.Mutex
	alpha  float64
	frame  display.Rect
	closed bool
}

// Alpha returns the last applied opacity.
func (s *Surface) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Closed reports whether the surface was torn down.
func (s *Surface) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SetAlpha records the opacity.
func (s *Surface) SetAlpha(alpha float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alpha = alpha
}

// SetFrame records the frame.
func (s *Surface) SetFrame(frame display.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
}

// Close marks the surface torn down.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ overlay.Surface = (*Surface)(nil)

// Compositor creates fake surfaces and remembers them by display.
type Compositor struct {
	mu       sync.Mutex
	surfaces map[display.ID]*Surface
}

// NewCompositor creates an empty compositor.
func NewCompositor() *Compositor {
	return &Compositor{surfaces: make(map[display.ID]*Surface)}
}

// CreateSurface hands out a new fake surface.
func (c *Compositor) CreateSurface(info display.Info) (overlay.Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &Surface{frame: info.Frame}
	c.surfaces[info.ID] = s
	return s, nil
}

// Surface returns the surface created for a display, if any.
func (c *Compositor) Surface(id display.ID) (*Surface, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.surfaces[id]
	return s, ok
}

var _ overlay.Compositor = (*Compositor)(nil)

// Builtin is a simulated built-in panel.
type Builtin struct {
	mu       sync.Mutex
	value    float64
	readErr  error
	writeErr error
}

// NewBuiltin creates a panel at the given normalized brightness.
func NewBuiltin(value float64) *Builtin {
	return &Builtin{value: value}
}

// Read returns the panel brightness.
func (b *Builtin) Read() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readErr != nil {
		return 0, b.readErr
	}
	return b.value, nil
}

// Write sets the panel brightness.
func (b *Builtin) Write(value float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.value = value
	return nil
}

// FailReads makes Read return err (nil restores normal operation).
func (b *Builtin) FailReads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr = err
}

// FailWrites makes Write return err (nil restores normal operation).
func (b *Builtin) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeErr = err
}

// ParameterAPI is an in-memory native parameter backend.
type ParameterAPI struct {
	mu     sync.Mutex
	values map[string]float64
	err    error
}

// NewParameterAPI creates an API exposing parameters for the given
// connectors at the given values.
func NewParameterAPI(values map[string]float64) *ParameterAPI {
	if values == nil {
		values = make(map[string]float64)
	}
	return &ParameterAPI{values: values}
}

// Supported reports whether the connector has a parameter.
func (a *ParameterAPI) Supported(connector string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.values[connector]
	return ok
}

// ReadParameter returns the connector's value.
func (a *ParameterAPI) ReadParameter(connector string) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return 0, a.err
	}
	v, ok := a.values[connector]
	if !ok {
		return 0, transport.ErrNoParameter
	}
	return v, nil
}

// WriteParameter sets the connector's value.
func (a *ParameterAPI) WriteParameter(connector string, value float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.values[connector] = value
	return nil
}

// Fail makes parameter I/O return err (nil restores normal operation).
func (a *ParameterAPI) Fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

var _ transport.ParameterAPI = (*ParameterAPI)(nil)
