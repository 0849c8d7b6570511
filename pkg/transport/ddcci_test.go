package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/lumen-hal/lumen-go/pkg/log"
	"github.com/lumen-hal/lumen-go/pkg/vcp"
)

// fakeBus serves scripted DDC/CI traffic and injects faults.
type fakeBus struct {
	max     uint16
	current uint16

	// failReads makes the next N read attempts fail.
	failReads int
	// failWrites makes the next N Set-command transmissions fail.
	// Request writes are unaffected so read and write faults can be
	// scripted independently.
	failWrites int
	// corrupt flips a reply bit on every read while set.
	corrupt bool
	// rejectCombined fails combined-mode reads, simulating an adapter
	// without combined-transfer support.
	rejectCombined bool

	writes   [][]byte
	reads    int
	lastCode vcp.Code
	closed   bool
	busErr   error
}

func newFakeBus(max, current uint16) *fakeBus {
	return &fakeBus{max: max, current: current, busErr: errors.New("bus noise")}
}

func (b *fakeBus) Write(data []byte) error {
	if b.closed {
		return ErrBusClosed
	}
	isSet := len(data) == vcp.SetVCPCommandLength && data[2] == vcp.OpSetVCP
	if isSet && b.failWrites > 0 {
		b.failWrites--
		return b.busErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.writes = append(b.writes, cp)

	// Track the requested feature and apply Set commands.
	if len(data) >= 4 {
		b.lastCode = vcp.Code(data[3])
	}
	if isSet {
		b.current = uint16(data[4])<<8 | uint16(data[5])
	}
	return nil
}

func (b *fakeBus) Read(mode ReadMode, buf []byte) error {
	if b.closed {
		return ErrBusClosed
	}
	b.reads++
	if b.rejectCombined && mode == ReadModeCombined {
		return b.busErr
	}
	if b.failReads > 0 {
		b.failReads--
		return b.busErr
	}

	reply := []byte{
		vcp.WriteAddress,
		vcp.LengthFlag | 0x08,
		vcp.OpGetVCPReply,
		0x00,
		byte(b.lastCode),
		0x00,
		byte(b.max >> 8), byte(b.max),
		byte(b.current >> 8), byte(b.current),
		0,
	}
	reply[10] = vcp.Checksum(vcp.ReplySeed, reply[:10])
	if b.corrupt {
		reply[8] ^= 0x40
	}
	copy(buf, reply)
	return nil
}

func (b *fakeBus) Close() error {
	b.closed = true
	return nil
}

// newTestExchange wires a fake bus to an exchange with sleeps disabled.
func newTestExchange(bus Bus) *ddcExchange {
	e := newDDCExchange(bus, 42, "i2c", log.NoopLogger{})
	e.sleep = func(time.Duration) {}
	return e
}

func TestReadFeatureHealthyBus(t *testing.T) {
	bus := newFakeBus(100, 37)
	e := newTestExchange(bus)

	f, err := e.readFeature(vcp.CodeBrightness)
	if err != nil {
		t.Fatalf("readFeature() error: %v", err)
	}
	if f.Max != 100 || f.Current != 37 {
		t.Errorf("feature = %+v, want max 100 current 37", f)
	}
	if bus.reads != 1 {
		t.Errorf("healthy read took %d attempts, want 1", bus.reads)
	}
}

func TestReadFeatureRetriesThenSucceeds(t *testing.T) {
	bus := newFakeBus(100, 50)
	bus.failReads = 2
	e := newTestExchange(bus)

	f, err := e.readFeature(vcp.CodeBrightness)
	if err != nil {
		t.Fatalf("readFeature() error after retries: %v", err)
	}
	if f.Current != 50 {
		t.Errorf("Current = %d, want 50", f.Current)
	}
	if bus.reads != 3 {
		t.Errorf("read attempts = %d, want 3", bus.reads)
	}
}

func TestReadFeatureFallsBackToPlainMode(t *testing.T) {
	bus := newFakeBus(100, 60)
	bus.rejectCombined = true
	e := newTestExchange(bus)

	f, err := e.readFeature(vcp.CodeBrightness)
	if err != nil {
		t.Fatalf("readFeature() error: %v", err)
	}
	if f.Current != 60 {
		t.Errorf("Current = %d, want 60", f.Current)
	}
	// Two combined attempts burn, the first plain attempt lands.
	if bus.reads != 3 {
		t.Errorf("read attempts = %d, want 3", bus.reads)
	}
}

func TestReadFeatureExhaustsBudget(t *testing.T) {
	bus := newFakeBus(100, 50)
	bus.failReads = readAttempts
	e := newTestExchange(bus)

	if _, err := e.readFeature(vcp.CodeBrightness); err == nil {
		t.Fatal("readFeature() succeeded with all attempts failing")
	}
	if bus.reads != readAttempts {
		t.Errorf("read attempts = %d, want %d", bus.reads, readAttempts)
	}
}

// Corrupted replies are retried like bus noise, never surfaced as a
// distinct failure class.
func TestReadFeatureCorruptionRetried(t *testing.T) {
	bus := newFakeBus(100, 50)
	bus.corrupt = true
	e := newTestExchange(bus)

	if _, err := e.readFeature(vcp.CodeBrightness); err == nil {
		t.Fatal("readFeature() accepted corrupted replies")
	}
	if bus.reads != readAttempts {
		t.Errorf("read attempts = %d, want full budget %d", bus.reads, readAttempts)
	}
}

func TestReadNormalizedCachedFallback(t *testing.T) {
	bus := newFakeBus(200, 100)
	e := newTestExchange(bus)

	v, ok := e.readNormalized(vcp.CodeBrightness)
	if !ok || v != 0.5 {
		t.Fatalf("fresh read = (%v, %v), want (0.5, true)", v, ok)
	}

	// The bus goes dark; the cached value still answers.
	bus.failReads = readAttempts
	v, ok = e.readNormalized(vcp.CodeBrightness)
	if !ok || v != 0.5 {
		t.Errorf("cached read = (%v, %v), want (0.5, true)", v, ok)
	}
}

func TestReadNormalizedNoCacheNoValue(t *testing.T) {
	bus := newFakeBus(100, 50)
	bus.failReads = readAttempts
	e := newTestExchange(bus)

	if _, ok := e.readNormalized(vcp.CodeBrightness); ok {
		t.Fatal("readNormalized() produced a value with no cache and a dead bus")
	}
}

func TestWriteFeatureHealthyBus(t *testing.T) {
	bus := newFakeBus(100, 20)
	e := newTestExchange(bus)

	if !e.writeFeature(vcp.CodeBrightness, 0.5) {
		t.Fatal("writeFeature() failed on a healthy bus")
	}
	if bus.current != 50 {
		t.Errorf("display register = %d, want 50", bus.current)
	}
	if e.cachedCurrent != 50 {
		t.Errorf("optimistic cache = %d, want 50", e.cachedCurrent)
	}
}

// A write followed by a read lands within one raw unit of the request.
func TestWriteThenReadPrecision(t *testing.T) {
	bus := newFakeBus(255, 0)
	e := newTestExchange(bus)

	for v := 0.0; v <= 1.0; v += 0.1 {
		if !e.writeFeature(vcp.CodeBrightness, v) {
			t.Fatalf("writeFeature(%v) failed", v)
		}
		got, ok := e.readNormalized(vcp.CodeBrightness)
		if !ok {
			t.Fatalf("readNormalized() failed after write(%v)", v)
		}
		diff := got - v
		if diff < 0 {
			diff = -diff
		}
		if diff > 1.0/255+1e-9 {
			t.Errorf("write(%v) read back %v, off by more than one raw unit", v, got)
		}
	}
}

// One completed write cycle out of two counts as success; DDC/CI never
// acknowledges writes.
func TestWriteFeaturePartialCycleSuccess(t *testing.T) {
	bus := newFakeBus(100, 20)
	e := newTestExchange(bus)

	// Prime the cache so the pre-write read is not needed.
	if _, err := e.readFeature(vcp.CodeBrightness); err != nil {
		t.Fatal(err)
	}

	bus.failReads = readAttempts // pre-write re-read fails, cache max used
	bus.failWrites = 1           // first cycle drops
	if !e.writeFeature(vcp.CodeBrightness, 0.8) {
		t.Fatal("writeFeature() failed with one surviving cycle")
	}
	if bus.current != 80 {
		t.Errorf("display register = %d, want 80", bus.current)
	}
}

func TestWriteFeatureNoMaximumFails(t *testing.T) {
	bus := newFakeBus(100, 20)
	bus.failReads = readAttempts
	e := newTestExchange(bus)

	if e.writeFeature(vcp.CodeBrightness, 0.5) {
		t.Fatal("writeFeature() succeeded with no max ever observed")
	}
}

func TestWriteFeatureAllCyclesFail(t *testing.T) {
	bus := newFakeBus(100, 20)
	e := newTestExchange(bus)
	if _, err := e.readFeature(vcp.CodeBrightness); err != nil {
		t.Fatal(err)
	}

	bus.failReads = readAttempts
	bus.failWrites = writeCycles
	if e.writeFeature(vcp.CodeBrightness, 0.5) {
		t.Fatal("writeFeature() succeeded with every cycle failing")
	}
	if bus.current != 20 {
		t.Errorf("display register = %d, want untouched 20", bus.current)
	}
	if e.cachedCurrent != 20 {
		t.Errorf("cache = %d, want untouched 20", e.cachedCurrent)
	}
}

func TestWriteFeatureClampsInput(t *testing.T) {
	bus := newFakeBus(100, 20)
	e := newTestExchange(bus)

	if !e.writeFeature(vcp.CodeBrightness, 1.7) {
		t.Fatal("writeFeature() failed")
	}
	if bus.current != 100 {
		t.Errorf("display register = %d, want clamped 100", bus.current)
	}
}
