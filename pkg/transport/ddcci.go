package transport

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumen-hal/lumen-go/pkg/log"
	"github.com/lumen-hal/lumen-go/pkg/vcp"
)

// DDC/CI timing and retry budget. Per-attempt cost stays in the tens of
// milliseconds; a full failed read costs under 150ms.
const (
	// settleDelay is the bus settle time between request and reply.
	settleDelay = 10 * time.Millisecond

	// retryBackoff is the sleep after a failed read attempt.
	retryBackoff = 20 * time.Millisecond

	// readAttempts is the total read budget across both reply
	// transaction types.
	readAttempts = 4

	// writeCycles is the number of redundant write transmissions.
	// One completed cycle counts as success.
	writeCycles = 2
)

// ddcExchange runs DDC/CI request/reply pairs over a Bus and caches the
// last good register state. Both bus-based transports embed it.
type ddcExchange struct {
	bus       Bus
	displayID uint32
	transport string
	logger    log.Logger

	// sleep is swapped out by tests to avoid real delays.
	sleep func(time.Duration)

	cachedMax     uint16
	cachedCurrent uint16
	haveCache     bool
}

func newDDCExchange(bus Bus, displayID uint32, transport string, logger log.Logger) *ddcExchange {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &ddcExchange{
		bus:       bus,
		displayID: displayID,
		transport: transport,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// readFeature runs the full retry-capable read sequence for one VCP
// feature. The first half of the attempt budget uses the combined
// transaction type, the second half the plain fallback.
func (e *ddcExchange) readFeature(code vcp.Code) (vcp.Feature, error) {
	txn := uuid.NewString()
	request := vcp.BuildGetVCPRequest(code)

	var lastErr error
	for attempt := 0; attempt < readAttempts; attempt++ {
		if attempt > 0 {
			e.sleep(retryBackoff)
		}

		mode := ReadModeCombined
		if attempt >= readAttempts/2 {
			mode = ReadModePlain
		}

		feature, err := e.attemptRead(txn, code, request, mode)
		if err != nil {
			lastErr = err
			e.logError(txn, log.LayerBus, err,
				fmt.Sprintf("read attempt %d/%d (%s)", attempt+1, readAttempts, mode))
			continue
		}

		e.cachedMax = feature.Max
		e.cachedCurrent = feature.Current
		e.haveCache = true
		e.logSample(txn, log.DirectionIn, feature, false)
		return feature, nil
	}
	return vcp.Feature{}, lastErr
}

// attemptRead is one request/reply pair: write, settle, read, validate.
// Checksum mismatches and short replies come back as plain errors; the
// caller treats them like any other failed attempt.
func (e *ddcExchange) attemptRead(txn string, code vcp.Code, request []byte, mode ReadMode) (vcp.Feature, error) {
	if err := e.bus.Write(request); err != nil {
		return vcp.Feature{}, fmt.Errorf("write request: %w", err)
	}
	e.logFrame(txn, log.DirectionOut, request)

	e.sleep(settleDelay)

	reply := make([]byte, vcp.GetVCPReplyLength)
	if err := e.bus.Read(mode, reply); err != nil {
		return vcp.Feature{}, fmt.Errorf("read reply: %w", err)
	}
	e.logFrame(txn, log.DirectionIn, reply)

	feature, err := vcp.ParseGetVCPReply(code, reply)
	if err != nil {
		return vcp.Feature{}, err
	}
	return feature, nil
}

// writeFeature runs the write sequence: re-read max, compute the raw
// target, transmit redundantly, update the cache optimistically.
func (e *ddcExchange) writeFeature(code vcp.Code, value float64) bool {
	txn := uuid.NewString()
	value = vcp.Clamp(value)

	// A stale max would scale the write wrongly; prefer a fresh read and
	// fall back to the cache only when the bus is too noisy right now.
	max := e.cachedMax
	if feature, err := e.readFeature(code); err == nil {
		max = feature.Max
	}
	if max == 0 {
		e.logError(txn, log.LayerCodec, vcp.ErrZeroMaximum, "no usable maximum for write")
		return false
	}

	feature := vcp.Feature{Code: code, Max: max}
	raw := feature.Raw(value)
	command := vcp.BuildSetVCPCommand(code, raw)

	// DDC/CI writes are unacknowledged. Transmit twice to tolerate a
	// dropped frame; one completed transport call counts as success.
	ok := false
	for cycle := 0; cycle < writeCycles; cycle++ {
		if cycle > 0 {
			e.sleep(settleDelay)
		}
		if err := e.bus.Write(command); err != nil {
			e.logError(txn, log.LayerBus, err,
				fmt.Sprintf("write cycle %d/%d", cycle+1, writeCycles))
			continue
		}
		e.logFrame(txn, log.DirectionOut, command)
		ok = true
	}

	if ok {
		e.cachedMax = max
		e.cachedCurrent = raw
		e.haveCache = true
		e.logSample(txn, log.DirectionOut, vcp.Feature{Code: code, Max: max, Current: raw}, false)
	}
	return ok
}

// readNormalized answers the transport Read contract: fresh value when
// the bus cooperates, last-known value otherwise.
func (e *ddcExchange) readNormalized(code vcp.Code) (float64, bool) {
	if feature, err := e.readFeature(code); err == nil {
		return feature.Normalized(), true
	}
	if e.haveCache {
		cached := vcp.Feature{Code: code, Max: e.cachedMax, Current: e.cachedCurrent}
		e.logSample("", log.DirectionIn, cached, true)
		return cached.Normalized(), true
	}
	return 0, false
}

func (e *ddcExchange) logFrame(txn string, dir log.Direction, data []byte) {
	e.logger.Log(log.Event{
		Timestamp:     time.Now(),
		TransactionID: txn,
		Direction:     dir,
		Layer:         log.LayerBus,
		Category:      log.CategoryFrame,
		DisplayID:     e.displayID,
		Transport:     e.transport,
		Frame:         log.NewFrameEvent(data),
	})
}

func (e *ddcExchange) logSample(txn string, dir log.Direction, feature vcp.Feature, cached bool) {
	e.logger.Log(log.Event{
		Timestamp:     time.Now(),
		TransactionID: txn,
		Direction:     dir,
		Layer:         log.LayerCodec,
		Category:      log.CategorySample,
		DisplayID:     e.displayID,
		Transport:     e.transport,
		Sample: &log.SampleEvent{
			Value:  feature.Normalized(),
			Raw:    feature.Current,
			Max:    feature.Max,
			Cached: cached,
		},
	})
}

func (e *ddcExchange) logError(txn string, layer log.Layer, err error, context string) {
	e.logger.Log(log.Event{
		Timestamp:     time.Now(),
		TransactionID: txn,
		Direction:     log.DirectionIn,
		Layer:         layer,
		Category:      log.CategoryError,
		DisplayID:     e.displayID,
		Transport:     e.transport,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
		},
	})
}
