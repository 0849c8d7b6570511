// Package registry discovers and caches the best available transport
// per physical display.
//
// Discovery runs in strict priority order and stops at the first
// transport whose probe succeeds: native parameter, raw I2C, vendor
// AV service. The winning transport is cached per display; a cache hit
// never re-probes. The cache is pruned on every display-configuration
// change and never holds an entry for the built-in panel, whose
// brightness goes through pkg/backlight instead.
package registry

import (
	"sync"
	"time"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
	"github.com/lumen-hal/lumen-go/pkg/transport"
)

// Factory constructs one candidate transport for a display. Factories
// are tried in slice order; the first supported one wins.
type Factory func(info display.Info) transport.Transport

// DefaultFactories returns the production probe chain in priority order.
func DefaultFactories(logger log.Logger) []Factory {
	paramAPI := transport.NewSysfsParameterAPI()
	busOpener := transport.NewSysfsBusOpener()
	return []Factory{
		func(info display.Info) transport.Transport {
			return transport.NewNativeParameterTransport(info, paramAPI, logger)
		},
		func(info display.Info) transport.Transport {
			return transport.NewI2CTransport(info, busOpener, logger)
		},
		func(info display.Info) transport.Transport {
			return transport.NewAVServiceTransport(info, logger)
		},
	}
}

// Registry owns the display-to-transport cache.
//
// The cache lock covers only map access; probing runs outside it. The
// orchestrator serializes hardware calls, so at most one probe is in
// flight at a time anyway; the lock exists because reconfiguration
// notifications race with on-demand discovery from the polling loop.
type Registry struct {
	mu        sync.Mutex
	factories []Factory
	cache     map[display.ID]transport.Transport
	logger    log.Logger
}

// NewRegistry creates a registry probing with the given factories.
func NewRegistry(factories []Factory, logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Registry{
		factories: factories,
		cache:     make(map[display.ID]transport.Transport),
		logger:    logger,
	}
}

// Transport returns the bound transport for a display, probing and
// binding on first use. Returns false for the built-in panel and for
// displays no transport can control.
func (r *Registry) Transport(info display.Info) (transport.Transport, bool) {
	// The built-in panel never binds a DDC transport.
	if info.IsBuiltIn {
		return nil, false
	}

	r.mu.Lock()
	if tr, ok := r.cache[info.ID]; ok {
		r.mu.Unlock()
		return tr, true
	}
	r.mu.Unlock()

	for _, factory := range r.factories {
		tr := factory(info)
		if !tr.IsSupported() {
			tr.Close()
			continue
		}

		r.mu.Lock()
		// A racing probe may have bound meanwhile; keep the first.
		if existing, ok := r.cache[info.ID]; ok {
			r.mu.Unlock()
			tr.Close()
			return existing, true
		}
		r.cache[info.ID] = tr
		r.mu.Unlock()

		r.logBinding(uint32(info.ID), "", tr.Name(), "probe succeeded")
		return tr, true
	}
	return nil, false
}

// HandleDisplaysChanged prunes cache entries for displays no longer in
// the connected set. Surviving entries are kept as-is; re-probing for
// new displays happens lazily on next use.
func (r *Registry) HandleDisplaysChanged(connected []display.Info) {
	online := make(map[display.ID]bool, len(connected))
	for _, info := range connected {
		online[info.ID] = true
	}

	r.mu.Lock()
	var evicted []transport.Transport
	for id, tr := range r.cache {
		if online[id] {
			continue
		}
		delete(r.cache, id)
		evicted = append(evicted, tr)
		r.logBinding(uint32(id), tr.Name(), "", "display disconnected")
	}
	r.mu.Unlock()

	for _, tr := range evicted {
		tr.Close()
	}
}

// Close releases every bound transport.
func (r *Registry) Close() error {
	r.mu.Lock()
	cache := r.cache
	r.cache = make(map[display.ID]transport.Transport)
	r.mu.Unlock()

	for _, tr := range cache {
		tr.Close()
	}
	return nil
}

func (r *Registry) logBinding(id uint32, oldState, newState, reason string) {
	r.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		DisplayID: id,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityTransport,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
