package transport

import (
	"sync"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/log"
	"github.com/lumen-hal/lumen-go/pkg/vcp"
)

// AVService is a vendor service handle carrying DDC/CI when the
// connector exposes no raw I2C bus (typical for some chipset/cable
// combinations). The handle behaves like a Bus: one request/reply pair
// at a time.
type AVService = Bus

// AVServiceResolver binds a service handle for a display. ErrNoBus when
// the vendor path does not apply to this display.
type AVServiceResolver func(info display.Info) (AVService, error)

var (
	avResolverMu sync.RWMutex
	avResolver   AVServiceResolver
)

// RegisterAVServiceResolver installs the vendor service binding.
// Resolved once at startup by platform glue; when nothing is registered
// the AVService transport reports unsupported everywhere.
func RegisterAVServiceResolver(r AVServiceResolver) {
	avResolverMu.Lock()
	defer avResolverMu.Unlock()
	avResolver = r
}

func resolveAVService(info display.Info) (AVService, error) {
	avResolverMu.RLock()
	r := avResolver
	avResolverMu.RUnlock()
	if r == nil {
		return nil, ErrNoBus
	}
	return r(info)
}

// AVServiceTransport speaks DDC/CI over a vendor service handle. The
// framing, retry and caching discipline is the same as I2CTransport;
// only the underlying write/read primitive differs.
type AVServiceTransport struct {
	exchange  *ddcExchange
	info      display.Info
	logger    log.Logger
	supported bool

	// resolve is overridden by tests; defaults to the registered
	// package resolver.
	resolve AVServiceResolver
}

var _ Transport = (*AVServiceTransport)(nil)

// NewAVServiceTransport creates an AVService transport for one display.
// The service handle is bound lazily by IsSupported.
func NewAVServiceTransport(info display.Info, logger log.Logger) *AVServiceTransport {
	return &AVServiceTransport{info: info, logger: logger, resolve: resolveAVService}
}

// Name returns "avservice".
func (t *AVServiceTransport) Name() string { return "avservice" }

// IsSupported binds the service handle and probes it with one
// brightness read.
func (t *AVServiceTransport) IsSupported() bool {
	if t.supported {
		return true
	}
	service, err := t.resolve(t.info)
	if err != nil {
		return false
	}
	exchange := newDDCExchange(service, uint32(t.info.ID), t.Name(), t.logger)
	if _, err := exchange.readFeature(vcp.CodeBrightness); err != nil {
		service.Close()
		return false
	}
	t.exchange = exchange
	t.supported = true
	return true
}

// Read returns the normalized brightness.
func (t *AVServiceTransport) Read() (float64, bool) {
	if !t.supported {
		return 0, false
	}
	return t.exchange.readNormalized(vcp.CodeBrightness)
}

// Write sets the normalized brightness.
func (t *AVServiceTransport) Write(value float64) bool {
	if !t.supported {
		return false
	}
	return t.exchange.writeFeature(vcp.CodeBrightness, value)
}

// Close releases the service handle.
func (t *AVServiceTransport) Close() error {
	if t.exchange == nil {
		return nil
	}
	t.supported = false
	return t.exchange.bus.Close()
}
