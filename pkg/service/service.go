package service

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/failsafe"
	"github.com/lumen-hal/lumen-go/pkg/log"
)

// Config holds orchestrator settings. Zero values select the defaults.
type Config struct {
	// PollInterval is the reconciliation loop cadence.
	PollInterval time.Duration

	// GraceWindow bounds the lazy re-init after process start.
	GraceWindow time.Duration

	// FailureThreshold is the consecutive poll failures tolerated
	// before the session demotes itself.
	FailureThreshold int

	// CompatEnabled turns on bridging of third-party brightness apps.
	CompatEnabled bool

	// MinDimBrightness floors overlay dimming.
	MinDimBrightness float64
}

// Deps are the collaborators the orchestrator drives. Builtin and
// Detector may be nil; everything else is required.
type Deps struct {
	Resolver TargetResolver
	Registry TransportRegistry
	Overlay  Overlay
	Builtin  BuiltinPanel
	Displays display.Enumerator
	Detector AppDetector
	Logger   log.Logger
}

// BrightnessService is the orchestration façade. One instance exists
// per process, created at startup and closed at shutdown.
type BrightnessService struct {
	cfg      Config
	resolver TargetResolver
	registry TransportRegistry
	overlay  Overlay
	builtin  BuiltinPanel
	displays display.Enumerator
	detector AppDetector
	logger   log.Logger
	monitor  *failsafe.Monitor

	// hw serializes every hardware call; the native APIs and bus
	// transactions are not reentrant.
	hw sync.Mutex

	// inFlight drops overlapping poll ticks instead of queueing them.
	inFlight atomic.Bool

	mu         sync.Mutex
	published  State
	lastPolled float64
	handlers   []ChangeHandler
	polling    bool
	pollStop   chan struct{}
	closed     bool
}

// New creates the orchestrator. Call Start to probe hardware and begin
// polling.
func New(cfg Config, deps Deps) *BrightnessService {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	s := &BrightnessService{
		cfg:      cfg,
		resolver: deps.Resolver,
		registry: deps.Registry,
		overlay:  deps.Overlay,
		builtin:  deps.Builtin,
		displays: deps.Displays,
		detector: deps.Detector,
		logger:   logger,
	}
	s.published.Value = 1
	s.monitor = failsafe.NewMonitor(failsafe.StateUnsupported, failsafe.Config{
		GraceWindow:      cfg.GraceWindow,
		FailureThreshold: cfg.FailureThreshold,
	})
	s.monitor.OnStateChange(func(oldState, newState failsafe.State) {
		s.logState(oldState.String(), newState.String(), "")
	})
	s.monitor.OnDemote(func(failures int) {
		s.stopPolling()
		s.publishSupported(false)
	})
	return s
}

// Start probes the built-in panel. A successful read promotes the
// session to Supported and starts the polling loop; otherwise the
// session stays Unsupported pending one lazy re-init.
func (s *BrightnessService) Start() {
	value, id, ok := s.sampleBuiltin()
	if !ok {
		return
	}
	s.monitor.Promote()
	s.setLastPolled(value)
	s.publish(value, id, false)
	s.startPolling()
}

// AttemptReinitIfNeeded retries initialization once within the grace
// window after start. Covers display-enumeration races around
// boot/wake, e.g. a clamshell opened shortly after launch.
func (s *BrightnessService) AttemptReinitIfNeeded() bool {
	if !s.monitor.AllowReinit() {
		return false
	}
	value, id, ok := s.sampleBuiltin()
	if !ok {
		return false
	}
	s.monitor.Promote()
	s.setLastPolled(value)
	s.publish(value, id, false)
	s.startPolling()
	return true
}

// IsSupported reports whether brightness control is available.
func (s *BrightnessService) IsSupported() bool {
	return s.monitor.IsSupported()
}

// State returns the current published state.
func (s *BrightnessService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.published
	st.Supported = s.monitor.IsSupported()
	return st
}

// OnChange registers a handler for published state updates.
func (s *BrightnessService) OnChange(fn ChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// SetAbsolute sets the resolved display's brightness. On write failure
// the published state is refreshed from hardware instead of taking the
// unapplied value; published state reflects believed truth, not intent.
func (s *BrightnessService) SetAbsolute(value float64, hint *display.ID) bool {
	if math.IsNaN(value) {
		value = 0
	}
	value = math.Min(math.Max(value, 0), 1)

	target, ok := s.resolver.Resolve(hint)
	if !ok {
		return false
	}
	if !s.write(target, value) {
		s.refreshTarget(target)
		return false
	}
	s.setLastPolled(value)
	s.publish(value, target.ID, true)
	return true
}

// Increase raises brightness by one step scaled by stepDivisor.
func (s *BrightnessService) Increase(stepDivisor float64, hint *display.ID) bool {
	return s.step(1, stepDivisor, hint)
}

// Decrease lowers brightness by one step scaled by stepDivisor.
func (s *BrightnessService) Decrease(stepDivisor float64, hint *display.ID) bool {
	return s.step(-1, stepDivisor, hint)
}

func (s *BrightnessService) step(direction, stepDivisor float64, hint *display.ID) bool {
	target, ok := s.resolver.Resolve(hint)
	if !ok {
		return false
	}

	current, ok := s.read(target)
	if !ok {
		// Fall back to the last published value.
		s.mu.Lock()
		current = s.published.Value
		s.mu.Unlock()
	}

	step := direction * brightnessStep / math.Max(stepDivisor, minStepDivisor)
	value := math.Min(math.Max(current+step, 0), 1)
	if !s.write(target, value) {
		s.refreshTarget(target)
		return false
	}
	s.setLastPolled(value)
	s.publish(value, target.ID, true)
	return true
}

// Refresh reads the resolved display and republishes silently; used for
// passive reconciliation, never refreshes the last-changed timestamp.
func (s *BrightnessService) Refresh(hint *display.ID) {
	if target, ok := s.resolver.Resolve(hint); ok {
		s.refreshTarget(target)
	}
}

func (s *BrightnessService) refreshTarget(target display.Target) {
	if value, ok := s.read(target); ok {
		s.setLastPolled(value)
		s.publish(value, target.ID, false)
	}
}

// HandleDisplaysChanged prunes transport and overlay state to the
// current display set. Wired to the display Notifier.
func (s *BrightnessService) HandleDisplaysChanged() {
	connected, err := s.displays.Displays()
	if err != nil {
		connected = nil
	}
	s.registry.HandleDisplaysChanged(connected)
	s.overlay.HandleDisplaysChanged(connected)
	s.logState("", "displays changed", "")
}

// HandleWake re-discovers hardware after resume from sleep. Wired to
// the display WakeMonitor.
func (s *BrightnessService) HandleWake() {
	s.HandleDisplaysChanged()
	s.Refresh(nil)
}

// Close stops polling and releases transports and overlays.
func (s *BrightnessService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.stopPolling()
	s.registry.Close()
	return s.overlay.Close()
}

// write routes one brightness write. Built-in targets use the panel
// path only. External targets try the bound transport; only a display
// with no controllable transport falls through to the overlay, and a
// successful hardware write clears any stale override.
func (s *BrightnessService) write(target display.Target, value float64) bool {
	s.hw.Lock()
	defer s.hw.Unlock()

	if target.IsBuiltIn {
		if s.builtin == nil {
			return false
		}
		return s.builtin.Write(value) == nil
	}

	info, ok := s.infoFor(target.ID)
	if !ok {
		return false
	}
	if tr, ok := s.registry.Transport(info); ok {
		if !tr.Write(value) {
			return false
		}
		s.overlay.ClearOverride(info.ID)
		return true
	}

	dimmed := math.Max(value, s.cfg.MinDimBrightness)
	return s.overlay.SetBrightness(dimmed, info) == nil
}

// read returns the believed brightness of a target.
func (s *BrightnessService) read(target display.Target) (float64, bool) {
	s.hw.Lock()
	defer s.hw.Unlock()

	if target.IsBuiltIn {
		if s.builtin == nil {
			return 0, false
		}
		v, err := s.builtin.Read()
		return v, err == nil
	}

	info, ok := s.infoFor(target.ID)
	if !ok {
		return 0, false
	}
	if tr, ok := s.registry.Transport(info); ok {
		return tr.Read()
	}
	return s.overlay.Brightness(info.ID), true
}

// infoFor looks up a connected display by ID. Caller holds hw.
func (s *BrightnessService) infoFor(id display.ID) (display.Info, bool) {
	connected, err := s.displays.Displays()
	if err != nil {
		return display.Info{}, false
	}
	for _, info := range connected {
		if info.ID == id {
			return info, true
		}
	}
	return display.Info{}, false
}

// sampleBuiltin reads the built-in panel and resolves its display ID.
func (s *BrightnessService) sampleBuiltin() (float64, display.ID, bool) {
	if s.builtin == nil {
		return 0, 0, false
	}

	s.hw.Lock()
	defer s.hw.Unlock()

	connected, err := s.displays.Displays()
	if err != nil {
		return 0, 0, false
	}
	var id display.ID
	for _, info := range connected {
		if info.IsBuiltIn {
			id = info.ID
			break
		}
	}
	if id == 0 {
		return 0, 0, false
	}

	value, err := s.builtin.Read()
	if err != nil {
		return 0, 0, false
	}
	return value, id, true
}

func (s *BrightnessService) startPolling() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.polling || s.closed {
		return
	}
	s.polling = true
	s.pollStop = make(chan struct{})
	go s.pollLoop(s.pollStop)
}

func (s *BrightnessService) stopPolling() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.polling {
		return
	}
	s.polling = false
	close(s.pollStop)
}

func (s *BrightnessService) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.pollTick()
		}
	}
}

// pollTick is one reconciliation cycle. Skipped entirely when the
// previous cycle's hardware call is still outstanding.
func (s *BrightnessService) pollTick() {
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer s.inFlight.Store(false)

	if !s.monitor.IsSupported() {
		return
	}

	// With compat bridging active, sample the display the third-party
	// app drives; otherwise sample the built-in panel directly.
	bridging := false
	if s.cfg.CompatEnabled && s.detector != nil {
		_, bridging = s.detector.RunningApp()
	}

	var value float64
	var id display.ID
	var ok bool
	if bridging {
		if target, resolved := s.resolver.Resolve(nil); resolved {
			value, ok = s.read(target)
			id = target.ID
		}
	} else {
		value, id, ok = s.sampleBuiltin()
	}

	if !ok {
		s.monitor.RecordFailure()
		return
	}
	s.monitor.RecordSuccess()

	s.mu.Lock()
	delta := math.Abs(value - s.lastPolled)
	if delta <= epsilonSilent {
		s.mu.Unlock()
		return
	}
	s.lastPolled = value
	s.mu.Unlock()

	// Bridged third-party changes above the visibility threshold count
	// as user-visible; ambient drift stays silent.
	s.publish(value, id, bridging && delta > epsilonUserVisible)
}

func (s *BrightnessService) setLastPolled(value float64) {
	s.mu.Lock()
	s.lastPolled = value
	s.mu.Unlock()
}

// publish updates the published state and fires handlers outside the
// lock.
func (s *BrightnessService) publish(value float64, id display.ID, userVisible bool) {
	s.mu.Lock()
	s.published.Value = value
	s.published.DisplayID = id
	s.published.Supported = s.monitor.IsSupported()
	if userVisible {
		s.published.LastChanged = time.Now()
	}
	st := s.published
	handlers := make([]ChangeHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerService,
		Category:  log.CategorySample,
		DisplayID: uint32(id),
		Sample:    &log.SampleEvent{Value: value},
	})

	for _, fn := range handlers {
		fn(st)
	}
}

func (s *BrightnessService) publishSupported(supported bool) {
	s.mu.Lock()
	s.published.Supported = supported
	st := s.published
	handlers := make([]ChangeHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(st)
	}
}

func (s *BrightnessService) logState(oldState, newState, reason string) {
	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityService,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
