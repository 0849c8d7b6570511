package service

import (
	"time"

	"github.com/lumen-hal/lumen-go/pkg/display"
)

// Orchestration constants.
const (
	// DefaultPollInterval is the reconciliation loop cadence (~2Hz).
	DefaultPollInterval = 500 * time.Millisecond

	// brightnessStep is the full-range step of one increase/decrease.
	brightnessStep = 1.0 / 16

	// minStepDivisor floors the caller-supplied step divisor.
	minStepDivisor = 0.25

	// epsilonSilent is the smallest delta worth tracking at all.
	epsilonSilent = 0.001

	// epsilonUserVisible is the delta above which a bridged third-party
	// change is published as a user-visible event.
	epsilonUserVisible = 0.01
)

// State is the published brightness state consumed by the HUD layer.
type State struct {
	// Value is the believed normalized brightness of the last target.
	Value float64

	// DisplayID identifies the display Value belongs to.
	DisplayID display.ID

	// Supported reports whether brightness control is available.
	Supported bool

	// LastChanged is the timestamp of the last user-visible change.
	// Silent reconciliation updates Value without touching it.
	LastChanged time.Time
}

// ChangeHandler receives published state updates.
type ChangeHandler func(State)
