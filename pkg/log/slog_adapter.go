package log

import (
	"context"
	"encoding/hex"
	"log/slog"
)

// SlogAdapter writes engine events to an slog.Logger.
// Useful for development when you want to see bus traffic in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.TransactionID != "" {
		attrs = append(attrs, slog.String("txn_id", event.TransactionID))
	}
	if event.DisplayID != 0 {
		attrs = append(attrs, slog.Uint64("display", uint64(event.DisplayID)))
	}
	if event.Transport != "" {
		attrs = append(attrs, slog.String("transport", event.Transport))
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.String("frame", hex.EncodeToString(event.Frame.Data)),
		)
	case event.Sample != nil:
		attrs = append(attrs, slog.Float64("value", event.Sample.Value))
		if event.Sample.Max != 0 {
			attrs = append(attrs,
				slog.Uint64("raw", uint64(event.Sample.Raw)),
				slog.Uint64("max", uint64(event.Sample.Max)),
			)
		}
		if event.Sample.Cached {
			attrs = append(attrs, slog.Bool("cached", true))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "brightness", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
