package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors exchange events to an slog.Logger, for watching
// raise/catch traffic on the console during development. Message and frame
// events log at debug, errors at warn.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log emits the event as one structured slog record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("exchange_id", event.ExchangeID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	switch {
	case event.Frame != nil:
		attrs = append(attrs, frameAttrs(event.Frame)...)
	case event.Message != nil:
		attrs = append(attrs, messageAttrs(event.Message)...)
	case event.Error != nil:
		attrs = append(attrs, errorAttrs(event.Error)...)
	}

	level := slog.LevelDebug
	if event.Category == CategoryError {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, "delivery event", attrs...)
}

func frameAttrs(frame *FrameEvent) []slog.Attr {
	return []slog.Attr{
		slog.Int("frame_size", frame.Size),
		slog.Bool("truncated", frame.Truncated),
	}
}

func messageAttrs(msg *MessageEvent) []slog.Attr {
	attrs := []slog.Attr{
		slog.Uint64("msg_id", uint64(msg.MsgID)),
		slog.String("msg_type", msg.Type.String()),
	}
	if msg.Behavior != 0 {
		attrs = append(attrs, slog.String("behavior", msg.Behavior.String()))
	}
	if msg.Exception != nil {
		attrs = append(attrs, slog.Int64("exception", int64(*msg.Exception)))
	}
	if msg.Status != nil {
		attrs = append(attrs, slog.String("status", msg.Status.String()))
	}
	if msg.StateWords != nil {
		attrs = append(attrs, slog.Int("state_words", *msg.StateWords))
	}
	return attrs
}

func errorAttrs(errEvent *ErrorEventData) []slog.Attr {
	attrs := []slog.Attr{slog.String("error", errEvent.Message)}
	if errEvent.Context != "" {
		attrs = append(attrs, slog.String("context", errEvent.Context))
	}
	return attrs
}

var _ Logger = (*SlogAdapter)(nil)
