package log

import (
	"testing"
)

// recordingLogger captures events for test assertions.
type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	multi := NewMultiLogger(a, b, NoopLogger{})

	multi.Log(Event{ExchangeID: "x"})
	multi.Log(Event{ExchangeID: "y"})

	for name, l := range map[string]*recordingLogger{"a": a, "b": b} {
		if len(l.events) != 2 {
			t.Fatalf("logger %s saw %d events, want 2", name, len(l.events))
		}
		if l.events[0].ExchangeID != "x" || l.events[1].ExchangeID != "y" {
			t.Errorf("logger %s saw events out of order", name)
		}
	}
}
