package log

// MultiLogger fans each event out to a set of underlying loggers, so one
// exchange can be captured to a .clog file and mirrored to the console at
// the same time.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger builds a MultiLogger over the given loggers. Nil entries
// are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	sinks := make([]Logger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			sinks = append(sinks, l)
		}
	}
	return &MultiLogger{sinks: sinks}
}

// Log delivers the event to every underlying logger in order.
func (m *MultiLogger) Log(event Event) {
	for _, sink := range m.sinks {
		sink.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
