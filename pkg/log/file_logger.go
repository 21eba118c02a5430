package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends exchange events to a binary .clog file, one CBOR
// document per event. The stream can be read back with Reader. Safe for
// concurrent use.
type FileLogger struct {
	mu   sync.Mutex
	f    *os.File
	enc  *cbor.Encoder
	done bool
}

// NewFileLogger opens path for appending, creating it with mode 0644 when
// absent.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &FileLogger{f: f, enc: NewEncoder(f)}, nil
}

// Log appends one event. Encoding failures are swallowed: event capture
// must never disturb the delivery path.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done {
		return
	}
	_ = l.enc.Encode(event)
}

// Close closes the underlying file. Events logged after Close are dropped;
// calling Close again returns nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done {
		return nil
	}
	l.done = true
	return l.f.Close()
}

var _ Logger = (*FileLogger)(nil)
