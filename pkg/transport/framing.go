package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/crashlink-project/crashlink-go/pkg/log"
)

const (
	// FrameHeaderSize is the size of the big-endian length prefix in bytes.
	FrameHeaderSize = 4

	// DefaultMaxMessageSize is the default cap on one framed payload (64 KB).
	DefaultMaxMessageSize = 64 << 10

	// maxLoggedFrameBytes caps the payload bytes copied into frame log
	// events; larger payloads are marked truncated.
	maxLoggedFrameBytes = 4096
)

var (
	// ErrMessageTooLarge indicates a payload above the configured cap, on
	// either the write or the read side.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrMessageEmpty indicates a zero-length payload.
	ErrMessageEmpty = errors.New("message is empty")

	// ErrFrameTruncated indicates the stream ended inside a frame.
	ErrFrameTruncated = errors.New("frame truncated")
)

// Framer reads and writes length-prefixed frames over a bidirectional
// stream. Writes are serialized; reads are single-consumer.
type Framer struct {
	r              io.Reader
	w              io.Writer
	maxMessageSize uint32

	wmu sync.Mutex
	hdr [FrameHeaderSize]byte

	logger    log.Logger
	channelID string
}

// NewFramer wraps rw with the default message-size cap.
func NewFramer(rw io.ReadWriter) *Framer {
	return NewFramerWithMaxSize(rw, DefaultMaxMessageSize)
}

// NewFramerWithMaxSize wraps rw with an explicit message-size cap.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize uint32) *Framer {
	return &Framer{r: rw, w: rw, maxMessageSize: maxSize}
}

// SetLogger enables frame logging tagged with the given channel ID. Pass a
// nil logger to disable.
func (f *Framer) SetLogger(logger log.Logger, channelID string) {
	f.logger = logger
	f.channelID = channelID
}

// SetMaxMessageSize replaces the message-size cap for both directions.
func (f *Framer) SetMaxMessageSize(size uint32) {
	f.maxMessageSize = size
}

// WriteFrame writes one length-prefixed frame. Safe for concurrent use.
func (f *Framer) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if uint32(len(data)) > f.maxMessageSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), f.maxMessageSize)
	}

	f.wmu.Lock()
	defer f.wmu.Unlock()

	var hdr [FrameHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))
	if _, err := f.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := f.w.Write(data); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	f.logFrame(log.DirectionOut, data)
	return nil
}

// ReadFrame reads one frame and returns its payload. A clean end of stream
// between frames is io.EOF; an end of stream inside a frame is
// ErrFrameTruncated.
func (f *Framer) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(f.r, f.hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(f.hdr[:])
	if length == 0 {
		return nil, ErrMessageEmpty
	}
	if length > f.maxMessageSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, length, f.maxMessageSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(f.r, payload); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	f.logFrame(log.DirectionIn, payload)
	return payload, nil
}

func (f *Framer) logFrame(direction log.Direction, payload []byte) {
	if f.logger == nil {
		return
	}

	logged := payload
	truncated := false
	if len(payload) > maxLoggedFrameBytes {
		logged = payload[:maxLoggedFrameBytes]
		truncated = true
	}

	f.logger.Log(log.Event{
		Timestamp: time.Now(),
		ChannelID: f.channelID,
		Direction: direction,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      FrameSize(len(payload)),
			Data:      logged,
			Truncated: truncated,
		},
	})
}

// FrameSize returns the on-wire size of a frame carrying payloadSize bytes.
func FrameSize(payloadSize int) int {
	return FrameHeaderSize + payloadSize
}
