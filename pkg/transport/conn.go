package transport

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/crashlink-project/crashlink-go/pkg/log"
)

// ChannelConn adapts a channel endpoint (typically a Unix socket standing in
// for a kernel exception port) to the delivery Transport contract: blocking
// send/receive of framed messages, with interrupted system calls retried
// transparently.
type ChannelConn struct {
	rw        io.ReadWriter
	framer    *Framer
	channelID string
}

// NewChannelConn wraps an already-connected endpoint.
func NewChannelConn(rw io.ReadWriter) *ChannelConn {
	return &ChannelConn{
		rw:        rw,
		framer:    NewFramer(rw),
		channelID: uuid.NewString(),
	}
}

// DialChannel connects to a handler listening on the given Unix socket path.
func DialChannel(path string) (*ChannelConn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to dial channel %s: %w", path, err)
	}
	return NewChannelConn(conn), nil
}

// ChannelID returns the unique identifier of this channel endpoint.
func (c *ChannelConn) ChannelID() string {
	return c.channelID
}

// SetLogger configures frame logging. Pass nil to disable.
func (c *ChannelConn) SetLogger(logger log.Logger) {
	c.framer.SetLogger(logger, c.channelID)
}

// SetMaxMessageSize caps framed messages in both directions.
func (c *ChannelConn) SetMaxMessageSize(size uint32) {
	c.framer.SetMaxMessageSize(size)
}

// Send transmits one encoded message, blocking until it is written.
// Interrupted writes are retried; genuine I/O errors are returned as-is.
func (c *ChannelConn) Send(data []byte) error {
	for {
		err := c.framer.WriteFrame(data)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

// Receive blocks until one encoded message arrives.
// Interrupted reads are retried; genuine I/O errors are returned as-is.
func (c *ChannelConn) Receive() ([]byte, error) {
	for {
		data, err := c.framer.ReadFrame()
		if err == nil || !errors.Is(err, unix.EINTR) {
			return data, err
		}
	}
}

// Close closes the underlying endpoint if it supports closing.
func (c *ChannelConn) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// ChannelListener accepts handler-side channel connections on a Unix socket.
type ChannelListener struct {
	ln net.Listener
}

// ListenChannel creates a listening channel endpoint at the given Unix
// socket path.
func ListenChannel(path string) (*ChannelListener, error) {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on channel %s: %w", path, err)
	}
	return &ChannelListener{ln: ln}, nil
}

// Accept blocks until a raiser connects and returns the connection.
func (l *ChannelListener) Accept() (*ChannelConn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return NewChannelConn(conn), nil
}

// Addr returns the listener's address.
func (l *ChannelListener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting connections.
func (l *ChannelListener) Close() error {
	return l.ln.Close()
}
