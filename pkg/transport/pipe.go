package transport

import (
	"errors"
	"sync"
)

// ErrPipeClosed indicates the in-process pipe was closed.
var ErrPipeClosed = errors.New("pipe closed")

// PipeEnd is one end of a connected in-process transport pair. It implements
// the delivery Transport contract without any framing or sockets, which
// makes it suitable for tests and same-process handler registration.
type PipeEnd struct {
	send chan []byte
	recv chan []byte

	done      chan struct{}
	closeOnce *sync.Once
}

// Pipe returns a connected pair of in-process transports. Messages sent on
// one end are received on the other. Closing either end closes both.
func Pipe() (*PipeEnd, *PipeEnd) {
	ab := make(chan []byte, 1)
	ba := make(chan []byte, 1)
	done := make(chan struct{})
	once := &sync.Once{}

	a := &PipeEnd{send: ab, recv: ba, done: done, closeOnce: once}
	b := &PipeEnd{send: ba, recv: ab, done: done, closeOnce: once}
	return a, b
}

// Send transmits one message, blocking until the peer can accept it.
func (p *PipeEnd) Send(data []byte) error {
	select {
	case <-p.done:
		return ErrPipeClosed
	default:
	}

	msg := make([]byte, len(data))
	copy(msg, data)

	select {
	case p.send <- msg:
		return nil
	case <-p.done:
		return ErrPipeClosed
	}
}

// Receive blocks until one message arrives.
func (p *PipeEnd) Receive() ([]byte, error) {
	select {
	case msg := <-p.recv:
		return msg, nil
	case <-p.done:
		return nil, ErrPipeClosed
	}
}

// Close closes both ends of the pipe.
// It is safe to call Close multiple times.
func (p *PipeEnd) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	return nil
}
