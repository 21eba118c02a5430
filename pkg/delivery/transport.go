package delivery

import "fmt"

// Transport is the blocking send/receive primitive over a kernel exception
// channel. It is opaque beyond delivering encoded messages: implementations
// retry interruption of the underlying call transparently and never surface
// it as failure. Cancellation and timeouts are the Transport's concern; the
// delivery layer defines none of its own.
type Transport interface {
	// Send transmits one encoded message, blocking until it is accepted.
	Send(data []byte) error

	// Receive blocks until one encoded message arrives.
	Receive() ([]byte, error)
}

// TransportError reports a send or receive failure from the Transport.
// The exchange it interrupted has no partial effects and is not retried.
type TransportError struct {
	// Op is the transport operation that failed ("send" or "receive").
	Op string

	// Err is the underlying transport error.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
