package delivery

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/crashlink-project/crashlink-go/pkg/log"
	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

// ErrBusy indicates a second request arrived while one was still being
// handled. A Catcher processes one request to completion at a time.
var ErrBusy = errors.New("an exception is already being handled")

// Exception is the canonical form of a caught raise, identical for all six
// wire variants. Fields a variant does not carry hold the defined sentinels:
// null ports, FlavorNone, zero-length state.
type Exception struct {
	// Behavior is the exact behavior the raise side used, reconstructed
	// from the wire variant.
	Behavior wire.Behavior

	// Type is the exception type.
	Type int32

	// Code and Subcode are the two code words as they crossed the wire
	// (already narrowed for non-wide variants).
	Code    int64
	Subcode int64

	// Thread and Task identify the faulting thread and task, or PortNull.
	Thread wire.Port
	Task   wire.Port

	// Flavor tags the state encoding. In/out: for state-carrying behaviors
	// the handler may overwrite it. FlavorNone otherwise.
	Flavor int32

	// OldState is the input state snapshot. Read-only for the handler.
	OldState []uint32

	// NewState is the handler's replacement state, up to wire.MaxStateWords
	// words. Its length is independent of OldState's. Ignored for
	// behaviors without state.
	NewState []uint32
}

// Handler is the single callback invoked for every caught exception. It is
// invoked exactly once per request with the canonical signature, regardless
// of which wire variant arrived; handler logic must never branch on wire
// variant. The returned status travels back to the raiser unchanged.
type Handler func(ctx context.Context, exc *Exception) wire.Status

// Catcher normalizes incoming raise messages and dispatches them to one
// Handler. At most one request is processed at a time; a concurrent second
// request is refused with ErrBusy.
type Catcher struct {
	handler Handler
	logger  log.Logger
	busy    atomic.Bool
}

// NewCatcher creates a Catcher dispatching to the given handler.
func NewCatcher(handler Handler) *Catcher {
	return &Catcher{
		handler: handler,
		logger:  log.NoopLogger{},
	}
}

// SetLogger configures event logging. Pass nil to disable.
func (c *Catcher) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	c.logger = logger
}

// Catch decodes one raw raise message, determines which variant arrived,
// invokes the handler exactly once with the canonical exception, and returns
// the encoded reply in the variant that was received.
func (c *Catcher) Catch(ctx context.Context, raw []byte) ([]byte, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	req, variant, err := wire.DecodeRequest(raw)
	if err != nil {
		c.logError("", "decode request", err)
		return nil, err
	}

	exchangeID := uuid.NewString()
	c.logRequest(exchangeID, req, variant)

	exc := &Exception{
		Behavior: variant.Behavior(),
		Type:     req.Exception,
		Code:     req.Code[0],
		Subcode:  req.Code[1],
		Thread:   wire.PortNull,
		Task:     wire.PortNull,
		Flavor:   wire.FlavorNone,
	}
	if variant.HasIdentity() {
		exc.Thread = req.Thread
		exc.Task = req.Task
	}
	if variant.HasState() {
		exc.Flavor = req.Flavor
		exc.OldState = req.OldState
	}

	status := c.handler(ctx, exc)

	reply := &wire.RaiseReply{Status: status}
	if variant.HasState() {
		reply.Flavor = exc.Flavor
		reply.NewState = exc.NewState
	}

	data, err := wire.EncodeReply(variant, reply)
	if err != nil {
		c.logError(exchangeID, "encode reply", err)
		return nil, err
	}

	c.logReply(exchangeID, variant, reply)
	return data, nil
}

// ServeOne receives one request from the transport, handles it, and sends
// the reply back: a single synchronous exchange as plain call/return.
func (c *Catcher) ServeOne(ctx context.Context, transport Transport) error {
	raw, err := transport.Receive()
	if err != nil {
		return &TransportError{Op: "receive", Err: err}
	}

	reply, err := c.Catch(ctx, raw)
	if err != nil {
		return err
	}

	if err := transport.Send(reply); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

// Serve handles exchanges one at a time until ctx is canceled or an exchange
// fails. There is no overlapping of in-flight requests.
func (c *Catcher) Serve(ctx context.Context, transport Transport) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.ServeOne(ctx, transport); err != nil {
			return err
		}
	}
}

// logRequest records the incoming request at the wire layer.
func (c *Catcher) logRequest(exchangeID string, req *wire.RaiseRequest, variant wire.Variant) {
	exception := req.Exception
	words := len(req.OldState)
	event := log.Event{
		Timestamp:  time.Now(),
		ExchangeID: exchangeID,
		Direction:  log.DirectionIn,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		LocalRole:  log.RoleHandler,
		Message: &log.MessageEvent{
			Type:      log.MessageTypeRequest,
			MsgID:     req.MsgID,
			Behavior:  variant.Behavior(),
			Exception: &exception,
		},
	}
	if variant.HasState() {
		event.Message.StateWords = &words
	}
	c.logger.Log(event)
}

// logReply records the outgoing reply at the wire layer.
func (c *Catcher) logReply(exchangeID string, variant wire.Variant, reply *wire.RaiseReply) {
	status := reply.Status
	words := len(reply.NewState)
	c.logger.Log(log.Event{
		Timestamp:  time.Now(),
		ExchangeID: exchangeID,
		Direction:  log.DirectionOut,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		LocalRole:  log.RoleHandler,
		Message: &log.MessageEvent{
			Type:       log.MessageTypeReply,
			MsgID:      variant.ReplyID(),
			Status:     &status,
			StateWords: &words,
		},
	})
}

// logError records a failed exchange step.
func (c *Catcher) logError(exchangeID, op string, err error) {
	c.logger.Log(log.Event{
		Timestamp:  time.Now(),
		ExchangeID: exchangeID,
		Direction:  log.DirectionIn,
		Layer:      log.LayerDelivery,
		Category:   log.CategoryError,
		LocalRole:  log.RoleHandler,
		Error: &log.ErrorEventData{
			Layer:   log.LayerDelivery,
			Message: err.Error(),
			Context: op,
		},
	})
}
