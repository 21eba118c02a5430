package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crashlink-project/crashlink-go/pkg/log"
	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

// ErrProtocolMismatch indicates a reply arrived encoded in a variant
// different from the request's. This must never happen in correct operation
// and is reported rather than silently tolerated.
var ErrProtocolMismatch = errors.New("reply variant does not match request")

// RaiseParams are the canonical inputs to a raise. Identity and state fields
// are consulted only when the behavior carries the corresponding capability;
// supplying them otherwise is not an error, they are silently ignored.
type RaiseParams struct {
	// Behavior selects which of the six wire variants is used.
	Behavior wire.Behavior

	// Exception is the exception type.
	Exception int32

	// Code and Subcode are the two code words. Without wide codes they are
	// truncated to their low 32 bits before transmission.
	Code    int64
	Subcode int64

	// Thread and Task identify the faulting thread and task. Transmitted
	// only for identity-carrying behaviors.
	Thread wire.Port
	Task   wire.Port

	// Flavor tags the input state encoding. Transmitted only for
	// state-carrying behaviors.
	Flavor int32

	// OldState is the input state snapshot. Transmitted only for
	// state-carrying behaviors.
	OldState []uint32
}

// RaiseResult is the canonical outcome of a raise. Flavor and NewState are
// populated only for state-carrying behaviors; for all other behaviors they
// are left untouched regardless of what the reply might contain.
type RaiseResult struct {
	// Status is the handler's return code. A non-success status is the
	// handler's failure surfaced directly; it is not an error of this layer.
	Status wire.Status

	// Flavor is the (possibly rewritten) state encoding tag.
	Flavor int32

	// NewState is the replacement state. Its length is independent of the
	// input state's length.
	NewState []uint32
}

// Raiser dispatches exception raises over a Transport.
// Each Raise is one strictly synchronous exchange: send once, block for
// exactly one reply. Calls are independent and reentrant provided each uses
// distinct buffers.
type Raiser struct {
	transport Transport
	logger    log.Logger
}

// NewRaiser creates a Raiser that sends over the given transport.
func NewRaiser(transport Transport) *Raiser {
	return &Raiser{
		transport: transport,
		logger:    log.NoopLogger{},
	}
}

// SetLogger configures event logging. Pass nil to disable.
func (r *Raiser) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	r.logger = logger
}

// Raise encodes the request in the variant selected by p.Behavior, sends it,
// blocks for the reply, and decodes it back into canonical output fields.
// Transport failure and protocol mismatch are returned as errors with no
// partial effects; handler failure surfaces as a non-success Status in the
// result.
func (r *Raiser) Raise(ctx context.Context, p RaiseParams) (*RaiseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	variant, err := wire.VariantForBehavior(p.Behavior)
	if err != nil {
		return nil, err
	}

	req := &wire.RaiseRequest{
		Exception: p.Exception,
		Code:      [wire.CodeWordCount]int64{p.Code, p.Subcode},
		Thread:    p.Thread,
		Task:      p.Task,
		Flavor:    p.Flavor,
		OldState:  p.OldState,
	}
	data, err := wire.EncodeRequest(variant, req)
	if err != nil {
		return nil, err
	}

	exchangeID := uuid.NewString()
	r.logRequest(exchangeID, variant, p)

	if err := r.transport.Send(data); err != nil {
		r.logError(exchangeID, "send", err)
		return nil, &TransportError{Op: "send", Err: err}
	}

	replyData, err := r.transport.Receive()
	if err != nil {
		r.logError(exchangeID, "receive", err)
		return nil, &TransportError{Op: "receive", Err: err}
	}

	reply, replyVariant, err := wire.DecodeReply(replyData)
	if err != nil {
		r.logError(exchangeID, "decode reply", err)
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	if replyVariant != variant {
		err := fmt.Errorf("%w: got %s, want %s", ErrProtocolMismatch, replyVariant, variant)
		r.logError(exchangeID, "decode reply", err)
		return nil, err
	}

	r.logReply(exchangeID, reply)

	result := &RaiseResult{Status: reply.Status}
	if variant.HasState() {
		result.Flavor = reply.Flavor
		result.NewState = reply.NewState
	}
	return result, nil
}

// logRequest records the outgoing request at the wire layer.
func (r *Raiser) logRequest(exchangeID string, variant wire.Variant, p RaiseParams) {
	exception := p.Exception
	words := len(p.OldState)
	event := log.Event{
		Timestamp:  time.Now(),
		ExchangeID: exchangeID,
		Direction:  log.DirectionOut,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		LocalRole:  log.RoleRaiser,
		Message: &log.MessageEvent{
			Type:      log.MessageTypeRequest,
			MsgID:     variant.RequestID(),
			Behavior:  p.Behavior,
			Exception: &exception,
		},
	}
	if variant.HasState() {
		event.Message.StateWords = &words
	}
	r.logger.Log(event)
}

// logReply records the incoming reply at the wire layer.
func (r *Raiser) logReply(exchangeID string, reply *wire.RaiseReply) {
	status := reply.Status
	words := len(reply.NewState)
	r.logger.Log(log.Event{
		Timestamp:  time.Now(),
		ExchangeID: exchangeID,
		Direction:  log.DirectionIn,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		LocalRole:  log.RoleRaiser,
		Message: &log.MessageEvent{
			Type:       log.MessageTypeReply,
			MsgID:      reply.MsgID,
			Status:     &status,
			StateWords: &words,
		},
	})
}

// logError records a failed exchange step.
func (r *Raiser) logError(exchangeID, op string, err error) {
	r.logger.Log(log.Event{
		Timestamp:  time.Now(),
		ExchangeID: exchangeID,
		Direction:  log.DirectionOut,
		Layer:      log.LayerDelivery,
		Category:   log.CategoryError,
		LocalRole:  log.RoleRaiser,
		Error: &log.ErrorEventData{
			Layer:   log.LayerDelivery,
			Message: err.Error(),
			Context: op,
		},
	})
}
