package wire

import (
	"fmt"
)

// CBOR map keys for raise messages.
const (
	// Common message keys
	KeyMsgID     = 1
	KeyException = 2 // Exception type (request) or Status (reply)
	KeyStatus    = 2

	// Request-only keys
	KeyCode     = 3
	KeyThread   = 4
	KeyTask     = 5
	KeyFlavor   = 6
	KeyOldState = 7

	// Reply-only keys
	KeyReplyFlavor   = 3
	KeyReplyNewState = 4
)

// Port is a handle to a kernel object (thread or task).
type Port uint32

// PortNull is the null port sentinel. Identity fields hold PortNull when the
// variant does not carry identity.
const PortNull Port = 0

// IsNull returns true if the port is the null sentinel.
func (p Port) IsNull() bool {
	return p == PortNull
}

// FlavorNone is the no-flavor sentinel observed by handlers when the variant
// does not carry state.
const FlavorNone int32 = 0

// CodeWordCount is the number of code words carried by every variant.
const CodeWordCount = 2

// MaxStateWords is the maximum number of 32-bit state words a handler may
// return in a reply.
const MaxStateWords = 224

// TruncateCode narrows a 64-bit code word to its low 32 bits, two's
// complement. This is the defined (not erroneous) behavior for variants
// without wide codes.
func TruncateCode(v int64) int64 {
	return int64(int32(v))
}

// RaiseRequest is an exception raise on the wire. Which fields are populated
// is a pure function of the variant identified by MsgID.
//
// CBOR encoding:
//
//	{
//	  1: msgId,      // uint32: identifies the variant
//	  2: exception,  // int32: exception type
//	  3: code,       // [2]int64: code and subcode (narrowed unless wide)
//	  4: thread,     // uint32: identity variants only
//	  5: task,       // uint32: identity variants only
//	  6: flavor,     // int32: state variants only
//	  7: oldState    // []uint32: state variants only
//	}
type RaiseRequest struct {
	MsgID     uint32               `cbor:"1,keyasint"`
	Exception int32                `cbor:"2,keyasint"`
	Code      [CodeWordCount]int64 `cbor:"3,keyasint"`
	Thread    Port                 `cbor:"4,keyasint,omitempty"`
	Task      Port                 `cbor:"5,keyasint,omitempty"`
	Flavor    int32                `cbor:"6,keyasint,omitempty"`
	OldState  []uint32             `cbor:"7,keyasint,omitempty"`
}

// Variant returns the variant identified by the request's message ID.
func (r *RaiseRequest) Variant() (Variant, error) {
	return VariantForRequestID(r.MsgID)
}

// Validate checks that the request's populated fields are consistent with its
// variant. Fields a variant does not define must be absent or zero.
func (r *RaiseRequest) Validate() error {
	v, err := r.Variant()
	if err != nil {
		return err
	}
	if !v.HasIdentity() && (r.Thread != PortNull || r.Task != PortNull) {
		return fmt.Errorf("variant %s does not carry identity", v)
	}
	if !v.HasState() {
		if r.Flavor != FlavorNone {
			return fmt.Errorf("variant %s does not carry a flavor", v)
		}
		if len(r.OldState) != 0 {
			return fmt.Errorf("variant %s does not carry state words", v)
		}
	}
	if !v.HasWideCodes() {
		for i, c := range r.Code {
			if c != TruncateCode(c) {
				return fmt.Errorf("variant %s code[%d] exceeds 32 bits", v, i)
			}
		}
	}
	return nil
}

// RaiseReply is the handler's answer to a raise. The reply variant always
// matches the request variant.
//
// CBOR encoding:
//
//	{
//	  1: msgId,     // uint32: request msgId + 100
//	  2: status,    // uint32: handler status
//	  3: flavor,    // int32: state variants only
//	  4: newState   // []uint32: state variants only, length independent
//	}
type RaiseReply struct {
	MsgID    uint32   `cbor:"1,keyasint"`
	Status   Status   `cbor:"2,keyasint"`
	Flavor   int32    `cbor:"3,keyasint,omitempty"`
	NewState []uint32 `cbor:"4,keyasint,omitempty"`
}

// Variant returns the variant identified by the reply's message ID.
func (r *RaiseReply) Variant() (Variant, error) {
	for _, v := range Variants() {
		if r.MsgID == v.ReplyID() {
			return v, nil
		}
	}
	return 0, &ErrUnknownVariant{MsgID: r.MsgID}
}

// Validate checks that the reply's populated fields are consistent with its
// variant.
func (r *RaiseReply) Validate() error {
	v, err := r.Variant()
	if err != nil {
		return err
	}
	if !v.HasState() {
		if r.Flavor != FlavorNone {
			return fmt.Errorf("reply variant %s does not carry a flavor", v)
		}
		if len(r.NewState) != 0 {
			return fmt.Errorf("reply variant %s does not carry state words", v)
		}
	}
	if len(r.NewState) > MaxStateWords {
		return fmt.Errorf("reply carries %d state words, limit %d", len(r.NewState), MaxStateWords)
	}
	return nil
}

// IsSuccess returns true if the reply indicates success.
func (r *RaiseReply) IsSuccess() bool {
	return r.Status.IsSuccess()
}
