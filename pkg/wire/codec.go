package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for raise messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for raise messages.
var decMode cbor.DecMode

func init() {
	var err error

	// Configure encoder for deterministic output
	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Configure decoder to be lenient for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeRequest encodes req in the given variant. Only the fields the
// variant's contract defines are placed on the wire; caller-supplied identity
// or state not applicable to the variant is silently ignored. Narrow-code
// variants truncate the code words to their low 32 bits. req itself is not
// modified.
func EncodeRequest(v Variant, req *RaiseRequest) ([]byte, error) {
	msg := RaiseRequest{
		MsgID:     v.RequestID(),
		Exception: req.Exception,
		Code:      req.Code,
	}
	if msg.MsgID == 0 {
		return nil, &ErrUnknownVariant{}
	}
	if !v.HasWideCodes() {
		for i := range msg.Code {
			msg.Code[i] = TruncateCode(msg.Code[i])
		}
	}
	if v.HasIdentity() {
		msg.Thread = req.Thread
		msg.Task = req.Task
	}
	if v.HasState() {
		msg.Flavor = req.Flavor
		msg.OldState = req.OldState
	}
	return Marshal(&msg)
}

// DecodeRequest decodes CBOR bytes into a raise request, classifying the
// variant from the embedded message ID and rejecting messages whose field
// presence contradicts that variant.
func DecodeRequest(data []byte) (*RaiseRequest, Variant, error) {
	var req RaiseRequest
	if err := Unmarshal(data, &req); err != nil {
		return nil, 0, fmt.Errorf("failed to decode raise request: %w", err)
	}
	v, err := req.Variant()
	if err != nil {
		return nil, 0, err
	}
	if err := req.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid raise request: %w", err)
	}
	return &req, v, nil
}

// EncodeReply encodes rep as the reply for the given variant. Flavor and new
// state are placed on the wire only for state-carrying variants. rep itself
// is not modified.
func EncodeReply(v Variant, rep *RaiseReply) ([]byte, error) {
	msg := RaiseReply{
		MsgID:  v.ReplyID(),
		Status: rep.Status,
	}
	if msg.MsgID == ReplyIDOffset {
		return nil, &ErrUnknownVariant{}
	}
	if v.HasState() {
		msg.Flavor = rep.Flavor
		msg.NewState = rep.NewState
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid raise reply: %w", err)
	}
	return Marshal(&msg)
}

// DecodeReply decodes CBOR bytes into a raise reply, classifying the variant
// from the embedded message ID.
func DecodeReply(data []byte) (*RaiseReply, Variant, error) {
	var rep RaiseReply
	if err := Unmarshal(data, &rep); err != nil {
		return nil, 0, fmt.Errorf("failed to decode raise reply: %w", err)
	}
	v, err := rep.Variant()
	if err != nil {
		return nil, 0, err
	}
	if err := rep.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid raise reply: %w", err)
	}
	return &rep, v, nil
}

// PeekMsgID examines CBOR data and returns the embedded message ID without
// fully decoding the message.
func PeekMsgID(data []byte) (uint32, error) {
	var peek struct {
		MsgID uint32 `cbor:"1,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return 0, fmt.Errorf("failed to peek message: %w", err)
	}
	return peek.MsgID, nil
}
