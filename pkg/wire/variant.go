package wire

import "fmt"

// Variant identifies one of the six wire encodings for an exception raise.
// The variant is a pure function of the Behavior and is recoverable from the
// message ID embedded in every request and reply.
type Variant uint8

const (
	// VariantRaise carries exception type and code words only.
	VariantRaise Variant = iota + 1

	// VariantRaiseState adds flavor and state words.
	VariantRaiseState

	// VariantRaiseStateIdentity adds thread, task, flavor, and state words.
	VariantRaiseStateIdentity

	// VariantRaiseWide is VariantRaise with 64-bit code words.
	VariantRaiseWide

	// VariantRaiseStateWide is VariantRaiseState with 64-bit code words.
	VariantRaiseStateWide

	// VariantRaiseStateIdentityWide is VariantRaiseStateIdentity with 64-bit
	// code words.
	VariantRaiseStateIdentityWide
)

// Request message IDs, one per variant. Replies use the request ID plus
// ReplyIDOffset. The ID space follows the kernel exception ABI.
const (
	MsgIDRaise              uint32 = 2401
	MsgIDRaiseState         uint32 = 2402
	MsgIDRaiseStateIdentity uint32 = 2403

	MsgIDRaiseWide              uint32 = 2405
	MsgIDRaiseStateWide         uint32 = 2406
	MsgIDRaiseStateIdentityWide uint32 = 2407

	// ReplyIDOffset is added to a request message ID to form its reply ID.
	ReplyIDOffset uint32 = 100
)

// ErrUnknownVariant is returned when a behavior or message ID does not map to
// one of the six variants.
type ErrUnknownVariant struct {
	Behavior Behavior
	MsgID    uint32
}

func (e *ErrUnknownVariant) Error() string {
	if e.MsgID != 0 {
		return fmt.Sprintf("no raise variant for message ID %d", e.MsgID)
	}
	return fmt.Sprintf("no raise variant for behavior 0x%x", uint32(e.Behavior))
}

// VariantForBehavior selects the wire variant for a behavior. This is the
// single source of truth for variant selection on the raise side.
func VariantForBehavior(b Behavior) (Variant, error) {
	var v Variant
	switch b.Kind() {
	case BehaviorDefault:
		v = VariantRaise
	case BehaviorState:
		v = VariantRaiseState
	case BehaviorStateIdentity:
		v = VariantRaiseStateIdentity
	default:
		return 0, &ErrUnknownVariant{Behavior: b}
	}
	if b.HasWideCodes() {
		v += VariantRaiseWide - VariantRaise
	}
	return v, nil
}

// VariantForRequestID classifies an incoming request by its message ID. This
// is how the catch side determines which variant arrived.
func VariantForRequestID(msgID uint32) (Variant, error) {
	switch msgID {
	case MsgIDRaise:
		return VariantRaise, nil
	case MsgIDRaiseState:
		return VariantRaiseState, nil
	case MsgIDRaiseStateIdentity:
		return VariantRaiseStateIdentity, nil
	case MsgIDRaiseWide:
		return VariantRaiseWide, nil
	case MsgIDRaiseStateWide:
		return VariantRaiseStateWide, nil
	case MsgIDRaiseStateIdentityWide:
		return VariantRaiseStateIdentityWide, nil
	default:
		return 0, &ErrUnknownVariant{MsgID: msgID}
	}
}

// Behavior returns the behavior that selects this variant. Round-trips with
// VariantForBehavior so the catch side reconstructs the exact behavior the
// raise side used.
func (v Variant) Behavior() Behavior {
	var b Behavior
	switch v {
	case VariantRaise, VariantRaiseWide:
		b = BehaviorDefault
	case VariantRaiseState, VariantRaiseStateWide:
		b = BehaviorState
	case VariantRaiseStateIdentity, VariantRaiseStateIdentityWide:
		b = BehaviorStateIdentity
	default:
		return 0
	}
	if v.HasWideCodes() {
		b |= WideCodes
	}
	return b
}

// HasIdentity returns true if this variant carries thread and task.
func (v Variant) HasIdentity() bool {
	return v == VariantRaiseStateIdentity || v == VariantRaiseStateIdentityWide
}

// HasState returns true if this variant carries flavor and state words.
func (v Variant) HasState() bool {
	switch v {
	case VariantRaiseState, VariantRaiseStateIdentity,
		VariantRaiseStateWide, VariantRaiseStateIdentityWide:
		return true
	default:
		return false
	}
}

// HasWideCodes returns true if this variant carries 64-bit code words.
func (v Variant) HasWideCodes() bool {
	return v >= VariantRaiseWide
}

// RequestID returns the message ID for requests in this variant.
func (v Variant) RequestID() uint32 {
	switch v {
	case VariantRaise:
		return MsgIDRaise
	case VariantRaiseState:
		return MsgIDRaiseState
	case VariantRaiseStateIdentity:
		return MsgIDRaiseStateIdentity
	case VariantRaiseWide:
		return MsgIDRaiseWide
	case VariantRaiseStateWide:
		return MsgIDRaiseStateWide
	case VariantRaiseStateIdentityWide:
		return MsgIDRaiseStateIdentityWide
	default:
		return 0
	}
}

// ReplyID returns the message ID for replies in this variant.
func (v Variant) ReplyID() uint32 {
	return v.RequestID() + ReplyIDOffset
}

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantRaise:
		return "RAISE"
	case VariantRaiseState:
		return "RAISE_STATE"
	case VariantRaiseStateIdentity:
		return "RAISE_STATE_IDENTITY"
	case VariantRaiseWide:
		return "RAISE_WIDE"
	case VariantRaiseStateWide:
		return "RAISE_STATE_WIDE"
	case VariantRaiseStateIdentityWide:
		return "RAISE_STATE_IDENTITY_WIDE"
	default:
		return "UNKNOWN"
	}
}

// Variants lists all six variants in message-ID order. Useful for exhaustive
// iteration in tests and tooling.
func Variants() []Variant {
	return []Variant{
		VariantRaise,
		VariantRaiseState,
		VariantRaiseStateIdentity,
		VariantRaiseWide,
		VariantRaiseStateWide,
		VariantRaiseStateIdentityWide,
	}
}
