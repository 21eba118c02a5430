package wire

// Behavior selects which optional fields an exception raise carries.
// It combines a base kind with the independent WideCodes flag.
type Behavior uint32

const (
	// BehaviorDefault carries only the exception type and code words.
	BehaviorDefault Behavior = 1

	// BehaviorState additionally carries the thread-state flavor, an input
	// state snapshot, and an output state in the reply.
	BehaviorState Behavior = 2

	// BehaviorStateIdentity carries state plus the faulting thread and task.
	BehaviorStateIdentity Behavior = 3

	// WideCodes requests 64-bit code words. Without it, code and subcode are
	// truncated to their low 32 bits before transmission.
	WideCodes Behavior = 0x80000000
)

// Kind returns the base kind with the WideCodes flag masked off.
func (b Behavior) Kind() Behavior {
	return b &^ WideCodes
}

// HasIdentity returns true if raises with this behavior carry the faulting
// thread and task on the wire.
func (b Behavior) HasIdentity() bool {
	return b.Kind() == BehaviorStateIdentity
}

// HasState returns true if raises with this behavior carry thread state on
// the wire (input snapshot out, replacement state back).
func (b Behavior) HasState() bool {
	kind := b.Kind()
	return kind == BehaviorState || kind == BehaviorStateIdentity
}

// HasWideCodes returns true if code words are transmitted at full 64-bit
// width.
func (b Behavior) HasWideCodes() bool {
	return b&WideCodes != 0
}

// IsValid returns true if the behavior is one of the six supported
// combinations.
func (b Behavior) IsValid() bool {
	kind := b.Kind()
	return kind >= BehaviorDefault && kind <= BehaviorStateIdentity
}

// String returns the behavior name.
func (b Behavior) String() string {
	var name string
	switch b.Kind() {
	case BehaviorDefault:
		name = "DEFAULT"
	case BehaviorState:
		name = "STATE"
	case BehaviorStateIdentity:
		name = "STATE_IDENTITY"
	default:
		return "UNKNOWN"
	}
	if b.HasWideCodes() {
		name += "|WIDE_CODES"
	}
	return name
}
