package log

import (
	"time"

	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

// Event represents a delivery log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ExchangeID uniquely identifies one raise/catch exchange (UUID).
	ExchangeID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this side raises or handles exceptions.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// ChannelID identifies the exception channel (transport-layer events).
	ChannelID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame   *FrameEvent     `cbor:"10,keyasint,omitempty"` // Transport layer
	Message *MessageEvent   `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	Error   *ErrorEventData `cbor:"12,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerDelivery is the dispatch/normalization layer.
	LayerDelivery Layer = 2
	// LayerPersistence is the report/file storage layer.
	LayerPersistence Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerDelivery:
		return "DELIVERY"
	case LayerPersistence:
		return "PERSISTENCE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a raise request or reply.
	CategoryMessage Category = 0
	// CategoryError indicates an error event.
	CategoryError Category = 1
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint raises or handles exceptions.
type Role uint8

const (
	// RoleRaiser indicates the dispatching (raise) side.
	RoleRaiser Role = 0
	// RoleHandler indicates the normalizing (catch) side.
	RoleHandler Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleRaiser:
		return "RAISER"
	case RoleHandler:
		return "HANDLER"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded raise request or reply at the wire layer.
type MessageEvent struct {
	// Type distinguishes request from reply.
	Type MessageType `cbor:"1,keyasint"`

	// MsgID is the wire message ID identifying the variant.
	MsgID uint32 `cbor:"2,keyasint"`

	// Behavior that selected the variant.
	Behavior wire.Behavior `cbor:"3,keyasint,omitempty"`

	// For requests: the exception type.
	Exception *int32 `cbor:"4,keyasint,omitempty"`

	// For replies: the handler status.
	Status *wire.Status `cbor:"5,keyasint,omitempty"`

	// Number of state words carried (state variants only).
	StateWords *int `cbor:"6,keyasint,omitempty"`
}

// MessageType distinguishes request from reply.
type MessageType uint8

const (
	// MessageTypeRequest indicates a raise request.
	MessageTypeRequest MessageType = 0
	// MessageTypeReply indicates a raise reply.
	MessageTypeReply MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeReply:
		return "REPLY"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
