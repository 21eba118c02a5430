package log

import (
	"testing"
	"time"

	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

func TestEventRoundTrip(t *testing.T) {
	exception := int32(3)
	status := wire.StatusSuccess
	words := 16

	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "request message event",
			event: Event{
				Timestamp:  time.Now().UTC(),
				ExchangeID: "exchange-1",
				Direction:  DirectionOut,
				Layer:      LayerWire,
				Category:   CategoryMessage,
				LocalRole:  RoleRaiser,
				Message: &MessageEvent{
					Type:       MessageTypeRequest,
					MsgID:      wire.MsgIDRaiseStateWide,
					Behavior:   wire.BehaviorState | wire.WideCodes,
					Exception:  &exception,
					StateWords: &words,
				},
			},
		},
		{
			name: "reply message event",
			event: Event{
				Timestamp:  time.Now().UTC(),
				ExchangeID: "exchange-2",
				Direction:  DirectionIn,
				Layer:      LayerWire,
				Category:   CategoryMessage,
				LocalRole:  RoleHandler,
				Message: &MessageEvent{
					Type:   MessageTypeReply,
					MsgID:  wire.MsgIDRaise + wire.ReplyIDOffset,
					Status: &status,
				},
			},
		},
		{
			name: "frame event",
			event: Event{
				Timestamp:  time.Now().UTC(),
				ExchangeID: "exchange-3",
				Direction:  DirectionOut,
				Layer:      LayerTransport,
				Category:   CategoryMessage,
				Frame: &FrameEvent{
					Size: 32,
					Data: []byte{0x01, 0x02, 0x03},
				},
			},
		},
		{
			name: "error event",
			event: Event{
				Timestamp:  time.Now().UTC(),
				ExchangeID: "exchange-4",
				Direction:  DirectionIn,
				Layer:      LayerDelivery,
				Category:   CategoryError,
				Error: &ErrorEventData{
					Layer:   LayerDelivery,
					Message: "reply variant does not match request",
					Context: "raise",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(tt.event)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}

			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}

			if decoded.ExchangeID != tt.event.ExchangeID {
				t.Errorf("ExchangeID = %q, want %q", decoded.ExchangeID, tt.event.ExchangeID)
			}
			if decoded.Direction != tt.event.Direction {
				t.Errorf("Direction = %v, want %v", decoded.Direction, tt.event.Direction)
			}
			if decoded.Layer != tt.event.Layer {
				t.Errorf("Layer = %v, want %v", decoded.Layer, tt.event.Layer)
			}
			if decoded.Category != tt.event.Category {
				t.Errorf("Category = %v, want %v", decoded.Category, tt.event.Category)
			}
			if (decoded.Message == nil) != (tt.event.Message == nil) {
				t.Errorf("Message presence = %v, want %v", decoded.Message != nil, tt.event.Message != nil)
			}
			if tt.event.Message != nil && decoded.Message.MsgID != tt.event.Message.MsgID {
				t.Errorf("MsgID = %d, want %d", decoded.Message.MsgID, tt.event.Message.MsgID)
			}
			if (decoded.Error == nil) != (tt.event.Error == nil) {
				t.Errorf("Error presence = %v, want %v", decoded.Error != nil, tt.event.Error != nil)
			}
		})
	}
}
