// Package commands implements the crashlink-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/crashlink-project/crashlink-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
	Exchange  string
}

// RunView prints matching events in human-readable form.
func RunView(path string, vf ViewFilter, w io.Writer) error {
	filter := log.Filter{
		ExchangeID: vf.Exchange,
		Layer:      vf.Layer,
		Direction:  vf.Direction,
		Category:   vf.Category,
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	return eachEvent(reader, func(event log.Event) error {
		formatEvent(w, event)
		return nil
	})
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = "Frame"
	case event.Message != nil:
		typeLabel = event.Message.Type.String()
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [%s] %-3s %s %s\n",
		ts, shortenID(eventScopeID(event)), event.Direction, event.Layer, typeLabel)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// eventScopeID picks the most specific identifier the event carries:
// transport events have a channel ID, wire and delivery events an exchange ID.
func eventScopeID(event log.Event) string {
	if event.ExchangeID != "" {
		return event.ExchangeID
	}
	return event.ChannelID
}

// shortenID returns the first 8 characters of a UUID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	fmt.Fprintf(w, "  MsgID: %d\n", msg.MsgID)
	if msg.Behavior != 0 {
		fmt.Fprintf(w, "  Behavior: %s\n", msg.Behavior)
	}
	if msg.Exception != nil {
		fmt.Fprintf(w, "  Exception: %d\n", *msg.Exception)
	}
	if msg.Status != nil {
		fmt.Fprintf(w, "  Status: %s (%d)\n", msg.Status, uint32(*msg.Status))
	}
	if msg.StateWords != nil {
		fmt.Fprintf(w, "  StateWords: %d\n", *msg.StateWords)
	}
}

func formatErrorDetails(w io.Writer, errEvent *log.ErrorEventData) {
	fmt.Fprintf(w, "  Error: %s\n", errEvent.Message)
	if errEvent.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", errEvent.Context)
	}
}

// ParseLayer maps a layer name to its value.
func ParseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "delivery":
		return log.LayerDelivery, nil
	case "persistence":
		return log.LayerPersistence, nil
	default:
		return 0, fmt.Errorf("unknown layer: %s (supported: transport, wire, delivery, persistence)", s)
	}
}

// ParseDirection maps a direction name to its value.
func ParseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("unknown direction: %s (supported: in, out)", s)
	}
}

// ParseCategory maps a category name to its value.
func ParseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category: %s (supported: message, error)", s)
	}
}
