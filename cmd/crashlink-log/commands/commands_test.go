package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crashlink-project/crashlink-go/pkg/log"
	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

// createTestLogFile writes events to a temporary .clog file and returns its
// path.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.clog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	for _, event := range events {
		logger.Log(event)
	}
	return path
}

// sampleExchange builds the events of one complete raise/catch exchange.
func sampleExchange(ts time.Time, exchangeID string, status wire.Status) []log.Event {
	exception := int32(3)
	return []log.Event{
		{
			Timestamp: ts,
			ChannelID: "chan-aaaa-bbbb",
			Direction: log.DirectionOut,
			Layer:     log.LayerTransport,
			Category:  log.CategoryMessage,
			Frame:     &log.FrameEvent{Size: 36, Data: []byte{0xa1, 0x01}},
		},
		{
			Timestamp:  ts,
			ExchangeID: exchangeID,
			Direction:  log.DirectionOut,
			Layer:      log.LayerWire,
			Category:   log.CategoryMessage,
			LocalRole:  log.RoleRaiser,
			Message: &log.MessageEvent{
				Type:      log.MessageTypeRequest,
				MsgID:     wire.MsgIDRaise,
				Behavior:  wire.BehaviorDefault,
				Exception: &exception,
			},
		},
		{
			Timestamp:  ts.Add(time.Millisecond),
			ExchangeID: exchangeID,
			Direction:  log.DirectionIn,
			Layer:      log.LayerWire,
			Category:   log.CategoryMessage,
			LocalRole:  log.RoleRaiser,
			Message: &log.MessageEvent{
				Type:   log.MessageTypeReply,
				MsgID:  wire.MsgIDRaise + wire.ReplyIDOffset,
				Status: &status,
			},
		},
	}
}

func TestViewFormatsEvents(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sampleExchange(ts, "1b9d6bcd-aaaa", wire.StatusSuccess))

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Frame") {
		t.Error("expected a frame event in output")
	}
	if !strings.Contains(output, "REQUEST") {
		t.Error("expected a request event in output")
	}
	if !strings.Contains(output, "REPLY") {
		t.Error("expected a reply event in output")
	}
	if !strings.Contains(output, "SUCCESS") {
		t.Error("expected the reply status in output")
	}
	if !strings.Contains(output, "2401") {
		t.Error("expected the request message ID in output")
	}
}

func TestViewFiltersByLayer(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sampleExchange(ts, "1b9d6bcd-aaaa", wire.StatusSuccess))

	layer := log.LayerWire
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &layer}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "Frame") {
		t.Error("transport frame should be filtered out")
	}
	if !strings.Contains(output, "REQUEST") {
		t.Error("expected wire-layer request in output")
	}
}

func TestViewFiltersByExchange(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events := append(
		sampleExchange(ts, "exchange-one", wire.StatusSuccess),
		sampleExchange(ts.Add(time.Second), "exchange-two", wire.StatusFailure)...)
	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Exchange: "exchange-two"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "FAILURE") {
		t.Error("expected the second exchange's status")
	}
	if strings.Contains(output, "SUCCESS") {
		t.Error("first exchange should be filtered out")
	}
}

func TestExportJSONL(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sampleExchange(ts, "1b9d6bcd-aaaa", wire.StatusSuccess))
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 JSONL lines, got %d", len(lines))
	}
	for i, line := range lines {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestExportCSV(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sampleExchange(ts, "1b9d6bcd-aaaa", wire.StatusSuccess))
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Header plus three events
	if len(lines) != 4 {
		t.Fatalf("expected 4 CSV lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "timestamp,exchange_id") {
		t.Errorf("unexpected CSV header: %s", lines[0])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sampleExchange(ts, "x", wire.StatusSuccess))

	if err := RunExport(path, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFilterWritesMatchingEvents(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events := append(
		sampleExchange(ts, "exchange-one", wire.StatusSuccess),
		sampleExchange(ts.Add(time.Second), "exchange-two", wire.StatusFailure)...)
	path := createTestLogFile(t, events)
	out := filepath.Join(t.TempDir(), "filtered.clog")

	err := RunFilter(path, FilterOptions{Output: out, ExchangeID: "exchange-one"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("opening filtered file failed: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err != nil {
			break
		}
		count++
		if event.ExchangeID != "exchange-one" {
			t.Errorf("unexpected exchange ID %q in filtered output", event.ExchangeID)
		}
	}
	if count != 2 {
		t.Errorf("expected 2 filtered events, got %d", count)
	}
}

func TestFilterRejectsBadLayer(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sampleExchange(ts, "x", wire.StatusSuccess))
	out := filepath.Join(t.TempDir(), "filtered.clog")

	err := RunFilter(path, FilterOptions{Output: out, Layer: "kernel"})
	if err == nil {
		t.Error("expected error for unknown layer")
	}
}

func TestStatsSummarizesExchanges(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events := append(
		sampleExchange(ts, "exchange-one", wire.StatusSuccess),
		sampleExchange(ts.Add(time.Second), "exchange-two", wire.StatusFailure)...)
	events = append(events, log.Event{
		Timestamp: ts.Add(2 * time.Second),
		Layer:     log.LayerPersistence,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Layer: log.LayerPersistence, Message: "open failed"},
	})
	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Total Events: 7") {
		t.Errorf("unexpected total in output:\n%s", output)
	}
	if !strings.Contains(output, "Exchanges: 2") {
		t.Errorf("expected 2 exchanges in output:\n%s", output)
	}
	if !strings.Contains(output, "TRANSPORT:") || !strings.Contains(output, "WIRE:") {
		t.Error("expected layer breakdown in output")
	}
	if !strings.Contains(output, "PERSISTENCE:") {
		t.Error("expected persistence layer in output")
	}
	if !strings.Contains(output, "Errors: 1") {
		t.Error("expected error count in output")
	}
}

func TestParseFlagHelpers(t *testing.T) {
	if _, err := ParseLayer("wire"); err != nil {
		t.Errorf("ParseLayer(wire) error = %v", err)
	}
	if _, err := ParseLayer("bogus"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if _, err := ParseDirection("out"); err != nil {
		t.Errorf("ParseDirection(out) error = %v", err)
	}
	if _, err := ParseCategory("error"); err != nil {
		t.Errorf("ParseCategory(error) error = %v", err)
	}
}
