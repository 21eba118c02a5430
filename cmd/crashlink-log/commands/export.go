package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/crashlink-project/crashlink-go/pkg/log"
)

// RunExport converts a .clog file to jsonl or csv, writing to output or to
// stdout when output is empty.
func RunExport(path, format, output string) error {
	var emit func(*log.Reader, io.Writer) error
	switch format {
	case "jsonl":
		emit = exportJSONL
	case "csv":
		emit = exportCSV
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	if output == "" {
		return emit(reader, os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	return emit(reader, f)
}

// eachEvent streams the reader through fn, stopping at the first error.
func eachEvent(reader *log.Reader, fn func(log.Event) error) error {
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	return eachEvent(reader, func(event log.Event) error {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return nil
	})
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "exchange_id", "channel_id", "direction", "layer", "category", "type", "msg_id", "status"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return eachEvent(reader, func(event log.Event) error {
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
		return nil
	})
}

// csvRow flattens one event into the export column set.
func csvRow(event log.Event) []string {
	eventType := "unknown"
	msgID := ""
	status := ""
	switch {
	case event.Frame != nil:
		eventType = "frame"
	case event.Message != nil:
		eventType = event.Message.Type.String()
		msgID = strconv.FormatUint(uint64(event.Message.MsgID), 10)
		if event.Message.Status != nil {
			status = event.Message.Status.String()
		}
	case event.Error != nil:
		eventType = "error"
	}

	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.ExchangeID,
		event.ChannelID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		eventType,
		msgID,
		status,
	}
}
