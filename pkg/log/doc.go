// Package log provides structured event logging for CrashLink.
//
// This package defines the Logger interface and Event types for capturing
// exception-delivery events at multiple layers (transport, wire, delivery).
// It is separate from operational logging (slog) - event capture provides a
// complete machine-readable trace of each raise/catch exchange for debugging
// and analysis.
//
// # Basic Usage
//
// Components accept a Logger; pass nil or NoopLogger to disable capture:
//
//	// For development: log to console via slog
//	raiser.SetLogger(log.NewSlogAdapter(slog.Default()))
//
//	// For production: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/crashlink/bridge.clog")
//
//	// Both: use MultiLogger
//	catcher.SetLogger(log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl))
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw frame bytes (FrameEvent)
//   - Wire: decoded raise requests and replies (MessageEvent)
//   - Delivery: errors from the dispatch layer (ErrorEventData)
//
// # File Format
//
// Log files use CBOR encoding with a .clog extension and can be read back
// with Reader, optionally filtered.
package log
