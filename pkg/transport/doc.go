// Package transport provides blocking exception-channel transports for
// CrashLink.
//
// The transport layer handles:
//   - Length-prefixed message framing
//   - Blocking send/receive over a channel endpoint
//   - Transparent retry of interrupted system calls
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR raise messages       │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│   Channel endpoint (socket)    │
//	└────────────────────────────────┘
//
// # Interruption
//
// The delivery layer's Transport contract requires that interruption of the
// underlying call (EINTR) be retried transparently and never surfaced as
// failure. ChannelConn implements that retry; genuine I/O errors are
// returned as-is and are never retried.
package transport
