// Package wire defines the CBOR wire format for CrashLink exception delivery.
//
// An exception raise travels over a kernel-mediated channel in one of six
// mutually incompatible encodings. The encoding is selected by the raise
// Behavior, a bitmask combining a base kind (DEFAULT, STATE, STATE_IDENTITY)
// with an independent wide-codes flag. Each encoding is identified on the wire
// by its message ID, so a receiver needs no prior knowledge of which variant
// arrived.
//
// # Message Types
//
// There are two message types:
//   - RaiseRequest: raiser to handler (one of six variants)
//   - RaiseReply: handler to raiser (always in the variant of the request)
//
// # CBOR Integer Keys
//
// All maps use integer keys for compactness. The key mappings are defined as
// constants in this package.
//
// # Field Presence
//
// Which fields appear on the wire is a pure function of the variant:
//   - Exactly two code words are present for every variant.
//   - Thread and task are present iff the variant carries identity.
//   - Flavor and state words are present iff the variant carries state.
//
// Variants without the wide-codes flag truncate code and subcode to their low
// 32 bits (two's complement) before encoding. The truncation is silent and
// deterministic; the receiver observes only the truncated values.
package wire
