// Package protocol implements the vendor data-point codec for Eufy
// robovac devices.
//
// Device state and commands travel as "data points": vendor-keyed values
// carried inside MQTT envelopes. Simple data points are plain scalars
// (battery percentage, booleans); structured ones are protobuf-encoded
// messages transported as base64 text. This package owns the fixed set of
// wire schemas for those structured payloads:
//
//   - mode control (start/stop/pause/resume, room/zone/scene selection)
//   - work status (activity state, mode, dock wash/dry sub-state)
//   - error codes (active warning list)
//   - cleaning parameters (clean type, extent, mop mode)
//   - station commands (dry mop, self-clean, collect dust)
//
// # Decode behaviour
//
// Decoding is deliberately forgiving: a truncated or garbage payload for a
// known schema yields a zero-valued message plus an error describing the
// condition, never a panic. Callers log and carry on — a single malformed
// data point must not take down a device session. Requesting an unknown
// SchemaID is a programming error and panics.
//
// # Encode behaviour
//
// Marshal is deterministic: fields are emitted in ascending field-number
// order and zero values are omitted, so identical inputs produce identical
// bytes. Command retries and round-trip tests rely on this.
package protocol
