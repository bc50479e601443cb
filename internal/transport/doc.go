// Package transport provides MQTT connectivity to the vendor device
// broker.
//
// This package manages:
//   - TLS connection using the transient client certificate issued by
//     the cloud (held in memory only, never written to disk)
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with automatic restoration on reconnect
//   - Connection event callbacks for the session layer's outage tracking
//
// # Architecture
//
// The vendor broker is the only path to the devices; there is no local
// fallback. Each bridge process holds one broker connection per account
// and multiplexes per-device request/response topics over it.
//
//	robovac bridge ↔ vendor MQTT broker (mTLS :8883) ↔ devices
//
// # Security Considerations
//
//   - The broker requires TLS 1.2+ with the cloud-issued client keypair
//   - The keypair is transient: it lives in process memory for the life
//     of the credentials and must never be logged or persisted
//   - The username is the cloud account's broker user id
//
// # Reconnect model
//
// The client auto-reconnects with exponential backoff while the
// credentials remain valid. Deciding when credentials are too old to
// reuse is the session layer's job: it watches the disconnect callback,
// and after a long outage closes this client and dials a fresh one with
// newly fetched credentials.
package transport
