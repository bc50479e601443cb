// Package robovac implements the device-state synchronization and
// command core of the bridge.
//
// One Session per physical device owns the full lifecycle: acquire
// transient broker credentials from the cloud, connect over mTLS,
// subscribe to the device's response topic, fold inbound data-point
// batches into the state store, and fan state-change notifications out
// to registered observers. Outbound commands travel the other way: the
// command facade translates intent-level calls (play, room clean, set
// clean speed) into encoded data points wrapped in the vendor envelope.
//
// # Protocol dialects
//
// Two generations of firmware key their data points differently. The
// legacy dialect uses low flat codes (battery on "104"); the novel
// dialect uses the 15x/17x range with protobuf-encoded values (battery
// on "163"). The dialect is classified from the first data-point batch
// seen and is stable for the session's lifetime.
//
// # Resilience
//
// A malformed inbound message is logged and dropped; it never takes the
// session down. A failing observer is isolated; the remaining observers
// still run. Transport outages ride the client's auto-reconnect, and an
// outage longer than the credential lifetime triggers a full redial
// with freshly fetched credentials.
package robovac
