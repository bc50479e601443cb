// Package cloud implements the vendor REST collaborator for the robovac
// bridge.
//
// The vendor cloud is involved three times in a session's life:
//
//  1. Login: exchange account email/password for an access token, then
//     resolve the account's user-center identity and derive the gtoken
//     request signature from it.
//  2. Roster: list the account's devices, merging the modern
//     device-relation listing with the legacy cloud listing (which may
//     404 and is then silently skipped).
//  3. Broker credentials: fetch the per-account MQTT identity, endpoint
//     and TLS client keypair. These are transient; sessions re-fetch
//     them after long outages.
//
// The access token, gtoken and broker credentials are secrets and are
// never logged.
package cloud
