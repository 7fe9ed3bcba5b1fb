// Package relayserver is a small in-memory relay for local development and
// end-to-end tests.
//
// It serves the same surface the client expects: POST /sessions,
// GET /sessions/{id}, GET /health and the per-user websocket at
// /ws/{session}/{user}. Sessions hold at most two participants. Once both
// are present the relay runs a simulated synchronization, streaming
// sync_progress rounds and finishing with sync_complete and a fresh
// fingerprint. It never sees plaintext; chat envelopes are forwarded with
// the sender id and a timestamp attached.
//
// The simulation only produces telemetry of the right shape. It is not a key
// agreement and offers no secrecy against the relay.
package relayserver
