// Package main runs the in-memory development relay for nexus.
//
// HTTP API
//
//	POST /sessions {"tpm_k":3,"tpm_n":4,"tpm_l":3}
//	    Create a session. Every field is optional. Returns session_id,
//	    created_at, participant_count, is_synced and tpm_config.
//
//	GET /sessions/{id}
//	    Participants and sync_state{round,is_synced}; 404 if unknown.
//
//	GET /health
//	    {"status":"healthy","active_sessions":N,"timestamp":...}
//
//	GET /ws/{session}/{user}?tpm_k=&tpm_n=&tpm_l=
//	    Websocket carrying one JSON envelope per text frame. A third
//	    participant receives an error with code SESSION_FULL and is closed.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Synchronization is simulated: the relay streams sync_progress rounds and
//     then sync_complete with a random fingerprint.
//   - Idle connections are pinged; pings from clients are answered.
//   - An access log records method, path, status and duration per request.
//
// Configuration comes from RELAY_ADDR (default :8000), RELAY_SYNC_ROUNDS,
// RELAY_SYNC_INTERVAL, RELAY_SYNC_START_DELAY, RELAY_IDLE_PING,
// RELAY_WRITE_TIMEOUT, RELAY_LOG_LEVEL and RELAY_LOG_FORMAT.
//
// The relay never sees plaintext. It is not a security boundary: it chooses
// the fingerprint both peers derive their key from.
package main
