package domain

import "errors"

// Error classes shared by every layer. Components wrap these with context
// using fmt.Errorf("...: %w", ...) and callers test with errors.Is.
var (
	// ErrProtocol marks a malformed or unparseable envelope.
	ErrProtocol = errors.New("protocol error")
	// ErrCrypto marks a missing key, a failed derivation, or a ciphertext that
	// did not authenticate.
	ErrCrypto = errors.New("crypto error")
	// ErrTransport marks a failure of the underlying connection.
	ErrTransport = errors.New("transport error")
	// ErrNotReady is returned when sending before the session is synced.
	ErrNotReady = errors.New("session not ready")
	// ErrSessionFull is signalled by the relay when two peers are already present.
	ErrSessionFull = errors.New("session full")
	// ErrClosed is returned by operations on a session that has been left.
	ErrClosed = errors.New("session closed")
)
