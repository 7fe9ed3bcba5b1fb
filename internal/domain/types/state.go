package types

import "fmt"

// ConnectionState is the coarse lifecycle of a session as seen by the client.
type ConnectionState int

const (
	// Connecting is the initial state, before the relay has described the session.
	Connecting ConnectionState = iota
	// Waiting means we are connected but the peer has not joined yet.
	Waiting
	// Syncing means both peers are present and key agreement is running.
	Syncing
	// Synced means agreement finished; messages can be exchanged.
	Synced
	// Error is terminal for a session instance.
	Error
)

var connectionStateNames = [...]string{
	Connecting: "connecting",
	Waiting:    "waiting",
	Syncing:    "syncing",
	Synced:     "synced",
	Error:      "error",
}

// String returns the lower-case name of the state.
func (s ConnectionState) String() string {
	if s < 0 || int(s) >= len(connectionStateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return connectionStateNames[s]
}

// MarshalText encodes the state by name.
func (s ConnectionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
