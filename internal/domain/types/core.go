package types

// SessionID identifies a relay-brokered session shared by two peers.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// UserID identifies one participant within a session.
type UserID string

// String returns the string form of the user identifier.
func (id UserID) String() string { return string(id) }

// Identity addresses one side of a session. It is fixed for the lifetime of a
// connection.
type Identity struct {
	SessionID SessionID `json:"session_id"`
	UserID    UserID    `json:"user_id"`
}

// Valid reports whether both halves of the identity are set.
func (id Identity) Valid() bool { return id.SessionID != "" && id.UserID != "" }
