package types

import "time"

// SessionInfo is the directory's answer to a session creation request.
type SessionInfo struct {
	SessionID        SessionID `json:"session_id"`
	CreatedAt        Timestamp `json:"created_at"`
	ParticipantCount int       `json:"participant_count"`
	IsSynced         bool      `json:"is_synced"`
	TPMConfig        TPMConfig `json:"tpm_config"`
}

// SyncState is the relay-side view of a session's agreement.
type SyncState struct {
	Round    int  `json:"round"`
	IsSynced bool `json:"is_synced"`
}

// SessionStatus describes a live session held by the relay.
type SessionStatus struct {
	SessionID    SessionID `json:"session_id"`
	Participants []UserID  `json:"participants"`
	SyncState    SyncState `json:"sync_state"`
	CreatedAt    Timestamp `json:"created_at"`
}

// Health is the relay's liveness report.
type Health struct {
	Status         string    `json:"status"`
	ActiveSessions int       `json:"active_sessions"`
	Timestamp      Timestamp `json:"timestamp"`
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }
