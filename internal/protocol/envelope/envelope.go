package envelope

import "nexus/internal/domain"

// Kind is the value of an envelope's "type" field.
type Kind string

const (
	KindSessionInfo   Kind = "session_info"
	KindUserJoined    Kind = "user_joined"
	KindUserLeft      Kind = "user_left"
	KindSyncStart     Kind = "sync_start"
	KindSyncProgress  Kind = "sync_progress"
	KindSyncComplete  Kind = "sync_complete"
	KindSyncFailed    Kind = "sync_failed"
	KindMessage       Kind = "message"
	KindPing          Kind = "ping"
	KindPong          Kind = "pong"
	KindError         Kind = "error"
	KindAlreadySynced Kind = "already_synced"
	KindRequestSync   Kind = "request_sync"
)

// Error codes the relay is known to send.
const (
	CodeSessionFull = "SESSION_FULL"
)

// Envelope is any typed wire message.
type Envelope interface {
	Kind() Kind
}

// SessionInfo describes the session to a client that just connected.
type SessionInfo struct {
	SessionID        domain.SessionID  `json:"session_id,omitempty"`
	ParticipantCount int               `json:"participant_count"`
	IsSynced         bool              `json:"is_synced,omitempty"`
	TPMConfig        *domain.TPMConfig `json:"tpm_config,omitempty"`
}

// UserJoined announces another participant.
type UserJoined struct {
	UserID           domain.UserID `json:"user_id"`
	ParticipantCount int           `json:"participant_count"`
}

// UserLeft announces a participant leaving.
type UserLeft struct {
	UserID domain.UserID `json:"user_id,omitempty"`
}

// SyncStart marks the beginning of a synchronization attempt.
type SyncStart struct {
	SessionID domain.SessionID  `json:"session_id"`
	TPMConfig *domain.TPMConfig `json:"tpm_config,omitempty"`
}

// SyncProgress reports one synchronization round. Progress is in [0,1].
// The attacker fields carry the relay's simulated eavesdropper, reported to
// the client as peer telemetry.
type SyncProgress struct {
	Round            int      `json:"round"`
	Agreed           bool     `json:"agreed"`
	Progress         float64  `json:"progress"`
	AttackerProgress *float64 `json:"attacker_progress,omitempty"`
	AttackerSynced   *bool    `json:"attacker_synced,omitempty"`
	AttackerTau      *int     `json:"attacker_tau,omitempty"`
	TauA             *int     `json:"tau_a,omitempty"`
	TauB             *int     `json:"tau_b,omitempty"`
	LearningRule     string   `json:"learning_rule,omitempty"`
	BestProgress     *float64 `json:"best_progress,omitempty"`
}

// SyncComplete carries the agreed fingerprint.
type SyncComplete struct {
	Rounds         int    `json:"rounds"`
	KeyFingerprint string `json:"key_fingerprint"`
}

// SyncFailed ends a synchronization attempt without a key.
type SyncFailed struct {
	Message string `json:"message"`
}

// Message carries ciphertext. Outbound messages set only Ciphertext; the
// relay adds SenderID and Timestamp when forwarding.
type Message struct {
	SenderID   domain.UserID     `json:"sender_id,omitempty"`
	Ciphertext string            `json:"ciphertext"`
	Timestamp  *domain.Timestamp `json:"timestamp,omitempty"`
}

// Ping asks the other side for a Pong.
type Ping struct{}

// Pong answers a Ping.
type Pong struct{}

// Error is a relay-signalled error. Code may be empty.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// AlreadySynced tells a joining client the session finished agreement before
// it arrived.
type AlreadySynced struct{}

// RequestSync asks the relay to (re)start synchronization.
type RequestSync struct{}

func (SessionInfo) Kind() Kind   { return KindSessionInfo }
func (UserJoined) Kind() Kind    { return KindUserJoined }
func (UserLeft) Kind() Kind      { return KindUserLeft }
func (SyncStart) Kind() Kind     { return KindSyncStart }
func (SyncProgress) Kind() Kind  { return KindSyncProgress }
func (SyncComplete) Kind() Kind  { return KindSyncComplete }
func (SyncFailed) Kind() Kind    { return KindSyncFailed }
func (Message) Kind() Kind       { return KindMessage }
func (Ping) Kind() Kind          { return KindPing }
func (Pong) Kind() Kind          { return KindPong }
func (Error) Kind() Kind         { return KindError }
func (AlreadySynced) Kind() Kind { return KindAlreadySynced }
func (RequestSync) Kind() Kind   { return KindRequestSync }
