package domain

import (
	"time"

	interfaces "nexus/internal/domain/interfaces"
	types "nexus/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	SessionID       = types.SessionID
	UserID          = types.UserID
	Identity        = types.Identity
	ConnectionState = types.ConnectionState
	SyncSnapshot    = types.SyncSnapshot
	Message         = types.Message
	Timestamp       = types.Timestamp
	TPMConfig       = types.TPMConfig
	SessionInfo     = types.SessionInfo
	SessionStatus   = types.SessionStatus
	SyncState       = types.SyncState
	Health          = types.Health
	Profile         = types.Profile
)

// Connection states re-exported for callers that only import domain.
const (
	Connecting = types.Connecting
	Waiting    = types.Waiting
	Syncing    = types.Syncing
	Synced     = types.Synced
	Error      = types.Error
)

// AgreementWindow bounds SyncSnapshot.RecentAgreement.
const AgreementWindow = types.AgreementWindow

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	DirectoryClient = interfaces.DirectoryClient
	Conn            = interfaces.Conn
	Dialer          = interfaces.Dialer
	ProfileStore    = interfaces.ProfileStore
)

// NewTimestamp wraps t as a wire timestamp.
func NewTimestamp(t time.Time) Timestamp { return types.NewTimestamp(t) }

// DefaultTPMConfig is the machine size the relay uses when none is given.
func DefaultTPMConfig() TPMConfig { return types.DefaultTPMConfig() }
