package interfaces

import (
	"context"

	domaintypes "nexus/internal/domain/types"
)

// DirectoryClient is how we ask the relay to allocate and describe sessions.
type DirectoryClient interface {
	CreateSession(ctx context.Context, cfg domaintypes.TPMConfig) (domaintypes.SessionInfo, error)
	GetSession(ctx context.Context, id domaintypes.SessionID) (domaintypes.SessionStatus, error)
	Health(ctx context.Context) (domaintypes.Health, error)
}
