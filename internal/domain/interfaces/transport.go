package interfaces

import (
	"context"

	domaintypes "nexus/internal/domain/types"
)

// Conn is one persistent, bidirectional connection carrying one JSON envelope
// per frame. Read is only ever called from a single goroutine.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, frame []byte) error
	Close() error
}

// Dialer opens the connection for one (session, user) pair.
type Dialer interface {
	Dial(ctx context.Context, id domaintypes.Identity) (Conn, error)
}
